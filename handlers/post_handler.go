package handlers

import (
	"net/http"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/services"
	"github.com/go-chi/chi/v5"
)

type PostHandler struct {
	postService services.PostService
}

func NewPostHandler(ps services.PostService) *PostHandler {
	return &PostHandler{
		postService: ps,
	}
}

// Create godoc
// @Summary Publish a knowledge hub post
// @Description The slug is derived from the title and suffixed on collision.
// @Tags posts
// @Accept json
// @Produce json
// @Param body body services.CreatePostInput true "Post"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /posts [post]
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var input services.CreatePostInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	post, err := h.postService.Create(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"post": post}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List godoc
// @Summary List posts
// @Tags posts
// @Produce json
// @Param category query string false "Category"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /posts [get]
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paginationFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var category *string
	if v := r.URL.Query().Get("category"); v != "" {
		category = &v
	}

	posts, err := h.postService.List(r.Context(), category, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"posts": posts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetBySlug godoc
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /posts/{slug} [get]
func (h *PostHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"post": post}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete godoc
// @Summary Delete a post
// @Description Author or admin only.
// @Tags posts
// @Param slug path string true "Post slug"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /posts/{slug} [delete]
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), actor, chi.URLParam(r, "slug")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
