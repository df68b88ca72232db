package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/services"
)

type JoinRequestHandler struct {
	joinRequestService services.JoinRequestService
}

func NewJoinRequestHandler(js services.JoinRequestService) *JoinRequestHandler {
	return &JoinRequestHandler{
		joinRequestService: js,
	}
}

// Submit godoc
// @Summary Ask to join a clan
// @Tags join-requests
// @Accept json
// @Produce json
// @Param clanID path int true "Clan ID"
// @Param body body object false "{\"message\": \"TH14, active in wars\"}"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Already a member or request pending"
// @Security BearerAuth
// @Router /clans/{clanID}/join-requests [post]
func (h *JoinRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	clanID, err := getIDFromURL(r, "clanID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Message string `json:"message"`
	}
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	req, err := h.joinRequestService.Submit(r.Context(), actor, clanID, input.Message)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"join_request": req}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List godoc
// @Summary Join requests of a clan
// @Tags join-requests
// @Produce json
// @Param clanID path int true "Clan ID"
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /clans/{clanID}/join-requests [get]
func (h *JoinRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	clanID, err := getIDFromURL(r, "clanID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.JoinRequestStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := models.JoinRequestStatus(v)
		switch s {
		case models.JoinRequestPending, models.JoinRequestApproved, models.JoinRequestRejected:
			status = &s
		default:
			badRequestResponse(w, r, fmt.Errorf("invalid status parameter: %q", v))
			return
		}
	}

	requests, err := h.joinRequestService.List(r.Context(), actor, clanID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"join_requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Approve godoc
// @Summary Approve a pending join request
// @Tags join-requests
// @Produce json
// @Param requestID path int true "Join request ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Already processed"
// @Security BearerAuth
// @Router /join-requests/{requestID}/approve [post]
func (h *JoinRequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.joinRequestService.Approve)
}

// Reject godoc
// @Summary Reject a pending join request
// @Tags join-requests
// @Produce json
// @Param requestID path int true "Join request ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Already processed"
// @Security BearerAuth
// @Router /join-requests/{requestID}/reject [post]
func (h *JoinRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.joinRequestService.Reject)
}

func (h *JoinRequestHandler) resolve(w http.ResponseWriter, r *http.Request, fn func(context.Context, services.Actor, int) (*models.JoinRequest, error)) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	req, err := fn(r.Context(), actor, requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"join_request": req}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
