package handlers

import (
	"net/http"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{
		bracketService: bs,
	}
}

// Generate godoc
// @Summary Generate the single elimination bracket
// @Description Registration must be closed. With fewer approved teams than the capacity the request
// @Description fails with 409 unless under_quota is true.
// @Tags bracket
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body object false "{\"under_quota\": true}"
// @Success 201 {object} services.BracketView
// @Failure 400 {object} map[string]string "Not enough teams"
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]interface{} "Quota not met, wrong status or bracket exists"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket [post]
func (h *BracketHandler) Generate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		UnderQuota bool `json:"under_quota"`
	}
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	view, err := h.bracketService.GenerateBracket(r.Context(), actor, tournamentID, input.UnderQuota)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get godoc
// @Summary Tournament bracket
// @Description Tournament, approved teams and matches grouped by round.
// @Tags bracket
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} services.BracketView
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/bracket [get]
func (h *BracketHandler) Get(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
