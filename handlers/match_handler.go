package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/services"
	"github.com/go-chi/chi/v5"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: ms,
	}
}

func matchParams(r *http.Request) (int, string, error) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		return 0, "", err
	}
	matchID := chi.URLParam(r, "matchID")
	if _, _, ok := models.ParseMatchID(matchID); !ok {
		return 0, "", fmt.Errorf("invalid matchID format: %q", matchID)
	}
	return tournamentID, matchID, nil
}

// GetMatch godoc
// @Summary Get a bracket match
// @Tags matches
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchID path string true "Match ID, e.g. R1M2"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	tournamentID, matchID, err := matchParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), tournamentID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Schedule godoc
// @Summary Schedule a match
// @Tags matches
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchID path string true "Match ID, e.g. R1M2"
// @Param body body object true "{\"scheduled_at\": \"2026-01-02T18:00:00Z\"}"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchID}/schedule [patch]
func (h *MatchHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	tournamentID, matchID, err := matchParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ScheduledAt == nil {
		badRequestResponse(w, r, services.ErrScheduleRequired)
		return
	}

	match, err := h.matchService.ScheduleMatch(r.Context(), actor, tournamentID, matchID, *input.ScheduledAt)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Start godoc
// @Summary Mark a scheduled match as live
// @Tags matches
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchID path string true "Match ID, e.g. R1M2"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchID}/start [post]
func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	tournamentID, matchID, err := matchParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.StartMatch(r.Context(), actor, tournamentID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReportWinner godoc
// @Summary Report a match winner
// @Description A captain's report proposes the winner. The organizer's report completes the match
// @Description and advances the winner into the next round.
// @Tags matches
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchID path string true "Match ID, e.g. R1M2"
// @Param body body object true "{\"winner_team_id\": 7}"
// @Success 200 {object} services.MatchResult
// @Failure 400 {object} map[string]string "Invalid winner or match not ready"
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string "Different result already reported"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchID}/winner [post]
func (h *MatchHandler) ReportWinner(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	tournamentID, matchID, err := matchParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		WinnerTeamID int `json:"winner_team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinnerTeamID <= 0 {
		badRequestResponse(w, r, errors.New("winner_team_id is required"))
		return
	}

	result, err := h.matchService.ReportWinner(r.Context(), actor, tournamentID, matchID, input.WinnerTeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
