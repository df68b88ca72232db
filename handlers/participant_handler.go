package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/services"
)

type ParticipantHandler struct {
	participantService services.ParticipantService
}

func NewParticipantHandler(ps services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{
		participantService: ps,
	}
}

// RegisterTeam godoc
// @Summary Register a team for a tournament
// @Description The caller becomes the team captain. The team starts pending organizer approval.
// @Tags participants
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body services.RegisterTeamInput true "Team name and roster"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid roster"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Registration closed, full or already registered"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/teams [post]
func (h *ParticipantHandler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RegisterTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.Roster) == 0 {
		badRequestResponse(w, r, errors.New("roster must contain at least one player"))
		return
	}

	team, err := h.participantService.RegisterTeam(r.Context(), actor, tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTeams godoc
// @Summary Teams registered for a tournament
// @Tags participants
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/teams [get]
func (h *ParticipantHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.TeamStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := models.TeamStatus(v)
		switch s {
		case models.TeamPending, models.TeamApproved, models.TeamRejected:
			status = &s
		default:
			badRequestResponse(w, r, fmt.Errorf("invalid status parameter: %q", v))
			return
		}
	}

	teams, err := h.participantService.ListTeams(r.Context(), tournamentID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateTeamStatus godoc
// @Summary Approve or reject a pending team
// @Tags participants
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param teamID path int true "Team ID"
// @Param body body object true "{\"status\": \"approved\"}"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string "Already processed"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/teams/{teamID}/status [patch]
func (h *ParticipantHandler) UpdateTeamStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.TeamStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.participantService.UpdateTeamStatus(r.Context(), actor, tournamentID, teamID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// WithdrawTeam godoc
// @Summary Withdraw a team
// @Description Only the captain, and only before the bracket is generated.
// @Tags participants
// @Param tournamentID path int true "Tournament ID"
// @Param teamID path int true "Team ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/teams/{teamID} [delete]
func (h *ParticipantHandler) WithdrawTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participantService.WithdrawTeam(r.Context(), actor, tournamentID, teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
