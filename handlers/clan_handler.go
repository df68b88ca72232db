package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/services"
)

type ClanHandler struct {
	clanService services.ClanService
	syncService services.ClanSyncService
}

func NewClanHandler(cs services.ClanService, ss services.ClanSyncService) *ClanHandler {
	return &ClanHandler{
		clanService: cs,
		syncService: ss,
	}
}

// LinkClan godoc
// @Summary Link a managed clan
// @Description The caller's player tag must be leader or co-leader of the clan in game.
// @Tags clans
// @Accept json
// @Produce json
// @Param body body object true "{\"tag\": \"#2PP\"}"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string "Clan already managed"
// @Failure 502 {object} map[string]string "Game API failure"
// @Security BearerAuth
// @Router /clans [post]
func (h *ClanHandler) LinkClan(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var input struct {
		Tag string `json:"tag"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.Tag) == "" {
		badRequestResponse(w, r, errors.New("tag is required"))
		return
	}

	clan, err := h.clanService.LinkClan(r.Context(), actor, input.Tag)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"clan": clan}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetClan godoc
// @Summary Clan with its platform members
// @Tags clans
// @Produce json
// @Param clanID path int true "Clan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /clans/{clanID} [get]
func (h *ClanHandler) GetClan(w http.ResponseWriter, r *http.Request) {
	clanID, err := getIDFromURL(r, "clanID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	clan, err := h.clanService.GetClan(r.Context(), clanID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"clan": clan}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ChangeMemberRole godoc
// @Summary Change a member's clan role
// @Tags clans
// @Accept json
// @Produce json
// @Param clanID path int true "Clan ID"
// @Param userID path int true "User ID"
// @Param body body object true "{\"role\": \"elder\"}"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /clans/{clanID}/members/{userID}/role [patch]
func (h *ClanHandler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	clanID, err := getIDFromURL(r, "clanID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Role models.ClanRole `json:"role"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	member, err := h.clanService.ChangeMemberRole(r.Context(), actor, clanID, userID, input.Role)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"member": member}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// KickMember godoc
// @Summary Remove a member from the clan
// @Tags clans
// @Param clanID path int true "Clan ID"
// @Param userID path int true "User ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /clans/{clanID}/members/{userID} [delete]
func (h *ClanHandler) KickMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	clanID, err := getIDFromURL(r, "clanID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.clanService.KickMember(r.Context(), actor, clanID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Sync godoc
// @Summary Refresh the clan and war cache from the game API
// @Description Returns the new snapshot plus players who joined or left since the previous sync.
// @Tags clans
// @Produce json
// @Param clanID path int true "Clan ID"
// @Success 200 {object} services.SyncResult
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string "Game API failure"
// @Security BearerAuth
// @Router /clans/{clanID}/sync [post]
func (h *ClanHandler) Sync(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	clanID, err := getIDFromURL(r, "clanID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.syncService.Sync(r.Context(), actor, clanID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetSnapshot godoc
// @Summary Cached clan and war document
// @Tags clans
// @Produce json
// @Param clanID path int true "Clan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Never synced"
// @Router /clans/{clanID}/snapshot [get]
func (h *ClanHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	clanID, err := getIDFromURL(r, "clanID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snapshot, err := h.syncService.GetSnapshot(r.Context(), clanID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"snapshot": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
