package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchReported  MatchStatus = "reported"
	MatchCompleted MatchStatus = "completed"
)

type BracketTag string

const (
	BracketWinners BracketTag = "winners"
	BracketLosers  BracketTag = "losers"
)

// MatchID encodes round and slot, e.g. R2M1.
func MatchID(round, slot int) string {
	return fmt.Sprintf("R%dM%d", round, slot)
}

// ParseMatchID is the inverse of MatchID.
func ParseMatchID(id string) (round, slot int, ok bool) {
	rest, found := strings.CutPrefix(id, "R")
	if !found {
		return 0, 0, false
	}
	roundStr, slotStr, found := strings.Cut(rest, "M")
	if !found {
		return 0, 0, false
	}
	round, err := strconv.Atoi(roundStr)
	if err != nil || round < 1 {
		return 0, 0, false
	}
	slot, err = strconv.Atoi(slotStr)
	if err != nil || slot < 1 || MatchID(round, slot) != id {
		return 0, 0, false
	}
	return round, slot, true
}

// TournamentMatch is one bracket node. A nil team slot in round 1 is a bye;
// in later rounds it is a slot still waiting for a winner.
type TournamentMatch struct {
	ID           string      `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	Slot         int         `json:"slot" db:"slot"`
	Bracket      BracketTag  `json:"bracket" db:"bracket"`
	Team1ID      *int        `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID      *int        `json:"team2_id,omitempty" db:"team2_id"`
	Status       MatchStatus `json:"status" db:"status"`
	WinnerTeamID *int        `json:"winner_team_id,omitempty" db:"winner_team_id"`
	IsBye        bool        `json:"is_bye" db:"is_bye"`
	NextMatchID  *string     `json:"next_match_id,omitempty" db:"next_match_id"`
	NextSlot     *int        `json:"next_slot,omitempty" db:"next_slot"`
	ScheduledAt  *time.Time  `json:"scheduled_at,omitempty" db:"scheduled_at"`
	ReportedBy   *int        `json:"reported_by,omitempty" db:"reported_by"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// HasBothTeams reports whether both slots are filled.
func (m *TournamentMatch) HasBothTeams() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}

// Involves reports whether teamID occupies one of the slots.
func (m *TournamentMatch) Involves(teamID int) bool {
	return (m.Team1ID != nil && *m.Team1ID == teamID) || (m.Team2ID != nil && *m.Team2ID == teamID)
}
