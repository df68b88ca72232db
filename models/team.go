package models

import "time"

type TeamStatus string

const (
	TeamPending  TeamStatus = "pending"
	TeamApproved TeamStatus = "approved"
	TeamRejected TeamStatus = "rejected"
)

// RosterEntry is a snapshot of one player at registration time.
type RosterEntry struct {
	PlayerTag     string `json:"player_tag"`
	Name          string `json:"name"`
	TownHallLevel int    `json:"town_hall_level"`
}

// TournamentTeam is a participant registration scoped to one tournament.
type TournamentTeam struct {
	ID           int           `json:"id" db:"id"`
	TournamentID int           `json:"tournament_id" db:"tournament_id"`
	CaptainID    int           `json:"captain_id" db:"captain_id"`
	Name         string        `json:"name" db:"name"`
	Status       TeamStatus    `json:"status" db:"status"`
	Roster       []RosterEntry `json:"roster" db:"roster"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}
