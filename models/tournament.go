package models

import "time"

// TournamentStatus mirrors the tournament_status enum in the database.
type TournamentStatus string

const (
	TournamentDraft              TournamentStatus = "draft"
	TournamentRegistrationOpen   TournamentStatus = "registration_open"
	TournamentRegistrationClosed TournamentStatus = "registration_closed"
	TournamentOngoing            TournamentStatus = "ongoing"
	TournamentCompleted          TournamentStatus = "completed"
	TournamentCancelled          TournamentStatus = "cancelled"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentDraft, TournamentRegistrationOpen, TournamentRegistrationClosed,
		TournamentOngoing, TournamentCompleted, TournamentCancelled:
		return true
	}
	return false
}

// Tournament holds metadata, capacity and the running registration counter.
// ParticipantCountCurrent never exceeds ParticipantCount.
type Tournament struct {
	ID                      int              `json:"id" db:"id"`
	Title                   string           `json:"title" db:"title"`
	Description             *string          `json:"description,omitempty" db:"description"`
	OrganizerID             int              `json:"organizer_id" db:"organizer_id"`
	ClanID                  *int             `json:"clan_id,omitempty" db:"clan_id"`
	Status                  TournamentStatus `json:"status" db:"status"`
	ParticipantCount        int              `json:"participant_count" db:"participant_count"`
	ParticipantCountCurrent int              `json:"participant_count_current" db:"participant_count_current"`
	TeamSize                int              `json:"team_size" db:"team_size"`
	RegistrationOpensAt     *time.Time       `json:"registration_opens_at,omitempty" db:"registration_opens_at"`
	RegistrationClosesAt    *time.Time       `json:"registration_closes_at,omitempty" db:"registration_closes_at"`
	StartsAt                *time.Time       `json:"starts_at,omitempty" db:"starts_at"`
	WinnerTeamID            *int             `json:"winner_team_id,omitempty" db:"winner_team_id"`
	CreatedAt               time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at" db:"updated_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

// HasCapacity reports whether one more team can register.
func (t *Tournament) HasCapacity() bool {
	return t.ParticipantCountCurrent < t.ParticipantCount
}
