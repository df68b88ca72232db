package models

import (
	"encoding/json"
	"time"
)

type ClanRole string

const (
	ClanRoleLeader   ClanRole = "leader"
	ClanRoleCoLeader ClanRole = "co_leader"
	ClanRoleElder    ClanRole = "elder"
	ClanRoleMember   ClanRole = "member"
)

// Rank orders clan roles, higher is more senior. Unknown roles rank 0.
func (r ClanRole) Rank() int {
	switch r {
	case ClanRoleLeader:
		return 4
	case ClanRoleCoLeader:
		return 3
	case ClanRoleElder:
		return 2
	case ClanRoleMember:
		return 1
	default:
		return 0
	}
}

func (r ClanRole) Valid() bool {
	return r.Rank() > 0
}

// Clan is a managed clan: an in-game clan whose leadership linked it to the platform.
type Clan struct {
	ID         int        `json:"id" db:"id"`
	Tag        string     `json:"tag" db:"tag"`
	Name       string     `json:"name" db:"name"`
	BadgeURL   *string    `json:"badge_url,omitempty" db:"badge_url"`
	OwnerID    int        `json:"owner_id" db:"owner_id"`
	Verified   bool       `json:"verified" db:"verified"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty" db:"last_sync_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`

	Members []ClanMember `json:"members,omitempty" db:"-"`
}

type ClanMember struct {
	ClanID   int       `json:"clan_id" db:"clan_id"`
	UserID   int       `json:"user_id" db:"user_id"`
	Role     ClanRole  `json:"role" db:"role"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest is a player's application to join a clan's platform roster.
type JoinRequest struct {
	ID          int               `json:"id" db:"id"`
	ClanID      int               `json:"clan_id" db:"clan_id"`
	UserID      int               `json:"user_id" db:"user_id"`
	Message     *string           `json:"message,omitempty" db:"message"`
	Status      JoinRequestStatus `json:"status" db:"status"`
	ProcessedBy *int              `json:"processed_by,omitempty" db:"processed_by"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}

// ClanSnapshot is the cached copy of the clan roster and war state pulled from the game API.
// Members and War hold the raw API documents.
type ClanSnapshot struct {
	ClanID   int             `json:"clan_id" db:"clan_id"`
	Members  json.RawMessage `json:"members" db:"members"`
	War      json.RawMessage `json:"war,omitempty" db:"war"`
	SyncedAt time.Time       `json:"synced_at" db:"synced_at"`
}
