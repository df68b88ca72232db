package clashapi

import "encoding/json"

// In-game member roles as reported by the API.
const (
	RoleLeader   = "leader"
	RoleCoLeader = "coLeader"
	RoleElder    = "admin"
	RoleMember   = "member"
)

type BadgeURLs struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type ClanMember struct {
	Tag           string `json:"tag"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	ExpLevel      int    `json:"expLevel"`
	TownHallLevel int    `json:"townHallLevel"`
	Trophies      int    `json:"trophies"`
	Donations     int    `json:"donations"`
}

type Clan struct {
	Tag        string       `json:"tag"`
	Name       string       `json:"name"`
	Type       string       `json:"type"`
	ClanLevel  int          `json:"clanLevel"`
	Members    int          `json:"members"`
	BadgeURLs  BadgeURLs    `json:"badgeUrls"`
	MemberList []ClanMember `json:"memberList"`
}

// Member returns the roster entry for tag, or nil.
func (c *Clan) Member(tag string) *ClanMember {
	for i := range c.MemberList {
		if c.MemberList[i].Tag == tag {
			return &c.MemberList[i]
		}
	}
	return nil
}

type WarClan struct {
	Tag                   string  `json:"tag"`
	Name                  string  `json:"name"`
	Stars                 int     `json:"stars"`
	Attacks               int     `json:"attacks"`
	DestructionPercentage float64 `json:"destructionPercentage"`
}

// War is the current war of a clan. Raw keeps the full document for caching.
type War struct {
	State     string  `json:"state"`
	TeamSize  int     `json:"teamSize"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Clan      WarClan `json:"clan"`
	Opponent  WarClan `json:"opponent"`

	Raw json.RawMessage `json:"-"`
}

type PlayerClan struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

type Player struct {
	Tag           string      `json:"tag"`
	Name          string      `json:"name"`
	TownHallLevel int         `json:"townHallLevel"`
	ExpLevel      int         `json:"expLevel"`
	Role          string      `json:"role,omitempty"`
	Clan          *PlayerClan `json:"clan,omitempty"`
}
