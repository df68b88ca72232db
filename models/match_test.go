package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMatchID(t *testing.T) {
	tests := []struct {
		id    string
		round int
		slot  int
		ok    bool
	}{
		{"R1M1", 1, 1, true},
		{"R3M4", 3, 4, true},
		{"R10M12", 10, 12, true},
		{"R0M1", 0, 0, false},
		{"R1M0", 0, 0, false},
		{"R01M1", 0, 0, false},
		{"R1M1x", 0, 0, false},
		{"M1R1", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			round, slot, ok := ParseMatchID(tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.round, round)
			assert.Equal(t, tt.slot, slot)
		})
	}
}

func TestTournamentMatchSlots(t *testing.T) {
	a, b := 1, 2
	m := TournamentMatch{Team1ID: &a}
	assert.False(t, m.HasBothTeams())
	assert.True(t, m.Involves(1))
	assert.False(t, m.Involves(2))

	m.Team2ID = &b
	assert.True(t, m.HasBothTeams())
	assert.True(t, m.Involves(2))
}
