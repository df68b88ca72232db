package brackets

import (
	"context"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

type GenerateBracketParams struct {
	TournamentID int
	// Teams are the approved participants; order is irrelevant, the
	// generator shuffles them.
	Teams []models.TournamentTeam
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.TournamentMatch, error)

	GetName() string
}

// BracketSize rounds n up to the next power of two.
func BracketSize(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// RoundCount is the number of rounds of a single elimination bracket of the given size.
func RoundCount(size int) int {
	rounds := 0
	for s := size; s > 1; s >>= 1 {
		rounds++
	}
	return rounds
}
