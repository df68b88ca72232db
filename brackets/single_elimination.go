package brackets

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

var ErrNotEnoughTeams = errors.New("at least two approved teams are required to generate a bracket")

// SingleEliminationGenerator builds the complete bracket tree up front.
// Every match links to its successor through NextMatchID and NextSlot, and
// byes are resolved immediately.
type SingleEliminationGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewSingleEliminationGenerator(rng *rand.Rand) *SingleEliminationGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SingleEliminationGenerator{rng: rng, now: time.Now}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) shuffle(teams []models.TournamentTeam) []int {
	ids := make([]int, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	g.mu.Lock()
	g.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	g.mu.Unlock()
	return ids
}

// byeSlots picks which first-round matches receive a bye. Byes land in
// distinct matches spread evenly across the round.
func byeSlots(byes, firstRoundMatches int) map[int]bool {
	slots := make(map[int]bool, byes)
	for i := 0; i < byes; i++ {
		slots[i*firstRoundMatches/byes] = true
	}
	return slots
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.TournamentMatch, error) {
	n := len(params.Teams)
	if n < 2 {
		return nil, ErrNotEnoughTeams
	}

	size := BracketSize(n)
	rounds := RoundCount(size)
	firstRound := size / 2
	byes := size - n

	order := g.shuffle(params.Teams)
	completedAt := g.now().UTC()

	matches := make([]*models.TournamentMatch, 0, size-1)
	byID := make(map[string]*models.TournamentMatch, size-1)

	for r := 1; r <= rounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		perRound := size >> r
		for m := 1; m <= perRound; m++ {
			match := &models.TournamentMatch{
				ID:           models.MatchID(r, m),
				TournamentID: params.TournamentID,
				Round:        r,
				Slot:         m,
				Bracket:      models.BracketWinners,
				Status:       models.MatchPending,
			}
			if r < rounds {
				next := models.MatchID(r+1, (m+1)/2)
				slot := 1
				if m%2 == 0 {
					slot = 2
				}
				match.NextMatchID = &next
				match.NextSlot = &slot
			}
			matches = append(matches, match)
			byID[match.ID] = match
		}
	}

	withBye := byeSlots(byes, firstRound)
	next := 0
	take := func() *int {
		id := order[next]
		next++
		return &id
	}
	for m := 0; m < firstRound; m++ {
		match := byID[models.MatchID(1, m+1)]
		match.Team1ID = take()
		if withBye[m] {
			match.IsBye = true
			match.Status = models.MatchCompleted
			match.WinnerTeamID = match.Team1ID
			match.CompletedAt = &completedAt
			continue
		}
		match.Team2ID = take()
	}
	if next != n {
		return nil, fmt.Errorf("internal error: placed %d of %d teams", next, n)
	}

	for _, match := range matches {
		if match.IsBye {
			if err := PlaceWinner(byID[*match.NextMatchID], *match.NextSlot, *match.WinnerTeamID); err != nil {
				return nil, err
			}
		}
	}

	return matches, nil
}

// PlaceWinner puts teamID into slot (1 or 2) of the successor match.
func PlaceWinner(next *models.TournamentMatch, slot int, teamID int) error {
	if next == nil {
		return errors.New("successor match is missing")
	}
	id := teamID
	switch slot {
	case 1:
		next.Team1ID = &id
	case 2:
		next.Team2ID = &id
	default:
		return fmt.Errorf("invalid slot %d for match %s", slot, next.ID)
	}
	return nil
}
