package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/brackets"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

func TestGenerateBracket_UnderQuota(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, models.RoleOrganizer)
	tournament, _, _ := f.readyTournament(t, organizer, 8, 6)
	svc := f.bracketService(7)
	ctx := context.Background()

	_, err := svc.GenerateBracket(ctx, actorOf(organizer), tournament.ID, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaNotMet)
	var quotaErr *QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 6, quotaErr.Approved)
	assert.Equal(t, 8, quotaErr.Capacity)

	count, err := f.repos.Matches.CountByTournament(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "refused generation must not persist matches")

	view, err := svc.GenerateBracket(ctx, actorOf(organizer), tournament.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentOngoing, view.Tournament.Status)
	assert.Len(t, view.Teams, 6)
	require.Len(t, view.Rounds, 3)
	assert.Len(t, view.Rounds[0], 4)
	assert.Len(t, view.Rounds[1], 2)
	assert.Len(t, view.Rounds[2], 1)

	byes := 0
	for _, m := range view.Rounds[0] {
		if m.IsBye {
			byes++
			assert.Equal(t, models.MatchCompleted, m.Status)
			require.NotNil(t, m.WinnerTeamID)
			assert.Equal(t, *m.Team1ID, *m.WinnerTeamID)
		}
	}
	assert.Equal(t, 2, byes)

	stored, err := f.repos.Tournaments.GetByID(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentOngoing, stored.Status)
	assert.Contains(t, f.hub.types(), brackets.MessageBracketGenerated)
}

func TestGenerateBracket_Preconditions(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, models.RoleOrganizer)
	other := f.user(t, models.RoleOrganizer)
	ctx := context.Background()

	open := f.openTournament(t, organizer, 4)
	_, err := f.bracketService(1).GenerateBracket(ctx, actorOf(organizer), open.ID, true)
	assert.ErrorIs(t, err, ErrBracketNotAllowed)

	lonely, _, _ := f.readyTournament(t, organizer, 4, 1)
	_, err = f.bracketService(1).GenerateBracket(ctx, actorOf(organizer), lonely.ID, true)
	assert.ErrorIs(t, err, ErrNotEnoughTeams)

	ready, _, _ := f.readyTournament(t, organizer, 4, 4)
	_, err = f.bracketService(1).GenerateBracket(ctx, actorOf(other), ready.ID, false)
	assert.ErrorIs(t, err, ErrNotOrganizer)

	_, err = f.bracketService(1).GenerateBracket(ctx, actorOf(organizer), ready.ID, false)
	require.NoError(t, err)
	_, err = f.bracketService(1).GenerateBracket(ctx, actorOf(organizer), ready.ID, false)
	assert.ErrorIs(t, err, ErrBracketExists)
}

func TestGenerateBracket_SameSeedSameBracket(t *testing.T) {
	build := func() [][]*models.TournamentMatch {
		f := newFixture(t)
		organizer := f.user(t, models.RoleOrganizer)
		tournament, _, _ := f.readyTournament(t, organizer, 8, 5)
		view, err := f.bracketService(99).GenerateBracket(context.Background(), actorOf(organizer), tournament.ID, true)
		require.NoError(t, err)
		return view.Rounds
	}
	first, second := build(), build()
	require.Len(t, second[0], len(first[0]))
	for i := range first[0] {
		assert.Equal(t, first[0][i].Team1ID, second[0][i].Team1ID)
		assert.Equal(t, first[0][i].Team2ID, second[0][i].Team2ID)
	}
}

func TestGetBracket(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, models.RoleOrganizer)
	tournament, _, _ := f.readyTournament(t, organizer, 4, 3)
	ctx := context.Background()

	_, err := f.bracketService(3).GenerateBracket(ctx, actorOf(organizer), tournament.ID, true)
	require.NoError(t, err)

	view, err := f.bracketService(3).GetBracket(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, view.Tournament.ID)
	assert.Len(t, view.Teams, 3)
	require.Len(t, view.Rounds, 2)
	assert.Len(t, view.Rounds[0], 2)

	final := view.Rounds[1][0]
	filled := 0
	if final.Team1ID != nil {
		filled++
	}
	if final.Team2ID != nil {
		filled++
	}
	assert.Equal(t, 1, filled, "the bye winner already waits in the final")

	_, err = f.bracketService(3).GetBracket(ctx, 12345)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
