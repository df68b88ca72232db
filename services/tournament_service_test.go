package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/brackets"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

func TestCreateTournament_Validation(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, models.RoleOrganizer)
	player := f.user(t, models.RolePlayer)
	svc := f.tournaments()
	ctx := context.Background()
	opens := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	closes := opens.Add(48 * time.Hour)
	clanID := 777

	tests := []struct {
		name  string
		actor *models.User
		input CreateTournamentInput
		want  error
	}{
		{"players cannot organise", player, CreateTournamentInput{Title: "A", ParticipantCount: 8, TeamSize: 5}, ErrForbiddenOperation},
		{"title required", organizer, CreateTournamentInput{Title: "  ", ParticipantCount: 8, TeamSize: 5}, ErrTournamentTitleRequired},
		{"capacity too small", organizer, CreateTournamentInput{Title: "A", ParticipantCount: 1, TeamSize: 5}, ErrTournamentInvalidCapacity},
		{"capacity too large", organizer, CreateTournamentInput{Title: "A", ParticipantCount: 257, TeamSize: 5}, ErrTournamentInvalidCapacity},
		{"team size", organizer, CreateTournamentInput{Title: "A", ParticipantCount: 8, TeamSize: 0}, ErrTournamentInvalidTeamSize},
		{"window reversed", organizer, CreateTournamentInput{Title: "A", ParticipantCount: 8, TeamSize: 5, RegistrationOpensAt: &closes, RegistrationClosesAt: &opens}, ErrTournamentInvalidDates},
		{"unknown clan", organizer, CreateTournamentInput{Title: "A", ParticipantCount: 8, TeamSize: 5, ClanID: &clanID}, ErrClanNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, actorOf(tt.actor), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	created, err := svc.Create(ctx, actorOf(organizer), CreateTournamentInput{
		Title: " Clan War League Warmup ", ParticipantCount: 16, TeamSize: 15,
		RegistrationOpensAt: &opens, RegistrationClosesAt: &closes,
	})
	require.NoError(t, err)
	assert.Equal(t, "Clan War League Warmup", created.Title)
	assert.Equal(t, models.TournamentDraft, created.Status)
	assert.Equal(t, 0, created.ParticipantCountCurrent)
	assert.Equal(t, organizer.ID, created.OrganizerID)
}

func TestUpdateTournamentStatus_Transitions(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, models.RoleOrganizer)
	other := f.user(t, models.RoleOrganizer)
	admin := f.user(t, models.RoleAdmin)
	svc := f.tournaments()
	ctx := context.Background()

	tournament, err := svc.Create(ctx, actorOf(organizer), CreateTournamentInput{Title: "Cup", ParticipantCount: 4, TeamSize: 5})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, actorOf(other), tournament.ID, models.TournamentRegistrationOpen)
	assert.ErrorIs(t, err, ErrNotOrganizer)
	_, err = svc.UpdateStatus(ctx, actorOf(organizer), tournament.ID, "paused")
	assert.ErrorIs(t, err, ErrTournamentInvalidStatus)
	_, err = svc.UpdateStatus(ctx, actorOf(organizer), tournament.ID, models.TournamentOngoing)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition, "ongoing is entered only through bracket generation")

	steps := []models.TournamentStatus{
		models.TournamentRegistrationOpen,
		models.TournamentRegistrationClosed,
		models.TournamentRegistrationOpen,
		models.TournamentRegistrationClosed,
	}
	for _, next := range steps {
		updated, err := svc.UpdateStatus(ctx, actorOf(organizer), tournament.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	cancelled, err := svc.UpdateStatus(ctx, actorOf(admin), tournament.ID, models.TournamentCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentCancelled, cancelled.Status)

	_, err = svc.UpdateStatus(ctx, actorOf(organizer), tournament.ID, models.TournamentRegistrationOpen)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)

	assert.Contains(t, f.hub.types(), brackets.MessageTournamentStatus)
}

func TestUpdateTournament(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, models.RoleOrganizer)
	tournament := f.openTournament(t, organizer, 4)
	f.registerTeams(t, tournament.ID, 3)
	svc := f.tournaments()
	ctx := context.Background()

	two := 2
	_, err := svc.Update(ctx, actorOf(organizer), tournament.ID, UpdateTournamentInput{ParticipantCount: &two})
	assert.ErrorIs(t, err, ErrCapacityBelowRegistered)

	eight := 8
	title := "Bigger Cup"
	updated, err := svc.Update(ctx, actorOf(organizer), tournament.ID, UpdateTournamentInput{ParticipantCount: &eight, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.ParticipantCount)
	assert.Equal(t, "Bigger Cup", updated.Title)
	assert.Equal(t, 3, updated.ParticipantCountCurrent)

	_, err = svc.UpdateStatus(ctx, actorOf(organizer), tournament.ID, models.TournamentRegistrationClosed)
	require.NoError(t, err)
	_, err = svc.Update(ctx, actorOf(organizer), tournament.ID, UpdateTournamentInput{Title: &title})
	assert.ErrorIs(t, err, ErrTournamentNotEditable)
}

func TestListTournaments(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, models.RoleOrganizer)
	svc := f.tournaments()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, actorOf(organizer), CreateTournamentInput{Title: "Cup", ParticipantCount: 4, TeamSize: 5})
		require.NoError(t, err)
	}
	f.openTournament(t, organizer, 4)

	all, err := svc.List(ctx, ListTournamentsInput{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	open := models.TournamentRegistrationOpen
	filtered, err := svc.List(ctx, ListTournamentsInput{Status: &open})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	paged, err := svc.List(ctx, ListTournamentsInput{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 2)

	bad := models.TournamentStatus("archived")
	_, err = svc.List(ctx, ListTournamentsInput{Status: &bad})
	assert.ErrorIs(t, err, ErrTournamentInvalidStatus)
}

func TestAutoUpdateStatuses(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, models.RoleOrganizer)
	svc := f.tournaments()
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	soon := now.Add(time.Hour)
	later := now.Add(48 * time.Hour)

	opening, err := svc.Create(ctx, actorOf(organizer), CreateTournamentInput{
		Title: "Opening", ParticipantCount: 4, TeamSize: 5, RegistrationOpensAt: &past, RegistrationClosesAt: &later,
	})
	require.NoError(t, err)
	notYet, err := svc.Create(ctx, actorOf(organizer), CreateTournamentInput{
		Title: "Not yet", ParticipantCount: 4, TeamSize: 5, RegistrationOpensAt: &soon, RegistrationClosesAt: &later,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, actorOf(organizer), CreateTournamentInput{
		Title: "Closing", ParticipantCount: 4, TeamSize: 5, RegistrationOpensAt: &past, RegistrationClosesAt: &past,
	})
	require.ErrorIs(t, err, ErrTournamentInvalidDates, "a window that closes when it opens is invalid")
	closing, err := svc.Create(ctx, actorOf(organizer), CreateTournamentInput{
		Title: "Closing", ParticipantCount: 4, TeamSize: 5, RegistrationClosesAt: &past,
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, actorOf(organizer), closing.ID, models.TournamentRegistrationOpen)
	require.NoError(t, err)

	updated, err := svc.AutoUpdateStatuses(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	expect := map[int]models.TournamentStatus{
		opening.ID: models.TournamentRegistrationOpen,
		notYet.ID:  models.TournamentDraft,
		closing.ID: models.TournamentRegistrationClosed,
	}
	for id, status := range expect {
		stored, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, stored.Status, "tournament %d", id)
	}
}

func TestUploadLogo(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, models.RoleOrganizer)
	ctx := context.Background()

	withoutStorage := f.tournaments()
	tournament, err := withoutStorage.Create(ctx, actorOf(organizer), CreateTournamentInput{Title: "Cup", ParticipantCount: 4, TeamSize: 5})
	require.NoError(t, err)
	_, err = withoutStorage.UploadLogo(ctx, actorOf(organizer), tournament.ID, "image/png", bytes.NewReader([]byte("png")))
	assert.ErrorIs(t, err, ErrUploadsDisabled)

	uploader := newFakeUploader()
	svc := NewTournamentService(f.repos.Tournaments, f.repos.Clans, uploader, f.hub, f.logger)

	_, err = svc.UploadLogo(ctx, actorOf(organizer), tournament.ID, "text/plain", bytes.NewReader([]byte("txt")))
	assert.ErrorIs(t, err, ErrValidationFailed)

	first, err := svc.UploadLogo(ctx, actorOf(organizer), tournament.ID, "image/png", bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	require.NotNil(t, first.LogoURL)
	firstKey := *first.LogoKey

	second, err := svc.UploadLogo(ctx, actorOf(organizer), tournament.ID, "image/jpeg", bytes.NewReader([]byte("two")))
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, *second.LogoKey)

	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	assert.NotContains(t, uploader.objects, firstKey, "previous logo is removed")
	assert.Equal(t, "two", uploader.objects[*second.LogoKey])
}
