package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/brackets"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/clashapi"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories/memory"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/storage"
)

const testTagAlphabet = "0289PYLQGRJCUV"

// tagFor returns a distinct valid player tag for every i below 14^3.
func tagFor(i int) string {
	a := testTagAlphabet
	return fmt.Sprintf("#P%c%c%c", a[i%14], a[(i/14)%14], a[(i/196)%14])
}

type recordingHub struct {
	mu       sync.Mutex
	messages []brackets.WebSocketMessage
}

func (h *recordingHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if msg, ok := message.(brackets.WebSocketMessage); ok {
		h.messages = append(h.messages, msg)
	}
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.messages))
	for _, m := range h.messages {
		out = append(out, m.Type)
	}
	return out
}

type fakeGame struct {
	mu      sync.Mutex
	clan    *clashapi.Clan
	war     *clashapi.War
	clanErr error
	warErr  error
}

func (g *fakeGame) GetClan(_ context.Context, tag string) (*clashapi.Clan, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clanErr != nil {
		return nil, g.clanErr
	}
	c := *g.clan
	return &c, nil
}

func (g *fakeGame) GetCurrentWar(_ context.Context, tag string) (*clashapi.War, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.warErr != nil {
		return nil, g.warErr
	}
	return g.war, nil
}

func (g *fakeGame) GetPlayer(_ context.Context, tag string) (*clashapi.Player, error) {
	return &clashapi.Player{Tag: tag, Name: "player"}, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string]string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string]string{}}
}

func (u *fakeUploader) Upload(_ context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = string(data)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fixture struct {
	repos  *memory.Repositories
	hub    *recordingHub
	logger *slog.Logger
	nextID int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		repos:  memory.New(),
		hub:    &recordingHub{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (f *fixture) user(t *testing.T, role models.UserRole) *models.User {
	t.Helper()
	f.nextID++
	u := &models.User{
		Email:        fmt.Sprintf("user%d@example.com", f.nextID),
		DisplayName:  fmt.Sprintf("User %d", f.nextID),
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return u
}

func actorOf(u *models.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

func (f *fixture) tournaments() TournamentService {
	return NewTournamentService(f.repos.Tournaments, f.repos.Clans, nil, f.hub, f.logger)
}

func (f *fixture) participants() ParticipantService {
	return NewParticipantService(f.repos.Tx, f.repos.Tournaments, f.repos.Teams, f.logger)
}

func (f *fixture) bracketService(seed int64) BracketService {
	gen := brackets.NewSingleEliminationGenerator(rand.New(rand.NewSource(seed)))
	return NewBracketService(f.repos.Tx, f.repos.Tournaments, f.repos.Teams, f.repos.Matches, gen, nil, f.hub, f.logger)
}

func (f *fixture) matches() MatchService {
	return NewMatchService(f.repos.Tx, f.repos.Tournaments, f.repos.Teams, f.repos.Matches, f.hub, f.logger)
}

// openTournament creates a tournament with open registration.
func (f *fixture) openTournament(t *testing.T, organizer *models.User, capacity int) *models.Tournament {
	t.Helper()
	ctx := context.Background()
	tournament, err := f.tournaments().Create(ctx, actorOf(organizer), CreateTournamentInput{
		Title:            "Weekend Cup",
		ParticipantCount: capacity,
		TeamSize:         5,
	})
	require.NoError(t, err)
	tournament, err = f.tournaments().UpdateStatus(ctx, actorOf(organizer), tournament.ID, models.TournamentRegistrationOpen)
	require.NoError(t, err)
	return tournament
}

func roster(start int) []models.RosterEntry {
	return []models.RosterEntry{
		{PlayerTag: tagFor(start), Name: "Alpha", TownHallLevel: 15},
		{PlayerTag: tagFor(start + 1), Name: "Bravo", TownHallLevel: 14},
	}
}

// registerTeams registers n teams with distinct captains and returns them with their captains.
func (f *fixture) registerTeams(t *testing.T, tournamentID, n int) ([]*models.TournamentTeam, []*models.User) {
	t.Helper()
	teams := make([]*models.TournamentTeam, 0, n)
	captains := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		captain := f.user(t, models.RolePlayer)
		team, err := f.participants().RegisterTeam(context.Background(), actorOf(captain), tournamentID, RegisterTeamInput{
			Name:   fmt.Sprintf("Team %d", i+1),
			Roster: roster(i * 2),
		})
		require.NoError(t, err)
		teams = append(teams, team)
		captains = append(captains, captain)
	}
	return teams, captains
}

// readyTournament opens a tournament, approves n teams and closes registration.
func (f *fixture) readyTournament(t *testing.T, organizer *models.User, capacity, approved int) (*models.Tournament, []*models.TournamentTeam, []*models.User) {
	t.Helper()
	ctx := context.Background()
	tournament := f.openTournament(t, organizer, capacity)
	teams, captains := f.registerTeams(t, tournament.ID, approved)
	for _, team := range teams {
		_, err := f.participants().UpdateTeamStatus(ctx, actorOf(organizer), tournament.ID, team.ID, models.TeamApproved)
		require.NoError(t, err)
	}
	tournament, err := f.tournaments().UpdateStatus(ctx, actorOf(organizer), tournament.ID, models.TournamentRegistrationClosed)
	require.NoError(t, err)
	return tournament, teams, captains
}
