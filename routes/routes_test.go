package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/brackets"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/clashapi"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/handlers"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/middleware"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories/memory"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/services"
)

const tagAlphabet = "0289PYLQGRJCUV"

func playerTag(i int) string {
	return fmt.Sprintf("#P%c%c", tagAlphabet[i%14], tagAlphabet[(i/14)%14])
}

type testApp struct {
	t      *testing.T
	router chi.Router
	repos  *memory.Repositories
}

func newTestApp(t *testing.T, gameURL string) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := memory.New()
	hub := brackets.NewHub(logger)
	game := clashapi.NewClient(gameURL, "test-token")
	generator := brackets.NewSingleEliminationGenerator(rand.New(rand.NewSource(7)))

	authService := services.NewAuthService(repos.Users)
	tournamentService := services.NewTournamentService(repos.Tournaments, repos.Clans, nil, hub, logger)
	tokens := middleware.NewTokenIssuer("test-secret", middleware.DefaultTokenTTL)

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Auth:        handlers.NewAuthHandler(authService, tokens, false),
		User:        handlers.NewUserHandler(services.NewUserService(repos.Users, nil, logger)),
		Clan:        handlers.NewClanHandler(services.NewClanService(repos.Tx, repos.Clans, repos.Users, game, nil, logger), services.NewClanSyncService(repos.Tx, repos.Clans, repos.Snapshots, game, logger)),
		JoinRequest: handlers.NewJoinRequestHandler(services.NewJoinRequestService(repos.Tx, repos.JoinRequests, repos.Clans, logger)),
		Tournament:  handlers.NewTournamentHandler(tournamentService),
		Participant: handlers.NewParticipantHandler(services.NewParticipantService(repos.Tx, repos.Tournaments, repos.Teams, logger)),
		Bracket:     handlers.NewBracketHandler(services.NewBracketService(repos.Tx, repos.Tournaments, repos.Teams, repos.Matches, generator, nil, hub, logger)),
		Match:       handlers.NewMatchHandler(services.NewMatchService(repos.Tx, repos.Tournaments, repos.Teams, repos.Matches, hub, logger)),
		Post:        handlers.NewPostHandler(services.NewPostService(repos.Posts, logger)),
		WebSocket:   handlers.NewWebSocketHandler(hub, tournamentService, []string{"*"}, logger),
	}, middleware.NewAuthenticator(tokens, authService, logger), []string{"*"})

	return &testApp{t: t, router: router, repos: repos}
}

func (a *testApp) do(method, path string, body interface{}, token string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, map[string]interface{}) {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(js)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

// signUp registers and logs in a user, returning the user id and bearer token.
func (a *testApp) signUp(name string, role models.UserRole) (int, string) {
	a.t.Helper()

	email := name + "@example.com"
	rec, body := a.do(http.MethodPost, "/auth/register", map[string]string{
		"email": email, "password": "correct-horse", "display_name": name,
	}, "")
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	userID := int(body["user"].(map[string]interface{})["id"].(float64))

	if role != models.RolePlayer {
		user, err := a.repos.Users.GetByID(context.Background(), userID)
		require.NoError(a.t, err)
		user.Role = role
		require.NoError(a.t, a.repos.Users.Update(context.Background(), user))
	}

	rec, body = a.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "correct-horse"}, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return userID, body["token"].(string)
}

func idOf(t *testing.T, body map[string]interface{}, key string) int {
	t.Helper()
	obj, ok := body[key].(map[string]interface{})
	require.True(t, ok, "missing %q in %v", key, body)
	return int(obj["id"].(float64))
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")

	rec, _ := app.do(http.MethodPost, "/auth/register", map[string]string{
		"email": "short@example.com", "password": "short", "display_name": "Short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	userID, token := app.signUp("chief", models.RolePlayer)

	rec, _ = app.do(http.MethodPost, "/auth/register", map[string]string{
		"email": "chief@example.com", "password": "another-password", "display_name": "Dup",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = app.do(http.MethodPost, "/auth/login", map[string]string{"email": "chief@example.com", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := app.do(http.MethodGet, "/users/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, idOf(t, body, "user"))

	rec, _ = app.do(http.MethodGet, "/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := &http.Cookie{Name: middleware.SessionCookieName, Value: middleware.SessionCookieValue(userID)}
	rec, body = app.do(http.MethodGet, "/users/me", nil, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, idOf(t, body, "user"))

	unknown := &http.Cookie{Name: middleware.SessionCookieName, Value: middleware.SessionCookieValue(999)}
	rec, _ = app.do(http.MethodGet, "/users/me", nil, "", unknown)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = app.do(http.MethodPatch, "/users/me", map[string]interface{}{"player_tag": "p0o", "town_hall_level": 15}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "#P00", body["user"].(map[string]interface{})["player_tag"])

	profile := fmt.Sprintf("/users/%d", userID)
	rec, body = app.do(http.MethodGet, profile, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["user"].(map[string]interface{})["email"])
	rec, body = app.do(http.MethodGet, profile, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chief@example.com", body["user"].(map[string]interface{})["email"])

	rec, _ = app.do(http.MethodPost, "/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, middleware.SessionCookieName, cleared[0].Name)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")
	userID, _ := app.signUp("cookie", models.RolePlayer)

	rec, body := app.do(http.MethodPost, "/auth/login", map[string]string{"email": "cookie@example.com", "password": "correct-horse"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["token"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookieValue(userID), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestRoleGuards(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")
	playerID, player := app.signUp("player", models.RolePlayer)
	_, admin := app.signUp("admin", models.RoleAdmin)

	create := map[string]interface{}{"title": "Cup", "participant_count": 4, "team_size": 5}

	rec, _ := app.do(http.MethodPost, "/tournaments", create, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = app.do(http.MethodPost, "/tournaments", create, player)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = app.do(http.MethodPatch, fmt.Sprintf("/users/%d/role", playerID), map[string]string{"role": "organizer"}, player)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := app.do(http.MethodPatch, fmt.Sprintf("/users/%d/role", playerID), map[string]string{"role": "organizer"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "organizer", body["user"].(map[string]interface{})["role"])

	// Tokens carry the role they were issued with.
	rec, _ = app.do(http.MethodPost, "/tournaments", create, player)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = app.do(http.MethodPost, "/auth/login", map[string]string{"email": "player@example.com", "password": "correct-horse"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	promoted := body["token"].(string)

	rec, body = app.do(http.MethodPost, "/tournaments", create, promoted)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "draft", body["tournament"].(map[string]interface{})["status"])
}

func TestTournamentLifecycle_UnderQuota(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")
	_, organizer := app.signUp("organizer", models.RoleOrganizer)

	rec, body := app.do(http.MethodPost, "/tournaments", map[string]interface{}{
		"title": "Spring War Cup", "participant_count": 8, "team_size": 1,
	}, organizer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tournamentID := idOf(t, body, "tournament")
	base := fmt.Sprintf("/tournaments/%d", tournamentID)

	rec, _ = app.do(http.MethodPatch, base+"/status", map[string]string{"status": "registration_open"}, organizer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	teamIDs := make([]int, 0, 8)
	captains := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		_, captain := app.signUp(fmt.Sprintf("captain%d", i), models.RolePlayer)
		rec, body = app.do(http.MethodPost, base+"/teams", map[string]interface{}{
			"name":   fmt.Sprintf("Team %d", i),
			"roster": []map[string]interface{}{{"player_tag": playerTag(i), "name": "Player", "town_hall_level": 14}},
		}, captain)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		teamIDs = append(teamIDs, idOf(t, body, "team"))
		captains = append(captains, captain)
	}

	_, late := app.signUp("late", models.RolePlayer)
	rec, _ = app.do(http.MethodPost, base+"/teams", map[string]interface{}{
		"name":   "Late",
		"roster": []map[string]interface{}{{"player_tag": playerTag(20), "name": "Player", "town_hall_level": 14}},
	}, late)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for i, id := range teamIDs {
		status := "approved"
		if i >= 6 {
			status = "rejected"
		}
		rec, _ = app.do(http.MethodPatch, fmt.Sprintf("%s/teams/%d/status", base, id), map[string]string{"status": status}, organizer)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec, _ = app.do(http.MethodPatch, fmt.Sprintf("%s/teams/%d/status", base, teamIDs[0]), map[string]string{"status": "rejected"}, organizer)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = app.do(http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 6, body["tournament"].(map[string]interface{})["participant_count_current"])

	rec, _ = app.do(http.MethodPost, base+"/bracket", map[string]bool{"under_quota": true}, organizer)
	assert.Equal(t, http.StatusConflict, rec.Code, "bracket needs closed registration")

	rec, _ = app.do(http.MethodPatch, base+"/status", map[string]string{"status": "registration_closed"}, organizer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = app.do(http.MethodPost, base+"/bracket", map[string]bool{"under_quota": true}, captains[0])
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = app.do(http.MethodPost, base+"/bracket", nil, organizer)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.EqualValues(t, 6, body["approved"])
	assert.EqualValues(t, 8, body["capacity"])
	assert.Contains(t, body["error"], "quota not met")

	rec, body = app.do(http.MethodPost, base+"/bracket", map[string]bool{"under_quota": true}, organizer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rounds := body["rounds"].([]interface{})
	require.Len(t, rounds, 3)
	first := rounds[0].([]interface{})
	require.Len(t, first, 4)

	byes := 0
	var playable map[string]interface{}
	for _, raw := range first {
		m := raw.(map[string]interface{})
		if m["is_bye"] == true {
			byes++
			assert.Equal(t, "completed", m["status"])
			assert.NotNil(t, m["winner_team_id"])
		} else if playable == nil {
			playable = m
		}
	}
	assert.Equal(t, 2, byes)
	require.NotNil(t, playable)

	rec, _ = app.do(http.MethodPost, base+"/bracket", map[string]bool{"under_quota": true}, organizer)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = app.do(http.MethodGet, base+"/bracket", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["teams"].([]interface{}), 6)
	assert.Equal(t, "ongoing", body["tournament"].(map[string]interface{})["status"])

	matchPath := fmt.Sprintf("%s/matches/%s", base, playable["id"])
	winner := playable["team1_id"]
	loser := playable["team2_id"]

	rec, _ = app.do(http.MethodPost, matchPath+"/winner", map[string]interface{}{"winner_team_id": 424242}, organizer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = app.do(http.MethodPost, matchPath+"/winner", map[string]interface{}{"winner_team_id": winner}, organizer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "completed", body["match"].(map[string]interface{})["status"])
	next := body["next_match"].(map[string]interface{})
	assert.True(t, next["team1_id"] == winner || next["team2_id"] == winner)

	rec, _ = app.do(http.MethodPost, matchPath+"/winner", map[string]interface{}{"winner_team_id": winner}, organizer)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = app.do(http.MethodPost, matchPath+"/winner", map[string]interface{}{"winner_team_id": loser}, organizer)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = app.do(http.MethodGet, base+"/matches/bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = app.do(http.MethodGet, base+"/matches/R9M9", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func newGameServer(t *testing.T, leaderTag string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/clans/#2PP":
			_, _ = fmt.Fprintf(w, `{"tag":"#2PP","name":"Northern Lights","badgeUrls":{"medium":"m.png"},
				"memberList":[{"tag":%q,"name":"Chief","role":"leader","townHallLevel":15},
				              {"tag":"#Q2","name":"Scout","role":"member","townHallLevel":11}]}`, leaderTag)
		case "/clans/#2PP/currentwar":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"reason":"accessDenied","message":"war log is private"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"reason":"notFound"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClanFlow(t *testing.T) {
	game := newGameServer(t, "#P00")
	app := newTestApp(t, game.URL)

	leaderID, leader := app.signUp("leader", models.RolePlayer)
	recruitID, recruit := app.signUp("recruit", models.RolePlayer)

	rec, _ := app.do(http.MethodPost, "/clans", map[string]string{"tag": "#2PP"}, leader)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "player tag required")

	rec, _ = app.do(http.MethodPatch, "/users/me", map[string]string{"player_tag": "#P00"}, leader)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = app.do(http.MethodPatch, "/users/me", map[string]string{"player_tag": "#P02"}, recruit)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = app.do(http.MethodPost, "/clans", map[string]string{"tag": "#2PP"}, recruit)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := app.do(http.MethodPost, "/clans", map[string]string{"tag": "2pp"}, leader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	clanID := idOf(t, body, "clan")
	clanPath := fmt.Sprintf("/clans/%d", clanID)

	rec, _ = app.do(http.MethodPost, "/clans", map[string]string{"tag": "#2PP"}, leader)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = app.do(http.MethodPost, "/clans", map[string]string{"tag": "#9YY"}, leader)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = app.do(http.MethodPost, clanPath+"/join-requests", map[string]string{"message": "TH11, active"}, recruit)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	requestID := idOf(t, body, "join_request")

	rec, _ = app.do(http.MethodPost, clanPath+"/join-requests", map[string]string{"message": "again"}, recruit)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = app.do(http.MethodGet, clanPath+"/join-requests?status=pending", nil, recruit)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = app.do(http.MethodGet, clanPath+"/join-requests?status=pending", nil, leader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["join_requests"].([]interface{}), 1)

	rec, _ = app.do(http.MethodPost, fmt.Sprintf("/join-requests/%d/approve", requestID), nil, leader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = app.do(http.MethodPost, fmt.Sprintf("/join-requests/%d/reject", requestID), nil, leader)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = app.do(http.MethodGet, clanPath, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["clan"].(map[string]interface{})["members"].([]interface{}), 2)

	rec, _ = app.do(http.MethodPatch, fmt.Sprintf("%s/members/%d/role", clanPath, recruitID), map[string]string{"role": "leader"}, leader)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = app.do(http.MethodPatch, fmt.Sprintf("%s/members/%d/role", clanPath, leaderID), map[string]string{"role": "elder"}, leader)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = app.do(http.MethodPatch, fmt.Sprintf("%s/members/%d/role", clanPath, recruitID), map[string]string{"role": "elder"}, leader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "elder", body["member"].(map[string]interface{})["role"])

	rec, _ = app.do(http.MethodGet, clanPath+"/snapshot", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = app.do(http.MethodPost, clanPath+"/sync", nil, recruit)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, body["joined"].([]interface{}), 2)

	rec, _ = app.do(http.MethodGet, clanPath+"/snapshot", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = app.do(http.MethodDelete, fmt.Sprintf("%s/members/%d", clanPath, recruitID), nil, leader)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = app.do(http.MethodPost, clanPath+"/sync", nil, recruit)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClanSync_GameAPIDown(t *testing.T) {
	game := newGameServer(t, "#P00")
	app := newTestApp(t, game.URL)

	_, leader := app.signUp("leader", models.RolePlayer)
	rec, _ := app.do(http.MethodPatch, "/users/me", map[string]string{"player_tag": "#P00"}, leader)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body := app.do(http.MethodPost, "/clans", map[string]string{"tag": "#2PP"}, leader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	clanID := idOf(t, body, "clan")

	game.Close()

	rec, _ = app.do(http.MethodPost, fmt.Sprintf("/clans/%d/sync", clanID), nil, leader)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPosts(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")
	_, author := app.signUp("author", models.RolePlayer)
	_, other := app.signUp("other", models.RolePlayer)

	post := map[string]string{"title": "Queen Walk Basics", "body": "Start on the flank.", "category": "Attack Strategies"}

	rec, _ := app.do(http.MethodPost, "/posts", post, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := app.do(http.MethodPost, "/posts", post, author)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "queen-walk-basics", body["post"].(map[string]interface{})["slug"])

	rec, body = app.do(http.MethodPost, "/posts", post, other)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "queen-walk-basics-2", body["post"].(map[string]interface{})["slug"])

	rec, body = app.do(http.MethodGet, "/posts?category=attack-strategies&limit=10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["posts"].([]interface{}), 2)

	rec, _ = app.do(http.MethodGet, "/posts?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = app.do(http.MethodDelete, "/posts/queen-walk-basics", nil, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = app.do(http.MethodDelete, "/posts/queen-walk-basics", nil, author)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = app.do(http.MethodGet, "/posts/queen-walk-basics", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadsDisabled(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")
	_, token := app.signUp("avatar", models.RolePlayer)

	var buf bytes.Buffer
	boundary := "xxBOUNDARYxx"
	fmt.Fprintf(&buf, "--%s\r\nContent-Disposition: form-data; name=\"avatar\"; filename=\"a.png\"\r\nContent-Type: image/png\r\n\r\n\x89PNG\r\n--%s--\r\n", boundary, boundary)

	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", &buf)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
}

func TestSwaggerAndWebsocketRoutes(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:0")

	rec, _ := app.do(http.MethodGet, "/swagger/doc.json", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = app.do(http.MethodGet, "/ws/tournaments/42", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = app.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
