package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

type stubSessions map[int]*models.User

func (s stubSessions) ResolveSession(_ context.Context, userID int) (*models.User, error) {
	if u, ok := s[userID]; ok {
		return u, nil
	}
	return nil, errors.New("unknown user")
}

func newTestAuthenticator() (*Authenticator, *TokenIssuer) {
	tokens := NewTokenIssuer("test-secret", time.Hour)
	sessions := stubSessions{7: {ID: 7, Role: models.RoleOrganizer}}
	return NewAuthenticator(tokens, sessions, slog.New(slog.NewTextHandler(io.Discard, nil))), tokens
}

func echoIdentity(t *testing.T, got *Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if ok {
			*got = id
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenIssuer("secret", time.Hour)
	signed, expires, err := tokens.Issue(42, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	id, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, 42, id.UserID)
	assert.Equal(t, models.RoleAdmin, id.Role)
	assert.Equal(t, SourceToken, id.Source)

	_, err = NewTokenIssuer("other-secret", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejected(t *testing.T) {
	tokens := NewTokenIssuer("secret", time.Hour)

	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := tokens.Issue(1, models.RolePlayer)
	require.NoError(t, err)
	tokens.now = time.Now
	_, err = tokens.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badRole := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1, "role": "root", "exp": time.Now().Add(time.Hour).Unix()})
	signed, err := badRole.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	stringID := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "9", "role": "player", "exp": time.Now().Add(time.Hour).Unix()})
	signed, err = stringID.SignedString([]byte("secret"))
	require.NoError(t, err)
	id, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, 9, id.UserID)
}

func TestAuthenticate(t *testing.T) {
	auth, tokens := newTestAuthenticator()
	bearer, _, err := tokens.Issue(3, models.RolePlayer)
	require.NoError(t, err)

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		wantCode int
		wantUser int
		wantRole models.UserRole
	}{
		{"no credentials", func(r *http.Request) {}, http.StatusUnauthorized, 0, ""},
		{"bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+bearer) }, http.StatusNoContent, 3, models.RolePlayer},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }, http.StatusUnauthorized, 0, ""},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc.def.ghi") }, http.StatusUnauthorized, 0, ""},
		{"session cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "logged_in_7"})
		}, http.StatusNoContent, 7, models.RoleOrganizer},
		{"unknown session user", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "logged_in_8"})
		}, http.StatusUnauthorized, 0, ""},
		{"malformed cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "admin"})
		}, http.StatusUnauthorized, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Identity
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			auth.Authenticate(echoIdentity(t, &got)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantUser, got.UserID)
			assert.Equal(t, tt.wantRole, got.Role)
			if rec.Code == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestOptional(t *testing.T) {
	auth, _ := newTestAuthenticator()

	var got Identity
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer nope")
	auth.Optional(echoIdentity(t, &got)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, got.UserID)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: SessionCookieValue(7)})
	auth.Optional(echoIdentity(t, &got)).ServeHTTP(rec, req)
	assert.Equal(t, 7, got.UserID)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleOrganizer, models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		id   *Identity
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"player", &Identity{UserID: 1, Role: models.RolePlayer}, http.StatusForbidden},
		{"organizer", &Identity{UserID: 2, Role: models.RoleOrganizer}, http.StatusOK},
		{"admin", &Identity{UserID: 3, Role: models.RoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tournaments", nil)
			if tt.id != nil {
				req = req.WithContext(WithIdentity(req.Context(), *tt.id))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestParseSessionCookie(t *testing.T) {
	id, ok := ParseSessionCookie("logged_in_15")
	assert.True(t, ok)
	assert.Equal(t, 15, id)

	for _, bad := range []string{"", "logged_in_", "logged_in_x", "logged_in_-3", "loggedin_3"} {
		_, ok := ParseSessionCookie(bad)
		assert.False(t, ok, bad)
	}
	assert.Equal(t, "logged_in_15", SessionCookieValue(15))
}
