package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

type contextKey string

const userContextKey contextKey = "user"

const (
	SessionCookieName   = "session"
	sessionCookiePrefix = "logged_in_"

	SourceToken   = "token"
	SourceSession = "session"
)

var ErrNoIdentity = errors.New("user identity not found in context")

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID int
	Role   models.UserRole
	Source string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, userContextKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(userContextKey).(Identity)
	return id, ok
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return "", ErrNoIdentity
	}
	return id.Role, nil
}

// SessionCookieValue renders the session cookie value for a user.
func SessionCookieValue(userID int) string {
	return sessionCookiePrefix + strconv.Itoa(userID)
}

// ParseSessionCookie extracts the user id from a "logged_in_<uid>" value.
func ParseSessionCookie(value string) (int, bool) {
	rest, ok := strings.CutPrefix(value, sessionCookiePrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
