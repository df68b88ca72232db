package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

// SessionResolver loads the user behind a session cookie.
type SessionResolver interface {
	ResolveSession(ctx context.Context, userID int) (*models.User, error)
}

type Authenticator struct {
	tokens   *TokenIssuer
	sessions SessionResolver
	logger   *slog.Logger
}

func NewAuthenticator(tokens *TokenIssuer, sessions SessionResolver, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, sessions: sessions, logger: logger}
}

// identify resolves the caller from a bearer token, falling back to the
// session cookie. found is false when the request carries neither.
func (a *Authenticator) identify(r *http.Request) (id Identity, found bool, err error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return Identity{}, true, ErrInvalidToken
		}
		id, err := a.tokens.Parse(strings.TrimSpace(token))
		return id, true, err
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return Identity{}, false, nil
	}
	userID, ok := ParseSessionCookie(cookie.Value)
	if !ok {
		return Identity{}, true, ErrInvalidToken
	}
	user, err := a.sessions.ResolveSession(r.Context(), userID)
	if err != nil {
		return Identity{}, true, err
	}
	return Identity{UserID: user.ID, Role: user.Role, Source: SourceSession}, true, nil
}

// Authenticate rejects requests without a valid token or session with 401.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, found, err := a.identify(r)
		if !found {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if err != nil {
			a.logger.DebugContext(r.Context(), "authentication failed", slog.String("path", r.URL.Path), slog.Any("error", err))
			writeError(w, http.StatusUnauthorized, "invalid or expired credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// Optional attaches the identity when one is present and never rejects.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, found, err := a.identify(r); found && err == nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := GetUserRoleFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}
