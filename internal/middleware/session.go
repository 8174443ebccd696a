package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/creators-jp/portal-server/internal/audit"
	"github.com/creators-jp/portal-server/internal/config"
	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/httputil"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/service"
)

type contextKey string

const (
	UserContextKey    contextKey = "user"
	SessionContextKey contextKey = "session"
)

func GetUser(ctx context.Context) *model.ResolvedUser {
	if user, ok := ctx.Value(UserContextKey).(*model.ResolvedUser); ok {
		return user
	}
	return nil
}

func GetSession(ctx context.Context) *model.Session {
	if session, ok := ctx.Value(SessionContextKey).(*model.Session); ok {
		return session
	}
	return nil
}

type SessionMiddleware struct {
	auth *service.AuthService
}

func NewSessionMiddleware(auth *service.AuthService) *SessionMiddleware {
	return &SessionMiddleware{auth: auth}
}

// RequireAuth resolves the session cookie into a user. A missing
// cookie, an expired or unknown session, and a missing or deactivated
// user are reported as distinct error codes.
func (m *SessionMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(config.SessionCookieName)
		if err != nil || cookie.Value == "" {
			httputil.WriteError(w, apperrors.AuthRequired())
			return
		}

		session, err := m.auth.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: session lookup failed")
			httputil.WriteError(w, err)
			return
		}
		if session == nil {
			httputil.WriteError(w, apperrors.AuthExpired())
			return
		}

		user, err := m.auth.Resolve(r.Context(), session.UserID)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: user resolution failed")
			httputil.WriteError(w, err)
			return
		}
		if user == nil || !user.IsActive {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventAuthFailure, UserID: session.UserID})
			httputil.WriteError(w, apperrors.AuthInvalid("Account is not available"))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, SessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireAuth.
func (m *SessionMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil || !user.IsAdmin {
			httputil.WriteError(w, apperrors.AdminRequired())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie writes the session cookie with an explicit Expires
// matching the fixed session lifetime.
func SetSessionCookie(w http.ResponseWriter, sessionID string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the cookie with the same attributes it
// was set with.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
