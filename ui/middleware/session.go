package middleware

import (
	"context"
	"net/http"

	"healthinsights/domain/core"
)

// SessionCookie is the cookie carrying the dashboard session ID
const SessionCookie = "healthinsights_session"

type contextKey struct{}

// SessionStore is the part of the session registry the middleware needs
type SessionStore interface {
	HasSession(id string) bool
}

// BindSession attaches the session named by the request cookie. Requests
// without a cookie use the default session; nothing is created here, so
// cookie-less clients never add a resident dataset. A stale cookie is
// cleared.
func BindSession(store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				if store.HasSession(cookie.Value) {
					id = cookie.Value
				} else {
					ClearSessionCookie(w)
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, id)))
		})
	}
}

// SetSessionCookie binds the browser to id.
func SetSessionCookie(w http.ResponseWriter, id core.SessionID) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie drops the session binding.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionID returns the session bound by BindSession, or "" for the
// default session.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
