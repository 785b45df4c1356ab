package server

import (
	"context"
	"net/http"

	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the verified *token.SessionData
const ContextKeySession ContextKey = "session"

// RequireSession verifies the session cookie. A credential that no longer
// verifies (expired, tampered or signed with a rotated secret) clears the
// cookie and answers 401.
func (s *Server) RequireSession() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated", "status": "error"})
				return
			}

			session, err := s.auth.SessionFromToken(cookie.Value)
			if err != nil {
				reason := "invalid"
				if liberrors.Is(err, liberrors.ErrSessionExpired) {
					reason = "expired"
				}
				log.Info().Err(err).Str("reason", reason).Msg("rejecting session cookie")
				s.clearSessionCookie(w)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Session " + reason, "status": "error"})
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}

func sessionFromContext(ctx context.Context) (*token.SessionData, bool) {
	session, ok := ctx.Value(ContextKeySession).(*token.SessionData)
	return session, ok && session != nil
}
