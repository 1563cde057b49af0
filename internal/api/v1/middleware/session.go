package middleware

import (
	"context"
	"net/http"

	"github.com/deepgram/parlor/internal/logger"
	"github.com/deepgram/parlor/internal/services/chat"
	"github.com/deepgram/parlor/internal/services/session"
	"github.com/deepgram/parlor/pkg/httpext"
)

type contextKey string

const (
	sessionKey contextKey = "chatSession"
)

// RequireSession attaches the visitor's chat session to the request context,
// starting one when needed.
func RequireSession(sessionService *session.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessionService.Resolve(w, r)
			if err != nil {
				logger.For(logger.MIDDLEWARE).Error().
					Err(err).
					Str("path", r.URL.Path).
					Msg("Failed to resolve chat session")
				httpext.JsonError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession retrieves the chat session from the request context
func GetSession(r *http.Request) *chat.Session {
	if sess, ok := r.Context().Value(sessionKey).(*chat.Session); ok {
		return sess
	}
	return nil
}

// WithSession returns a copy of r carrying sess, for handlers invoked outside RequireSession
func WithSession(r *http.Request, sess *chat.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionKey, sess))
}
