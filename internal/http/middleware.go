package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_pos/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	SessionHeader = "X-Session-ID"

	maxSessionIDLength = 128
)

type contextKey string

const sessionKey contextKey = "session"

// Sessions resolves the operator session behind a request.
type Sessions interface {
	Get(ctx context.Context, id string) *session.Session
}

// SessionMiddleware attaches the caller's session. A request without the
// header gets a new id, echoed back so the client can keep using it.
func SessionMiddleware(sessions Sessions, log zerolog.Logger) func(http.Handler) http.Handler {
	rs := responder{log: log}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if id == "" {
				id = uuid.NewString()
			}
			if len(id) > maxSessionIDLength {
				rs.respondError(w, http.StatusBadRequest, "invalid_session", "session id is too long")
				return
			}

			s := sessions.Get(r.Context(), id)
			w.Header().Set(SessionHeader, id)
			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}
