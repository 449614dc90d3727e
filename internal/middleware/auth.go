package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Jimix91/ticketflow/internal/config"
	"github.com/Jimix91/ticketflow/internal/utils"
)

type ctxKey string

const (
	CtxUserID ctxKey = "uid"
	CtxRole   ctxKey = "role"
)

// WithAuth parses an Authorization: Bearer token when present and stashes
// the user id and role in the request context. Requests without a valid
// token pass through unauthenticated; the handlers decide what that means.
func WithAuth(log zerolog.Logger, cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := utils.ParseJWT(cfg.SessionSecret, strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				log.Debug().Err(err).Msg("rejected bearer token")
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), CtxUserID, claims.UserID)
			ctx = context.WithValue(ctx, CtxRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
