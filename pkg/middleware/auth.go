package middleware

import (
	"errors"
	"net/http"
	"strings"

	"tourbook/pkg/auth"
	apperrors "tourbook/pkg/errors"
	httputil "tourbook/pkg/http"
	"tourbook/pkg/logger"
)

// Authentication resolves an optional bearer token into an auth.Actor on the
// request context. Requests without a token continue anonymously and the
// service layer decides what they may do; a bad token is rejected.
func Authentication(tokens *auth.TokenService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				rejectUnauthorized(w, log, r, "malformed authorization header")
				return
			}

			actor, err := tokens.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				reason := "invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					reason = "token expired"
				}
				rejectUnauthorized(w, log, r, reason)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Authentication failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication failed: "+reason))
}
