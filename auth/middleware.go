package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/letterbox/mailbox-data-api/log"
)

// Middleware resolves the acting user and stores it in the request context. Requests without
// credentials are rejected unless anonymous access is allowed, invalid credentials are always rejected.
// OPTIONS requests pass without an actor, CORS preflights never carry credentials.
func Middleware(resolver Resolver, allowAnonymous bool, logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			actor, err := resolver.Resolve(r)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(WithContextActor(r.Context(), actor)))
			case errors.Is(err, ErrNoCredentials) && allowAnonymous:
				next.ServeHTTP(w, r)
			default:
				logger.Debug("unauthorized request", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, err)
			}
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	message := ErrInvalidCredentials.Error()
	if errors.Is(err, ErrNoCredentials) {
		message = ErrNoCredentials.Error()
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "kind": "Unauthorized"})
}
