package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
)

// TokenVerifier is the slice of Authenticator the auth gate needs.
type TokenVerifier interface {
	Verify(token string) bool
}

// AuthMiddleware enforces the bearer-token gate. It strips the "Bearer "
// prefix from the Authorization header and verifies the remainder; a
// missing header, malformed prefix, or failed verification terminates the
// request with 401 before the route handler runs.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || !verifier.Verify(token) {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// Recoverer is the single error boundary around dispatch: any panic below
// it becomes a generic 500 JSON response instead of a dropped connection,
// and the cause is logged, never sent to the client.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel, never wrapped
					panic(rec)
				}
				slog.Error("panic serving request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
