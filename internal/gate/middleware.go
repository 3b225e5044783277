package gate

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/otpvault/otpvault/pkg/clientip"
)

// PasswordHeader carries the shared app password on every request.
const PasswordHeader = "X-App-Password"

// Middleware authorizes every request through the gate before it reaches the
// handler. The client identity is the request origin IP; a locked identity
// receives 429 with the remaining lockout in seconds, a bad credential 401.
func Middleware(g *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := clientip.GetIP(r)

			err := g.Authorize(r.Context(), identity, r.Header.Get(PasswordHeader))
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			var rateLimited *RateLimitedError
			switch {
			case errors.As(err, &rateLimited):
				w.Header().Set("Retry-After", strconv.Itoa(rateLimited.Seconds()))
				writeJSONError(w, http.StatusTooManyRequests, rateLimited.Error(), map[string]any{
					"retry_after_seconds": rateLimited.Seconds(),
				})
			case errors.Is(err, ErrUnauthorized):
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			default:
				writeJSONError(w, http.StatusInternalServerError, "internal server error", nil)
			}
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := map[string]any{"error": message}
	for k, v := range extra {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
