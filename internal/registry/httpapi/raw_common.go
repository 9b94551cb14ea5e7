package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

func nowUTC() time.Time { return time.Now().UTC() }

// clientIPFromRequest mirrors clientIP for the raw (non-huma) routes.
func clientIPFromRequest(r *http.Request) string {
	for _, name := range []string{"Cf-Connecting-Ip", "X-Real-Ip"} {
		if v := strings.TrimSpace(r.Header.Get(name)); v != "" {
			return v
		}
	}
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		if first := strings.TrimSpace(strings.Split(v, ",")[0]); first != "" {
			return first
		}
	}
	if v := strings.TrimSpace(r.Header.Get("Fly-Client-Ip")); v != "" {
		return v
	}
	return r.RemoteAddr
}

func bearerTokenFromRequest(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	}
	return ""
}

// applyRateLimit duplicates rateLimitMiddleware's policy for the raw routes
// that bypass huma's middleware chain; it writes the same X-RateLimit-*
// headers and reports whether the request may proceed.
func (a *API) applyRateLimit(w http.ResponseWriter, r *http.Request, class string) bool {
	ip := clientIPFromRequest(r)
	token := bearerTokenFromRequest(r)

	ipAllowed, _ := a.RateLimiter.Allow(class+":ip", ip)
	tokenAllowed := true
	if token != "" {
		tokenAllowed, _ = a.RateLimiter.Allow(class+":token", hashToken(token))
	}

	limit := a.perIPBudget(class)
	if token != "" {
		limit = a.perTokenBudget(class)
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))

	if !ipAllowed || !tokenAllowed {
		w.Header().Set("Retry-After", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		writeRawError(w, 429, spec.ErrRateLimited)
		return false
	}
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-1))
	return true
}

// requireUserRaw resolves the bearer token to a user id for the raw routes,
// writing a 401 response itself when absent or invalid.
func (a *API) requireUserRaw(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := bearerTokenFromRequest(r)
	if token == "" {
		writeRawError(w, 401, spec.ErrUnauthorized)
		return "", false
	}
	rec, ok := a.Store.GetTokenByHash(hashToken(token))
	if !ok || rec.RevokedAt != nil {
		writeRawError(w, 401, spec.ErrUnauthorized)
		return "", false
	}
	return rec.UserID, true
}

func writeRawError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeRawJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
