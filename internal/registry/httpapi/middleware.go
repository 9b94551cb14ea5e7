package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

type ctxKey string

const ctxKeyUserID ctxKey = "clawdhub-user-id"

// clientIP implements spec.md §4.5(a): first of cf-connecting-ip,
// x-real-ip, the first hop of x-forwarded-for, fly-client-ip.
func clientIP(h huma.Context) string {
	for _, name := range []string{"Cf-Connecting-Ip", "X-Real-Ip"} {
		if v := strings.TrimSpace(h.Header(name)); v != "" {
			return v
		}
	}
	if v := h.Header("X-Forwarded-For"); v != "" {
		parts := strings.Split(v, ",")
		if first := strings.TrimSpace(parts[0]); first != "" {
			return first
		}
	}
	if v := strings.TrimSpace(h.Header("Fly-Client-Ip")); v != "" {
		return v
	}
	return h.RemoteAddr()
}

func bearerToken(h huma.Context) string {
	auth := h.Header("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	}
	return ""
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// routeClass classifies an operation as "read" or "write" for the rate
// budgets in spec.md §4.5.
func routeClass(op *huma.Operation) string {
	switch op.Method {
	case "POST", "PUT", "PATCH", "DELETE":
		return "write"
	default:
		return "read"
	}
}

// authMiddleware resolves the bearer token (if any) to a user id and stashes
// it in the request context; handlers that require auth check ctxUserID and
// return spec.ErrUnauthorized themselves.
func (a *API) authMiddleware(ctx huma.Context, next func(huma.Context)) {
	token := bearerToken(ctx)
	if token == "" {
		next(ctx)
		return
	}
	rec, ok := a.Store.GetTokenByHash(hashToken(token))
	if !ok || rec.RevokedAt != nil {
		next(ctx)
		return
	}
	newCtx := huma.WithValue(ctx, ctxKeyUserID, rec.UserID)
	next(newCtx)
}

// rateLimitMiddleware implements spec.md §4.5(c)-(e): apply both the per-IP
// and per-token counters for the route's class, returning the more
// restrictive of the two in the response headers, 429 with Retry-After if
// either denies.
func (a *API) rateLimitMiddleware(ctx huma.Context, next func(huma.Context)) {
	op := ctx.Operation()
	class := routeClass(op)
	ip := clientIP(ctx)
	token := bearerToken(ctx)

	ipAllowed, ipErr := a.RateLimiter.Allow(class+":ip", ip)
	tokenAllowed := true
	if token != "" {
		var err error
		tokenAllowed, err = a.RateLimiter.Allow(class+":token", hashToken(token))
		if err != nil {
			tokenAllowed = false
		}
	}

	limit := a.perIPBudget(class)
	if token != "" {
		limit = a.perTokenBudget(class)
	}
	ctx.SetHeader("X-RateLimit-Limit", strconv.Itoa(limit))
	ctx.SetHeader("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))

	if !ipAllowed || !tokenAllowed || ipErr != nil {
		ctx.SetHeader("Retry-After", "60")
		ctx.SetHeader("X-RateLimit-Remaining", "0")
		_ = huma.WriteErr(a.Huma, ctx, 429, spec.ErrRateLimited.Error(), spec.ErrRateLimited)
		return
	}
	ctx.SetHeader("X-RateLimit-Remaining", strconv.Itoa(limit - 1))
	next(ctx)
}

func (a *API) perIPBudget(class string) int {
	if class == "write" {
		return a.Budgets.WritePerIPPerMinute
	}
	return a.Budgets.ReadPerIPPerMinute
}

func (a *API) perTokenBudget(class string) int {
	if class == "write" {
		return a.Budgets.WritePerTokenPerMinute
	}
	return a.Budgets.ReadPerTokenPerMinute
}

// requireUser fetches the authenticated user id from context, or returns
// spec.ErrUnauthorized for handlers the spec marks "requires bearer".
func requireUser(ctx context.Context) (string, error) {
	v := ctx.Value(ctxKeyUserID)
	uid, ok := v.(string)
	if !ok || uid == "" {
		return "", spec.ErrUnauthorized
	}
	return uid, nil
}

// toHumaError maps a domain sentinel error to the huma status it belongs to
// (spec.md §7's status table, via spec.ErrHTTPStatus).
func toHumaError(err error) error {
	status := spec.ErrHTTPStatus(err)
	return huma.NewError(status, err.Error(), err)
}
