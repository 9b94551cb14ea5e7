// Package ratelimit implements the per-IP / per-token limits spec.md §5
// imposes on the HTTP routes (read and write classes alike): each key gets
// its own token bucket, refilled continuously
// rather than reset on a fixed-size window, which is what
// golang.org/x/time/rate already gives for free — declared in the teacher's
// go.mod as a transitive dependency but never exercised in its source, so
// this is where it earns a real home.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

// Policy is one rate limit: burst tokens refilled at 1 every `per`.
type Policy struct {
	Burst int
	Per   time.Duration
}

// Limiter tracks one bucket per (policy name, key) pair, lazily created on
// first use and evicted once idle for longer than idleTTL.
type Limiter struct {
	mu       sync.Mutex
	policies map[string]Policy
	buckets  map[string]*bucket
	idleTTL  time.Duration
}

type bucket struct {
	limiter    *rate.Limiter
	lastSeenAt time.Time
}

func New(policies map[string]Policy, idleTTL time.Duration) *Limiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Limiter{
		policies: policies,
		buckets:  map[string]*bucket{},
		idleTTL:  idleTTL,
	}
}

// Allow reports whether a request against the named policy, from key (an IP
// address or token hash), may proceed. It never blocks.
func (l *Limiter) Allow(policyName, key string) (bool, error) {
	pol, ok := l.policies[policyName]
	if !ok {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bk := l.buckets[policyName+"|"+key]
	if bk == nil {
		refillPerSecond := 1.0
		if pol.Per > 0 {
			refillPerSecond = float64(time.Second) / float64(pol.Per)
		}
		bk = &bucket{limiter: rate.NewLimiter(rate.Limit(refillPerSecond), pol.Burst)}
		l.buckets[policyName+"|"+key] = bk
	}
	bk.lastSeenAt = time.Now()

	if !bk.limiter.Allow() {
		return false, spec.ErrRateLimited
	}
	return true, nil
}

// Sweep drops buckets idle longer than idleTTL, keeping long-running servers
// from accumulating one bucket per distinct IP ever seen.
func (l *Limiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, bk := range l.buckets {
		if now.Sub(bk.lastSeenAt) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}
