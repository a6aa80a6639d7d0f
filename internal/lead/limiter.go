package lead

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimiter rate-limits lead submissions per client key (remote IP).
type ClientLimiter struct {
	mu  sync.Mutex
	m   map[string]*clientEntry
	r   rate.Limit
	b   int
	now func() time.Time
}

type clientEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewClientLimiter allows perMinute submissions per key with the given burst.
// perMinute <= 0 disables limiting.
func NewClientLimiter(perMinute float64, burst int) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	r := rate.Inf
	if perMinute > 0 {
		r = rate.Limit(perMinute / 60)
	}
	return &ClientLimiter{
		m:   make(map[string]*clientEntry),
		r:   r,
		b:   burst,
		now: time.Now,
	}
}

func (cl *ClientLimiter) limiterFor(key string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	if e, ok := cl.m[key]; ok {
		e.seen = now
		return e.lim
	}
	lim := rate.NewLimiter(cl.r, cl.b)
	cl.m[key] = &clientEntry{lim: lim, seen: now}
	return lim
}

func (cl *ClientLimiter) Allow(key string) bool {
	if key == "" {
		key = "_"
	}
	return cl.limiterFor(key).AllowN(cl.now(), 1)
}

// Sweep drops limiters not used within idle. Returns how many were removed.
func (cl *ClientLimiter) Sweep(idle time.Duration) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cutoff := cl.now().Add(-idle)
	n := 0
	for k, e := range cl.m {
		if e.seen.Before(cutoff) {
			delete(cl.m, k)
			n++
		}
	}
	return n
}

func (cl *ClientLimiter) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.m)
}
