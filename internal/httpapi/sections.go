package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// pendingTTL bounds how long a list fetch that outlived the render budget is
// held for its partial request.
const pendingTTL = time.Minute

type pendingSection struct {
	name    string
	wait    func(context.Context) any
	release func()
	at      time.Time
}

// pendingSections holds list fetches still in flight when their page was
// rendered. The page hands the browser a token in data-section-src and the
// partial request picks up the same fetch instead of starting another.
type pendingSections struct {
	ttl time.Duration
	now func() time.Time

	mu sync.Mutex
	m  map[string]pendingSection
}

func newPendingSections(ttl time.Duration) *pendingSections {
	return &pendingSections{
		ttl: ttl,
		now: time.Now,
		m:   make(map[string]pendingSection),
	}
}

// put registers a fetch for the named section and returns its token.
// Expired entries are released on the way.
func (p *pendingSections) put(name string, wait func(context.Context) any, release func()) string {
	tok := uuid.NewString()

	p.mu.Lock()
	expired := p.expiredLocked()
	p.m[tok] = pendingSection{name: name, wait: wait, release: release, at: p.now()}
	p.mu.Unlock()

	for _, e := range expired {
		e.release()
	}
	return tok
}

// take hands over the fetch registered under token. A token is good for one
// request of the section it was issued for.
func (p *pendingSections) take(token, name string) (pendingSection, bool) {
	if p == nil || token == "" {
		return pendingSection{}, false
	}

	p.mu.Lock()
	e, ok := p.m[token]
	if !ok || e.name != name {
		p.mu.Unlock()
		return pendingSection{}, false
	}
	delete(p.m, token)
	stale := p.now().Sub(e.at) > p.ttl
	p.mu.Unlock()

	if stale {
		e.release()
		return pendingSection{}, false
	}
	return e, true
}

func (p *pendingSections) expiredLocked() []pendingSection {
	var out []pendingSection
	cutoff := p.now().Add(-p.ttl)
	for k, e := range p.m {
		if e.at.Before(cutoff) {
			delete(p.m, k)
			out = append(out, e)
		}
	}
	return out
}

func (p *pendingSections) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}
