package lead

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const tokenMACLen = 16

// Guard collapses repeated posts of the same rendered form.
// Concurrent calls with one token share a single run; a successful outcome is
// replayed for ttl after it completes. Only tokens minted by this Guard are
// tracked, so forged tokens never take space in the replay cache.
type Guard struct {
	group singleflight.Group
	ttl   time.Duration
	key   []byte
	now   func() time.Time

	mu   sync.Mutex
	done map[string]guardEntry
}

type guardEntry struct {
	out Outcome
	at  time.Time
}

func NewGuard(ttl time.Duration) *Guard {
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return &Guard{
		ttl:  ttl,
		key:  key,
		now:  time.Now,
		done: make(map[string]guardEntry),
	}
}

// NewToken returns a fresh signed token for a rendered contact form.
// A nil Guard hands out plain ids, which Do treats as untracked.
func (g *Guard) NewToken() string {
	id := uuid.NewString()
	if g == nil {
		return id
	}
	return id + "." + g.sign(id)
}

func (g *Guard) sign(id string) string {
	m := hmac.New(sha256.New, g.key)
	m.Write([]byte(id))
	return hex.EncodeToString(m.Sum(nil)[:tokenMACLen])
}

// Valid reports whether token was minted by this Guard.
func (g *Guard) Valid(token string) bool {
	if g == nil {
		return false
	}
	id, mac, ok := strings.Cut(token, ".")
	if !ok || id == "" || len(mac) != 2*tokenMACLen {
		return false
	}
	return hmac.Equal([]byte(mac), []byte(g.sign(id)))
}

// Do runs fn once per token. replayed is true when the outcome came from
// another call. A token this Guard did not mint always runs fn untracked.
func (g *Guard) Do(token string, fn func() (Outcome, error)) (out Outcome, replayed bool, err error) {
	if !g.Valid(token) {
		out, err = fn()
		return out, false, err
	}
	if out, ok := g.lookup(token); ok {
		return out, true, nil
	}

	ran := false
	v, err, _ := g.group.Do(token, func() (any, error) {
		if out, ok := g.lookup(token); ok {
			return out, nil
		}
		ran = true
		out, err := fn()
		if err == nil && g.ttl > 0 {
			g.mu.Lock()
			g.done[token] = guardEntry{out: out, at: g.now()}
			g.mu.Unlock()
		}
		return out, err
	})
	out, _ = v.(Outcome)
	return out, !ran, err
}

func (g *Guard) lookup(token string) (Outcome, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.done[token]
	if !ok {
		return Outcome{}, false
	}
	if g.now().Sub(e.at) > g.ttl {
		delete(g.done, token)
		return Outcome{}, false
	}
	return e.out, true
}

// Sweep removes expired outcomes. Returns how many were removed.
func (g *Guard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	cutoff := g.now().Add(-g.ttl)
	n := 0
	for k, e := range g.done {
		if e.at.Before(cutoff) {
			delete(g.done, k)
			n++
		}
	}
	return n
}

// Len is the number of outcomes held for replay.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.done)
}
