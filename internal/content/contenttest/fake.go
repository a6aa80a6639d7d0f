// Package contenttest provides a scriptable content.Store for tests.
package contenttest

import (
	"context"
	"maps"
	"sync"

	"valetsite/internal/content"
)

// Call is one recorded Create.
type Call struct {
	Collection string
	Payload    map[string]any
}

// Store wraps content.Memory with call counting, injected errors and an optional gate.
type Store struct {
	*content.Memory

	mu          sync.Mutex
	fetchErr    error
	createErr   error
	gate        chan struct{}
	started     chan struct{}
	fetches     int
	creates     []Call
	inFlight    int
	maxInFlight int
}

func New() *Store {
	return &Store{Memory: content.NewMemory()}
}

func (s *Store) FailFetch(err error) {
	s.mu.Lock()
	s.fetchErr = err
	s.mu.Unlock()
}

func (s *Store) FailCreate(err error) {
	s.mu.Lock()
	s.createErr = err
	s.mu.Unlock()
}

// Block makes every call wait until Release. Started receives once per call that reaches the gate.
func (s *Store) Block() {
	s.mu.Lock()
	s.gate = make(chan struct{})
	s.started = make(chan struct{}, 64)
	s.mu.Unlock()
}

func (s *Store) Release() {
	s.mu.Lock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
	s.mu.Unlock()
}

// Started is signalled when a blocked call begins waiting.
func (s *Store) Started() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Store) wait(ctx context.Context) error {
	s.mu.Lock()
	gate, started := s.gate, s.started
	s.mu.Unlock()
	if gate == nil {
		return nil
	}
	started <- struct{}{}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) FetchAll(ctx context.Context, collection string) (content.Result, error) {
	s.mu.Lock()
	s.fetches++
	err := s.fetchErr
	s.mu.Unlock()

	if werr := s.wait(ctx); werr != nil {
		return content.Result{}, werr
	}
	if err != nil {
		return content.Result{}, err
	}
	return s.Memory.FetchAll(ctx, collection)
}

func (s *Store) Create(ctx context.Context, collection string, payload map[string]any) (content.Record, error) {
	s.mu.Lock()
	s.creates = append(s.creates, Call{Collection: collection, Payload: maps.Clone(payload)})
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	err := s.createErr
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if werr := s.wait(ctx); werr != nil {
		return content.Record{}, werr
	}
	if err != nil {
		return content.Record{}, err
	}
	return s.Memory.Create(ctx, collection, payload)
}

func (s *Store) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func (s *Store) Creates() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.creates...)
}

// MaxInFlight is the highest number of concurrent Create calls seen.
func (s *Store) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

// MustSeed adds records directly, bypassing call counting.
func (s *Store) MustSeed(collection string, items ...map[string]any) {
	for _, it := range items {
		if _, err := s.Memory.Create(context.Background(), collection, it); err != nil {
			panic(err)
		}
	}
}
