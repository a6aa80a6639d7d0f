// Package listing fetches one collection per page visit and exposes it as view state.
package listing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"valetsite/internal/content"
)

// State is the render state of a Section.
type State int

const (
	Loading State = iota
	Populated
	Empty
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Populated:
		return "populated"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// View is what a page renders for a section.
type View[T any] struct {
	State State
	Items []T
	// Failed is set when the fetch errored; the items are then empty.
	Failed bool
}

// Section issues exactly one fetch per mount and ignores results that arrive after Unmount.
type Section[T any] struct {
	store      content.Store
	collection string
	decode     func(content.Record) T
	log        *zap.Logger

	mu      sync.Mutex
	started bool
	mounted bool
	view    View[T]
	done    chan struct{}
}

func New[T any](store content.Store, collection string, decode func(content.Record) T, log *zap.Logger) *Section[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Section[T]{
		store:      store,
		collection: collection,
		decode:     decode,
		log:        log,
		view:       View[T]{State: Loading},
		done:       make(chan struct{}),
	}
}

// Mount starts the fetch. Later calls return the same done channel without fetching again.
func (s *Section[T]) Mount(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return s.done
	}
	s.started = true
	s.mounted = true
	go s.load(ctx)
	return s.done
}

// Unmount detaches the section; a fetch still in flight is discarded when it lands.
func (s *Section[T]) Unmount() {
	s.mu.Lock()
	s.mounted = false
	s.mu.Unlock()
}

func (s *Section[T]) View() View[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view
	if v.Items != nil {
		v.Items = append([]T(nil), v.Items...)
	}
	return v
}

// Await mounts the section and waits for the fetch, up to budget (0 waits until done or ctx ends).
// A section still loading when the wait ends reports Loading.
func (s *Section[T]) Await(ctx context.Context, budget time.Duration) View[T] {
	done := s.Mount(ctx)

	var expired <-chan time.Time
	if budget > 0 {
		t := time.NewTimer(budget)
		defer t.Stop()
		expired = t.C
	}

	select {
	case <-done:
	case <-expired:
	case <-ctx.Done():
	}
	return s.View()
}

func (s *Section[T]) load(ctx context.Context) {
	defer close(s.done)

	start := time.Now()
	res, err := s.store.FetchAll(ctx, s.collection)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted {
		s.log.Debug("list fetch landed after unmount",
			zap.String("collection", s.collection),
			zap.Error(err))
		return
	}

	if err != nil {
		s.log.Error("list fetch failed",
			zap.String("collection", s.collection),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		s.view = View[T]{State: Empty, Items: []T{}, Failed: true}
		return
	}

	items := make([]T, 0, len(res.Items))
	for _, r := range res.Items {
		items = append(items, s.decode(r))
	}

	state := Populated
	if len(items) == 0 {
		state = Empty
	}
	s.view = View[T]{State: state, Items: items}
	s.log.Debug("list fetched",
		zap.String("collection", s.collection),
		zap.Int("items", len(items)),
		zap.Duration("took", time.Since(start)))
}
