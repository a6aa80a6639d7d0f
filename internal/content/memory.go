package content

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Records keep insertion order.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]Record
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]Record), now: time.Now}
}

func (m *Memory) FetchAll(ctx context.Context, collection string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := ValidCollection(collection); err != nil {
		return Result{}, fmt.Errorf("fetch %q: %w", collection, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.items[collection]
	out := make([]Record, len(src))
	for i, r := range src {
		r.Fields = maps.Clone(r.Fields)
		out[i] = r
	}
	return Result{Items: out}, nil
}

func (m *Memory) Create(ctx context.Context, collection string, payload map[string]any) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := ValidCollection(collection); err != nil {
		return Record{}, fmt.Errorf("create in %q: %w", collection, err)
	}
	if len(payload) == 0 {
		return Record{}, ErrEmptyPayload
	}

	now := m.now().UTC()
	rec := Record{
		ID:      uuid.NewString(),
		Created: now,
		Updated: now,
		Fields:  maps.Clone(payload),
	}

	m.mu.Lock()
	m.items[collection] = append(m.items[collection], rec)
	m.mu.Unlock()

	rec.Fields = maps.Clone(rec.Fields)
	return rec, nil
}

// Len reports how many records a collection holds.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items[collection])
}
