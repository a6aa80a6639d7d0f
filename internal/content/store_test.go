package content

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJSONFlattensSystemFields(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := Record{
		ID:      "abc",
		Created: created,
		Fields:  map[string]any{"serviceName": "Valet Trash"},
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(b, &flat))
	assert.Equal(t, "abc", flat["_id"])
	assert.Equal(t, "Valet Trash", flat["serviceName"])
	assert.NotContains(t, flat, "_updatedDate")

	var back Record
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "abc", back.ID)
	assert.True(t, created.Equal(back.Created))
	assert.Equal(t, "Valet Trash", back.String("serviceName"))
	assert.NotContains(t, back.Fields, "_id")
}

func TestRecordTimeAcceptsStoreEncodings(t *testing.T) {
	want := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	cases := map[string]any{
		"time":     want,
		"rfc3339":  "2025-06-09T00:00:00Z",
		"date":     "2025-06-09",
		"mongoish": map[string]any{"$date": "2025-06-09T00:00:00Z"},
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			r := Record{Fields: map[string]any{"datePosted": v}}
			assert.True(t, want.Equal(r.Time("datePosted")), "got %v", r.Time("datePosted"))
		})
	}

	assert.True(t, Record{}.Time("missing").IsZero())
	assert.True(t, Record{Fields: map[string]any{"d": "soon"}}.Time("d").IsZero())
}

func TestMemoryKeepsInsertionOrderAndAssignsIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, name := range []string{"first", "second", "third"} {
		_, err := m.Create(ctx, "services", map[string]any{"serviceName": name})
		require.NoError(t, err)
	}

	res, err := m.FetchAll(ctx, "services")
	require.NoError(t, err)
	require.Len(t, res.Items, 3)

	seen := map[string]bool{}
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, res.Items[i].String("serviceName"))
		assert.NotEmpty(t, res.Items[i].ID)
		assert.False(t, seen[res.Items[i].ID], "duplicate id")
		seen[res.Items[i].ID] = true
	}
}

func TestMemoryFetchDoesNotShareFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Create(ctx, "careers", map[string]any{"jobTitle": "Valet"})
	require.NoError(t, err)

	res, err := m.FetchAll(ctx, "careers")
	require.NoError(t, err)
	res.Items[0].Fields["jobTitle"] = "changed"

	again, err := m.FetchAll(ctx, "careers")
	require.NoError(t, err)
	assert.Equal(t, "Valet", again.Items[0].String("jobTitle"))
}

func TestMemoryRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.FetchAll(ctx, "../etc")
	assert.ErrorIs(t, err, ErrUnknownCollection)

	_, err = m.Create(ctx, "leads", nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.FetchAll(cancelled, "services")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryEmptyCollection(t *testing.T) {
	res, err := NewMemory().FetchAll(context.Background(), "services")
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
}
