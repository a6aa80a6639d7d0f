package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valetsite/internal/content"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/v1/", Token: "tok-123"})
	require.NoError(t, err)
	return c
}

func TestFetchAllDecodesItemsInOrder(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/collections/services/items", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"_id":"s1","serviceName":"Valet Trash","_createdDate":"2025-01-02T03:04:05Z"},
			{"_id":"s2","serviceName":"Bulk Pickup"}
		]}`))
	})

	res, err := c.FetchAll(context.Background(), "services")
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "s1", res.Items[0].ID)
	assert.Equal(t, "Valet Trash", res.Items[0].String("serviceName"))
	assert.False(t, res.Items[0].Created.IsZero())
	assert.Equal(t, "s2", res.Items[1].ID)
}

func TestFetchAllMissingItemsIsEmpty(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	res, err := c.FetchAll(context.Background(), "careers")
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestCreateSendsDataEnvelope(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Jane Doe", body.Data["name"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"lead-1","name":"Jane Doe"}`))
	})

	rec, err := c.Create(context.Background(), "contact_submissions", map[string]any{"name": "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, "lead-1", rec.ID)
	assert.EqualValues(t, 1, calls.Load())
}

func TestNon2xxIsStatusError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	})

	_, err := c.FetchAll(context.Background(), "services")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Contains(t, se.Error(), "collection not found")
}

func TestCreateWithoutIDFails(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"x"}`))
	})

	_, err := c.Create(context.Background(), "contact_submissions", map[string]any{"name": "x"})
	assert.Error(t, err)
}

func TestRejectsBadInputWithoutCalling(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := c.Create(context.Background(), "contact_submissions", nil)
	assert.ErrorIs(t, err, content.ErrEmptyPayload)
	_, err = c.FetchAll(context.Background(), "../admin")
	assert.ErrorIs(t, err, content.ErrUnknownCollection)
	assert.Zero(t, calls.Load())
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: ""})
	assert.Error(t, err)
}
