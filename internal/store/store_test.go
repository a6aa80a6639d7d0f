package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valetsite/internal/content"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "site.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

var _ content.Store = (*DB)(nil)

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db.Pool))

	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, 1, v)
}

func TestCreateAndFetchPreservesOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	names := []string{"Doorstep Valet Trash", "Recycling", "Bulk Item Removal"}
	for _, n := range names {
		rec, err := db.Create(ctx, "services", map[string]any{"serviceName": n})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.False(t, rec.Created.IsZero())
	}
	_, err := db.Create(ctx, "careers", map[string]any{"jobTitle": "Porter"})
	require.NoError(t, err)

	res, err := db.FetchAll(ctx, "services")
	require.NoError(t, err)
	require.Len(t, res.Items, len(names))
	for i, n := range names {
		assert.Equal(t, n, res.Items[i].String("serviceName"))
	}

	n, err := db.Count(ctx, "careers")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFetchUnknownCollectionIsEmpty(t *testing.T) {
	res, err := openTestDB(t).FetchAll(context.Background(), "nothing_here")
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestCreateRejectsEmptyPayload(t *testing.T) {
	_, err := openTestDB(t).Create(context.Background(), "contact_submissions", map[string]any{})
	assert.ErrorIs(t, err, content.ErrEmptyPayload)
}

func TestOpenHoldsLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.db")
	first, err := Open(path)
	require.NoError(t, err)

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Close())
	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestSeedSkipsPopulatedCollections(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	set := DefaultSeed()

	added, err := Seed(ctx, db, "services", "careers", set)
	require.NoError(t, err)
	assert.Equal(t, len(set.Services)+len(set.Careers), added)

	added, err = Seed(ctx, db, "services", "careers", set)
	require.NoError(t, err)
	assert.Zero(t, added)
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func TestImageCacheFetchesOnceThenServesFromDB(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	db := openTestDB(t)
	c := NewImageCache(db.Pool, []string{"127.0.0.1"})

	ctx := context.Background()
	img, err := c.Get(ctx, srv.URL+"/valet.png#frag")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, pngBytes, img.Bytes)

	again, err := c.Get(ctx, srv.URL+"/valet.png")
	require.NoError(t, err)
	assert.Equal(t, img.Key, again.Key)
	assert.EqualValues(t, 1, hits.Load())
}

func TestImageCacheRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>nope</html>"))
	}))
	defer srv.Close()

	db := openTestDB(t)
	c := NewImageCache(db.Pool, []string{"127.0.0.1"})
	ctx := context.Background()

	_, err := c.Get(ctx, srv.URL+"/x.png")
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = c.Get(ctx, "https://evil.example.com/x.png")
	assert.ErrorIs(t, err, ErrHostNotAllowed)

	_, err = c.Get(ctx, "ftp://127.0.0.1/x.png")
	assert.ErrorIs(t, err, ErrBadImageURL)
}

func TestImageCacheSuffixHosts(t *testing.T) {
	c := NewImageCache(nil, []string{".wixstatic.com", "images.example.org"})
	assert.True(t, c.allowed("static.wixstatic.com"))
	assert.True(t, c.allowed("IMAGES.example.org"))
	assert.False(t, c.allowed("example.org"))
	assert.False(t, c.allowed("wixstatic.com.evil.net"))
}

func TestCleanupOldImages(t *testing.T) {
	db := openTestDB(t)
	c := NewImageCache(db.Pool, nil)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	fresh := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Pool.Exec(`INSERT INTO images(key, source_url, content_type, bytes, fetched_at) VALUES
('a','u1','image/png',x'00',?), ('b','u2','image/png',x'00',?);`, old, fresh)
	require.NoError(t, err)

	n, err := c.CleanupOldImages(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = c.Lookup(ctx, "a")
	assert.True(t, errors.Is(err, ErrImageNotFound))
	_, err = c.Lookup(ctx, "b")
	assert.NoError(t, err)
}
