package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrImageNotFound  = errors.New("image not cached")
	ErrHostNotAllowed = errors.New("image host not allowed")
	ErrNotAnImage     = errors.New("not an image")
	ErrImageTooLarge  = errors.New("image too large")
	ErrBadImageURL    = errors.New("bad image url")
)

const (
	maxImageBytes      = 512 * 1024 // 512KB
	imageFetchTimeout  = 15 * time.Second
	imageUserAgent     = "Mozilla/5.0 (compatible; valetsite/1.0)"
	imageAcceptHeader  = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
	defaultContentType = "image/*"
)

type Image struct {
	Key         string
	ContentType string
	Bytes       []byte
	FetchedAt   time.Time
}

// ImageCache proxies listing images through an allowlist and keeps their bytes in sqlite.
type ImageCache struct {
	DB    *sql.DB
	Hosts []string // exact host, or ".suffix" for subdomains
	HC    *http.Client
	now   func() time.Time
}

func NewImageCache(db *sql.DB, hosts []string) *ImageCache {
	return &ImageCache{
		DB:    db,
		Hosts: hosts,
		HC:    &http.Client{Timeout: imageFetchTimeout},
		now:   time.Now,
	}
}

func ImageKeyFromURL(u string) string {
	h := sha256.Sum256([]byte(u))
	return hex.EncodeToString(h[:])
}

func (c *ImageCache) allowed(host string) bool {
	host = strings.ToLower(host)
	for _, h := range c.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if strings.HasPrefix(h, ".") {
			if strings.HasSuffix(host, h) {
				return true
			}
			continue
		}
		if host == h {
			return true
		}
	}
	return false
}

// Normalize checks the url against the allowlist and strips its fragment.
func (c *ImageCache) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	pu, err := url.Parse(raw)
	if err != nil || pu.Host == "" || (pu.Scheme != "https" && pu.Scheme != "http") {
		return "", ErrBadImageURL
	}
	if !c.allowed(pu.Hostname()) {
		return "", ErrHostNotAllowed
	}
	return pu.String(), nil
}

func (c *ImageCache) Lookup(ctx context.Context, key string) (Image, error) {
	img := Image{Key: key}
	var fetched string
	err := c.DB.QueryRowContext(ctx,
		`SELECT content_type, bytes, fetched_at FROM images WHERE key = ? LIMIT 1;`, key,
	).Scan(&img.ContentType, &img.Bytes, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, ErrImageNotFound
	}
	if err != nil {
		return Image{}, err
	}
	img.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
	if img.ContentType == "" {
		img.ContentType = defaultContentType
	}
	return img, nil
}

// Get serves from cache, fetching and storing the image on a miss.
func (c *ImageCache) Get(ctx context.Context, raw string) (Image, error) {
	u, err := c.Normalize(raw)
	if err != nil {
		return Image{}, err
	}
	key := ImageKeyFromURL(u)

	img, err := c.Lookup(ctx, key)
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, ErrImageNotFound) {
		return Image{}, err
	}

	img, err = c.fetch(ctx, u)
	if err != nil {
		return Image{}, err
	}
	img.Key = key

	_, err = c.DB.ExecContext(ctx, `
INSERT OR REPLACE INTO images(key, source_url, content_type, bytes, fetched_at)
VALUES(?,?,?,?,?);`,
		key, u, img.ContentType, img.Bytes, img.FetchedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Image{}, fmt.Errorf("cache image: %w", err)
	}
	return img, nil
}

func (c *ImageCache) fetch(ctx context.Context, u string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("User-Agent", imageUserAgent)
	req.Header.Set("Accept", imageAcceptHeader)

	resp, err := c.HC.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Image{}, fmt.Errorf("fetch image: upstream status %s", resp.Status)
	}

	// protect the db
	b, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxImageBytes)+1))
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	if len(b) > maxImageBytes {
		return Image{}, ErrImageTooLarge
	}
	if len(b) == 0 {
		return Image{}, ErrNotAnImage
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		sn := http.DetectContentType(b)
		if !strings.HasPrefix(sn, "image/") {
			return Image{}, ErrNotAnImage
		}
		ct = sn
	}

	return Image{ContentType: ct, Bytes: b, FetchedAt: c.now().UTC()}, nil
}

// CleanupOldImages drops cached images older than maxAge so they get refetched.
func (c *ImageCache) CleanupOldImages(ctx context.Context, maxAge time.Duration) (deleted int64, err error) {
	cutoff := c.now().UTC().Add(-maxAge).Format(time.RFC3339)
	res, err := c.DB.ExecContext(ctx, `DELETE FROM images WHERE fetched_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old images: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
