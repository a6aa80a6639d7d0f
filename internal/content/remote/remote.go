// Package remote talks to the hosted content store over its REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"valetsite/internal/content"
)

type Config struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	ReqPerSec float64
	Burst     int
}

type Client struct {
	base    *url.URL
	token   string
	hc      *http.Client
	limiter *rate.Limiter
}

type createReq struct {
	Data map[string]any `json:"data"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("content store %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("content store %s: status %d: %s", e.Op, e.Status, e.Body)
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("content store base url %q: invalid", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := &Client{
		base:  base,
		token: cfg.Token,
		hc:    &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.ReqPerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.ReqPerSec), burst)
	}
	return c, nil
}

func (c *Client) itemsURL(collection string) string {
	return c.base.JoinPath("collections", collection, "items").String()
}

func (c *Client) FetchAll(ctx context.Context, collection string) (content.Result, error) {
	if err := content.ValidCollection(collection); err != nil {
		return content.Result{}, fmt.Errorf("fetch %q: %w", collection, err)
	}

	var out content.Result
	if err := c.do(ctx, "fetch "+collection, http.MethodGet, c.itemsURL(collection), nil, &out); err != nil {
		return content.Result{}, err
	}
	if out.Items == nil {
		out.Items = []content.Record{}
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, collection string, payload map[string]any) (content.Record, error) {
	if err := content.ValidCollection(collection); err != nil {
		return content.Record{}, fmt.Errorf("create in %q: %w", collection, err)
	}
	if len(payload) == 0 {
		return content.Record{}, content.ErrEmptyPayload
	}

	body, err := json.Marshal(createReq{Data: payload})
	if err != nil {
		return content.Record{}, fmt.Errorf("encode payload: %w", err)
	}

	var rec content.Record
	if err := c.do(ctx, "create "+collection, http.MethodPost, c.itemsURL(collection), body, &rec); err != nil {
		return content.Record{}, err
	}
	if rec.ID == "" {
		return content.Record{}, fmt.Errorf("content store create %s: response has no _id", collection)
	}
	return rec, nil
}

func (c *Client) do(ctx context.Context, op, method, u string, body []byte, dst any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("content store %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "valetsite/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("content store %s: %w", op, err)
		}
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("content store %s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return &StatusError{Op: op, Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return fmt.Errorf("content store %s decode: %w", op, err)
	}
	return nil
}
