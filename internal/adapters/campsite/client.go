package campsite

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"volcano_camping/internal/adapters/observability"
	"volcano_camping/internal/domain"
)

const maxAttempts = 4

// Client talks to the reservation API under base (e.g. http://host:8080/api/v1).
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type Reservation struct {
	ID       string        `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"fullName"`
	Status   domain.Status `json:"status"`
	Checkin  domain.Date   `json:"checkin"`
	Checkout domain.Date   `json:"checkout"`
}

type CreateRequest struct {
	Email    string      `json:"email"`
	FullName string      `json:"fullName"`
	Checkin  domain.Date `json:"checkin"`
	Checkout domain.Date `json:"checkout"`
}

// UpdateRequest sends only the non-nil fields.
type UpdateRequest struct {
	Email    *string      `json:"email,omitempty"`
	FullName *string      `json:"fullName,omitempty"`
	Checkin  *domain.Date `json:"checkin,omitempty"`
	Checkout *domain.Date `json:"checkout,omitempty"`
}

// APIError is a non-2xx answer carrying the server's problem body.
type APIError struct {
	Status int
	Code   string
	Detail string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("campsite: status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("campsite: %s (%d): %s", e.Code, e.Status, e.Detail)
}

// CodeOf returns the problem code of err, or "" when err is not an *APIError.
func CodeOf(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// ---- Public API ----

func (c *Client) Create(ctx context.Context, in CreateRequest) (Reservation, error) {
	var out Reservation
	return out, c.do(ctx, "create", http.MethodPost, "/reservation", in, &out)
}

func (c *Client) Get(ctx context.Context, id string) (Reservation, error) {
	var out Reservation
	return out, c.do(ctx, "get", http.MethodGet, "/reservation/"+url.PathEscape(id), nil, &out)
}

func (c *Client) Update(ctx context.Context, id string, in UpdateRequest) (Reservation, error) {
	var out Reservation
	return out, c.do(ctx, "update", http.MethodPut, "/reservation/"+url.PathEscape(id), in, &out)
}

func (c *Client) Cancel(ctx context.Context, id string) (Reservation, error) {
	var out Reservation
	return out, c.do(ctx, "cancel", http.MethodDelete, "/reservation/"+url.PathEscape(id), nil, &out)
}

// Availability lists free dates in [from, to]; zero dates let the server apply
// its defaults.
func (c *Client) Availability(ctx context.Context, from, to domain.Date) ([]domain.Date, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("startDate", from.String())
	}
	if !to.IsZero() {
		q.Set("endDate", to.String())
	}
	path := "/reservation/availabilities"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []domain.Date
	return out, c.do(ctx, "availability", http.MethodGet, path, nil, &out)
}

// ---- Internals ----

// do sends one logical request with client-side rate limiting and retries.
// Idempotent methods retry on 429, transient 5xx and network errors. POST only
// retries on 429, since a 5xx may mean the reservation was stored.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}
	idempotent := method != http.MethodPost

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		last := i == maxAttempts-1

		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "volcano-camping-client/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("campsite", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if idempotent && !last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("campsite", endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer resp.Body.Close()
			if out == nil || resp.StatusCode == http.StatusNoContent {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)

		case retryable(resp.StatusCode, idempotent):
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			apiErr := readProblem(resp)
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = apiErr
			if !last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			return readProblem(resp)
		}
	}

	return lastErr
}

func retryable(status int, idempotent bool) bool {
	switch status {
	case http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return idempotent
	}
	return false
}

// readProblem decodes a problem+json body (best effort) and closes it.
func readProblem(resp *http.Response) *APIError {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	ae := &APIError{Status: resp.StatusCode}
	var p struct {
		Detail string `json:"detail"`
		Code   string `json:"code"`
	}
	if err := json.Unmarshal(b, &p); err == nil && (p.Code != "" || p.Detail != "") {
		ae.Code, ae.Detail = p.Code, p.Detail
		return ae
	}
	ae.Detail = strings.TrimSpace(string(b))
	return ae
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns 200ms, 400ms, 800ms... for attempt i, plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
