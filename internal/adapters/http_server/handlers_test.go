package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpserver "volcano_camping/internal/adapters/http_server"
	"volcano_camping/internal/app"
	"volcano_camping/internal/domain"
	"volcano_camping/internal/storage/memory"
)

var today = domain.NewDate(2026, time.October, 14)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := app.NewBookingService(memory.New(), nil, 0, func() time.Time { return today.Time() })
	srv := httpserver.New()
	srv.MountHandlers(httpserver.NewHandlers(svc))
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

type reservationJSON struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Status   string `json:"status"`
	Checkin  string `json:"checkin"`
	Checkout string `json:"checkout"`
}

type problemJSON struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func createBody(in, out int) string {
	return `{"email":"ana@example.com","fullName":"Ana Lima","checkin":"` + today.AddDays(in).String() +
		`","checkout":"` + today.AddDays(out).String() + `"}`
}

func TestReservationLifecycle(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/reservation"

	resp := do(t, http.MethodPost, base, createBody(3, 5))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decode[reservationJSON](t, resp)
	if created.Status != "ACTIVE" || created.Checkin != "2026-10-17" || created.Checkout != "2026-10-19" {
		t.Fatalf("unexpected: %+v", created)
	}
	if loc := resp.Header.Get("Location"); loc != "/api/v1/reservation/"+created.ID {
		t.Fatalf("location = %q", loc)
	}

	resp = do(t, http.MethodGet, base+"/"+created.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, base+"/"+created.ID, nil)
	req.Header.Set("If-None-Match", etag)
	cond, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = cond.Body.Close()
	if cond.StatusCode != http.StatusNotModified {
		t.Fatalf("conditional get = %d, want 304", cond.StatusCode)
	}

	resp = do(t, http.MethodPut, base+"/"+created.ID, `{"fullName":"Ana Souza"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decode[reservationJSON](t, resp)
	if updated.FullName != "Ana Souza" || updated.Email != "ana@example.com" || updated.Checkin != created.Checkin {
		t.Fatalf("partial update lost fields: %+v", updated)
	}

	resp = do(t, http.MethodDelete, base+"/"+created.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d", resp.StatusCode)
	}
	if got := decode[reservationJSON](t, resp); got.Status != "CANCELLED" {
		t.Fatalf("status = %s", got.Status)
	}

	resp = do(t, http.MethodDelete, base+"/"+created.ID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second cancel = %d, want 404", resp.StatusCode)
	}
	p := decode[problemJSON](t, resp)
	if p.Code != "NOT_FOUND" || p.Detail != "No reservation was found for provided reservation id." {
		t.Fatalf("problem = %+v", p)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestCreate_ConflictIs400(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/reservation"
	if resp := do(t, http.MethodPost, base, createBody(3, 5)); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first create = %d", resp.StatusCode)
	}
	resp := do(t, http.MethodPost, base, createBody(4, 6))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	p := decode[problemJSON](t, resp)
	if p.Code != "INVALID_DATES" || p.Detail != "The dates selected are not available." {
		t.Fatalf("problem = %+v", p)
	}
}

func TestCreate_RequestValidation(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/reservation"
	cases := []struct {
		name, body, code, detail string
	}{
		{"missing email", `{"fullName":"A","checkin":"2026-10-20","checkout":"2026-10-21"}`, "INVALID_INPUT", "Email is required."},
		{"missing checkout", `{"email":"a@x","fullName":"A","checkin":"2026-10-20"}`, "INVALID_INPUT", "Checkout date is required."},
		{"long name", `{"email":"a@x","fullName":"` + strings.Repeat("x", 256) + `","checkin":"2026-10-20","checkout":"2026-10-21"}`, "INVALID_INPUT", "Full name must be at most 255 characters."},
		{"bad date", `{"email":"a@x","fullName":"A","checkin":"20/10/2026","checkout":"2026-10-21"}`, "INVALID_INPUT", ""},
		{"not json", `{`, "INVALID_INPUT", ""},
		{"too long stay", createBody(1, 5), "INVALID_DATES", "The length of the stay cannot be longer than 3 days."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, base, c.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			p := decode[problemJSON](t, resp)
			if p.Code != c.code {
				t.Fatalf("code = %s, want %s", p.Code, c.code)
			}
			if c.detail != "" && p.Detail != c.detail {
				t.Fatalf("detail = %q, want %q", p.Detail, c.detail)
			}
		})
	}
}

func TestGet_Unknown404(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/api/v1/reservation/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAvailability(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/reservation"
	do(t, http.MethodPost, base, createBody(3, 5))

	resp := do(t, http.MethodGet, base+"/availabilities?startDate=2026-10-14&endDate=2026-10-24", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	free := decode[[]string](t, resp)
	if len(free) != 9 {
		t.Fatalf("got %d dates: %v", len(free), free)
	}
	for _, d := range free {
		if d == "2026-10-17" || d == "2026-10-18" {
			t.Fatalf("%s should be occupied", d)
		}
	}

	resp = do(t, http.MethodGet, base+"/availabilities", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("default window status = %d", resp.StatusCode)
	}
	if all := decode[[]string](t, resp); all[0] != "2026-10-14" || all[len(all)-1] != "2026-11-14" {
		t.Fatalf("default window = %s..%s", all[0], all[len(all)-1])
	}

	resp = do(t, http.MethodGet, base+"/availabilities?startDate=2026-10-20&endDate=2026-10-19", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("reversed window = %d", resp.StatusCode)
	}
	if p := decode[problemJSON](t, resp); p.Detail != "The toDate should be after the fromDate." {
		t.Fatalf("detail = %q", p.Detail)
	}

	resp = do(t, http.MethodGet, base+"/availabilities?startDate=tomorrow", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed date = %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
