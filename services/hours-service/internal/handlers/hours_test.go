package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/openhours/libs/auth"
	"github.com/md-rashed-zaman/openhours/libs/httpx"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/cache"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/storage"
)

type fakeStore struct {
	rows  map[string]storage.Hours
	saves int
	gets  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]storage.Hours{}}
}

func (s *fakeStore) Get(_ context.Context, businessID string) (storage.Hours, error) {
	s.gets++
	h, ok := s.rows[businessID]
	if !ok {
		return storage.Hours{}, storage.ErrNotFound
	}
	return h, nil
}

func (s *fakeStore) Save(_ context.Context, h storage.Hours, _, _ []string) (storage.Hours, error) {
	s.saves++
	h.Version = s.rows[h.BusinessID].Version + 1
	h.UpdatedAt = time.Date(2014, 4, 22, 8, 0, 0, 0, time.UTC)
	s.rows[h.BusinessID] = h
	return h, nil
}

func (s *fakeStore) Delete(_ context.Context, businessID string) error {
	if _, ok := s.rows[businessID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.rows, businessID)
	return nil
}

type memCache struct {
	entries map[string]cache.Entry
}

func (c *memCache) Get(_ context.Context, businessID string) (cache.Entry, bool, error) {
	e, ok := c.entries[businessID]
	return e, ok, nil
}

func (c *memCache) Set(_ context.Context, businessID string, e cache.Entry) error {
	c.entries[businessID] = e
	return nil
}

func (c *memCache) Delete(_ context.Context, businessID string) error {
	delete(c.entries, businessID)
	return nil
}

func newTestMux(store Store, c cache.Cache, writeRoles ...string) *http.ServeMux {
	h := New(store, c, slog.New(slog.NewTextHandler(io.Discard, nil)), "UTC")
	h.now = func() time.Time { return time.Date(2014, 4, 22, 10, 0, 0, 0, time.UTC) }
	mux := http.NewServeMux()
	h.Register(mux, writeRoles...)
	return mux
}

func do(t *testing.T, h http.Handler, method, target, businessID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if businessID != "" {
		req.Header.Set(httpx.BusinessIDHeader, businessID)
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw
}

func TestPutHours(t *testing.T) {
	store := newFakeStore()
	c := &memCache{entries: map[string]cache.Entry{}}
	mux := newTestMux(store, c)

	rw := do(t, mux, http.MethodPut, "/api/v1/business/hours", "biz-1", `{"spec":"wday{Mon-Fri} hr{9-18}","timezone":"UTC"}`)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	var res hoursResponse
	if err := json.NewDecoder(rw.Body).Decode(&res); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if res.Version != 1 || len(res.ClosingTriggers) != 1 || res.ClosingTriggers[0] != "0 19 * * 1-5" {
		t.Fatalf("unexpected response: %+v", res)
	}
	if c.entries["biz-1"].Version != 1 {
		t.Fatalf("expected cache to hold version 1, got %+v", c.entries["biz-1"])
	}
}

func TestPutHours_Rejects(t *testing.T) {
	mux := newTestMux(newFakeStore(), nil)

	rw := do(t, mux, http.MethodPut, "/api/v1/business/hours", "", `{"spec":"hr{9-17}"}`)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without business id, got %d", rw.Code)
	}

	rw = do(t, mux, http.MethodPut, "/api/v1/business/hours", "biz-1", `{"spec":"hr{9-17}","timezone":"Mars/Olympus"}`)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad timezone, got %d", rw.Code)
	}

	rw = do(t, mux, http.MethodPut, "/api/v1/business/hours", "biz-1", `{"spec":"hr {24}"}`)
	if rw.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rw.Code)
	}
	var res parseErrorResponse
	if err := json.NewDecoder(rw.Body).Decode(&res); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if res.Field != "hour-of-day" || res.Token != "24" {
		t.Fatalf("unexpected parse error body: %+v", res)
	}
}

func TestPutHours_MissingSpec(t *testing.T) {
	store := newFakeStore()
	mux := newTestMux(store, nil)

	for _, body := range []string{`{"timezone":"UTC"}`, `{"spec":null}`} {
		rw := do(t, mux, http.MethodPut, "/api/v1/business/hours", "biz-1", body)
		if rw.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d: %s", body, rw.Code, rw.Body.String())
		}
	}
	if store.saves != 0 || len(store.rows) != 0 {
		t.Fatalf("expected nothing stored, got %d saves", store.saves)
	}

	// an explicit empty spec is always open
	rw := do(t, mux, http.MethodPut, "/api/v1/business/hours", "biz-1", `{"spec":"","timezone":"UTC"}`)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}

	rw = do(t, mux, http.MethodPost, "/api/v1/hours/evaluate", "", `{"timezone":"UTC"}`)
	if rw.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 from evaluate, got %d", rw.Code)
	}
}

func TestPutHours_RequiresRole(t *testing.T) {
	mux := newTestMux(newFakeStore(), nil, "owner")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/business/hours", strings.NewReader(`{"spec":"hr{9-17}"}`))
	req.Header.Set(httpx.BusinessIDHeader, "biz-1")
	req.Header.Set(auth.RoleHeader, "member")
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rw.Code)
	}
}

func TestGetAndDeleteHours(t *testing.T) {
	store := newFakeStore()
	store.rows["biz-1"] = storage.Hours{BusinessID: "biz-1", Spec: "hr{9-17}", Timezone: "UTC", Version: 4}
	mux := newTestMux(store, nil)

	rw := do(t, mux, http.MethodGet, "/api/v1/business/hours", "biz-1", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var res hoursResponse
	if err := json.NewDecoder(rw.Body).Decode(&res); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if res.Version != 4 || res.OpeningTriggers[0] != "0 9 * * *" {
		t.Fatalf("unexpected response: %+v", res)
	}

	if rw := do(t, mux, http.MethodDelete, "/api/v1/business/hours", "biz-1", ""); rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rw.Code)
	}
	if rw := do(t, mux, http.MethodDelete, "/api/v1/business/hours", "biz-1", ""); rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
	if rw := do(t, mux, http.MethodGet, "/api/v1/business/hours", "biz-1", ""); rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestStatus(t *testing.T) {
	store := newFakeStore()
	store.rows["biz-1"] = storage.Hours{BusinessID: "biz-1", Spec: "wday{Mon-Fri} hr{9-18}", Timezone: "UTC", Version: 1}
	c := &memCache{entries: map[string]cache.Entry{}}
	mux := newTestMux(store, c)

	rw := do(t, mux, http.MethodGet, "/api/v1/business/hours/status", "biz-1", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	var res statusResponse
	if err := json.NewDecoder(rw.Body).Decode(&res); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !res.Open || res.NextClosing == nil || !res.NextClosing.Equal(time.Date(2014, 4, 22, 19, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected status: %+v", res)
	}
	if res.MinutesBeforeOpening == nil || *res.MinutesBeforeOpening != 0 {
		t.Fatalf("expected 0 minutes before opening, got %v", res.MinutesBeforeOpening)
	}

	// second lookup is served from the cache
	rw = do(t, mux, http.MethodGet, "/api/v1/business/hours/status?at=2014-04-26T12:00:00Z", "biz-1", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if store.gets != 1 {
		t.Fatalf("expected 1 store read, got %d", store.gets)
	}
	res = statusResponse{}
	if err := json.NewDecoder(rw.Body).Decode(&res); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if res.Open || res.NextOpening == nil || !res.NextOpening.Equal(time.Date(2014, 4, 28, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected weekend status: %+v", res)
	}

	if rw := do(t, mux, http.MethodGet, "/api/v1/business/hours/status?at=yesterday", "biz-1", ""); rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad at, got %d", rw.Code)
	}
	if rw := do(t, mux, http.MethodGet, "/api/v1/business/hours/status", "biz-2", ""); rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestEvaluate(t *testing.T) {
	mux := newTestMux(newFakeStore(), nil)

	rw := do(t, mux, http.MethodPost, "/api/v1/hours/evaluate", "", `{"spec":"wday{Mon-Fri} hr{9-18}","timezone":"UTC"}`)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	var res struct {
		Periods         []string       `json:"periods"`
		OpeningTriggers []string       `json:"opening_triggers"`
		ClosingTriggers []string       `json:"closing_triggers"`
		Status          statusResponse `json:"status"`
	}
	if err := json.NewDecoder(rw.Body).Decode(&res); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !res.Status.Open {
		t.Fatalf("expected open on Tuesday morning, got %+v", res.Status)
	}
	if len(res.OpeningTriggers) != 1 || res.OpeningTriggers[0] != "0 9 * * 1-5" {
		t.Fatalf("unexpected opening triggers: %v", res.OpeningTriggers)
	}
	if len(res.ClosingTriggers) != 1 || res.ClosingTriggers[0] != "0 19 * * 1-5" {
		t.Fatalf("unexpected closing triggers: %v", res.ClosingTriggers)
	}

	rw = do(t, mux, http.MethodPost, "/api/v1/hours/evaluate", "", `{"spec":"hr {21-03}","at":"2014-04-22T23:30:00Z"}`)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	res.Status = statusResponse{}
	if err := json.NewDecoder(rw.Body).Decode(&res); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !res.Status.Open || len(res.Periods) != 2 {
		t.Fatalf("expected open across midnight with 2 periods, got %+v", res)
	}

	rw = do(t, mux, http.MethodPost, "/api/v1/hours/evaluate", "", `{"spec":"wday {su-wtf}"}`)
	if rw.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rw.Code)
	}
}
