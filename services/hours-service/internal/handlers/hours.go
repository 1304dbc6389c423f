package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/openhours/libs/auth"
	"github.com/md-rashed-zaman/openhours/libs/hours"
	"github.com/md-rashed-zaman/openhours/libs/httpx"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/cache"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/storage"
)

type Store interface {
	Get(ctx context.Context, businessID string) (storage.Hours, error)
	Save(ctx context.Context, h storage.Hours, opening, closing []string) (storage.Hours, error)
	Delete(ctx context.Context, businessID string) error
}

type Handler struct {
	store    Store
	cache    cache.Cache
	logger   *slog.Logger
	timezone string
	now      func() time.Time
}

// New returns handlers for the hours API. timezone is used for specs saved
// without one.
func New(store Store, c cache.Cache, logger *slog.Logger, timezone string) *Handler {
	if c == nil {
		c = cache.Noop{}
	}
	if timezone == "" {
		timezone = "UTC"
	}
	return &Handler{store: store, cache: c, logger: logger, timezone: timezone, now: time.Now}
}

// Register mounts the API on mux. When writeRoles is non-empty, changing or
// deleting hours requires one of them.
func (h *Handler) Register(mux *http.ServeMux, writeRoles ...string) {
	var put, del http.Handler = http.HandlerFunc(h.PutHours), http.HandlerFunc(h.DeleteHours)
	if len(writeRoles) > 0 {
		put = auth.RequireRole(put, writeRoles...)
		del = auth.RequireRole(del, writeRoles...)
	}
	mux.HandleFunc("GET /api/v1/business/hours", h.GetHours)
	mux.Handle("PUT /api/v1/business/hours", put)
	mux.Handle("DELETE /api/v1/business/hours", del)
	mux.HandleFunc("GET /api/v1/business/hours/status", h.Status)
	mux.HandleFunc("POST /api/v1/hours/evaluate", h.Evaluate)
}

type hoursResponse struct {
	BusinessID      string    `json:"business_id"`
	Spec            string    `json:"spec"`
	Timezone        string    `json:"timezone"`
	Version         int64     `json:"version"`
	OpeningTriggers []string  `json:"opening_triggers"`
	ClosingTriggers []string  `json:"closing_triggers"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

func (h *Handler) GetHours(w http.ResponseWriter, r *http.Request) {
	businessID := httpx.BusinessID(r)
	if businessID == "" {
		http.Error(w, "missing X-Business-Id", http.StatusBadRequest)
		return
	}

	stored, err := h.store.Get(r.Context(), businessID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "business hours not found", http.StatusNotFound)
		return
	}
	if err != nil {
		httpx.Logger(r.Context(), h.logger).Error("load hours failed", "err", err)
		http.Error(w, "failed to load business hours", http.StatusInternalServerError)
		return
	}

	bh, err := hours.New(stored.Spec)
	if err != nil {
		httpx.Logger(r.Context(), h.logger).Error("stored hours do not parse", "business_id", businessID, "err", err)
		http.Error(w, "stored business hours are invalid", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(stored, bh))
}

func (h *Handler) PutHours(w http.ResponseWriter, r *http.Request) {
	businessID := httpx.BusinessID(r)
	if businessID == "" {
		http.Error(w, "missing X-Business-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Spec     *string `json:"spec"`
		Timezone string  `json:"timezone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	spec := trimmed(req.Spec)
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.Timezone == "" {
		req.Timezone = h.timezone
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		http.Error(w, "invalid timezone", http.StatusBadRequest)
		return
	}

	bh, err := hours.NewOptional(spec)
	if err != nil {
		writeParseError(w, err)
		return
	}

	saved, err := h.store.Save(r.Context(), storage.Hours{
		BusinessID: businessID,
		Spec:       *spec,
		Timezone:   req.Timezone,
	}, bh.OpeningTriggers(), bh.ClosingTriggers())
	if err != nil {
		httpx.Logger(r.Context(), h.logger).Error("save hours failed", "err", err)
		http.Error(w, "failed to save business hours", http.StatusInternalServerError)
		return
	}

	if err := h.cache.Set(r.Context(), businessID, cache.Entry{Spec: saved.Spec, Timezone: saved.Timezone, Version: saved.Version}); err != nil {
		httpx.Logger(r.Context(), h.logger).Warn("cache update failed", "err", err)
		_ = h.cache.Delete(r.Context(), businessID)
	}
	writeJSON(w, http.StatusOK, toResponse(saved, bh))
}

func (h *Handler) DeleteHours(w http.ResponseWriter, r *http.Request) {
	businessID := httpx.BusinessID(r)
	if businessID == "" {
		http.Error(w, "missing X-Business-Id", http.StatusBadRequest)
		return
	}

	err := h.store.Delete(r.Context(), businessID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "business hours not found", http.StatusNotFound)
		return
	}
	if err != nil {
		httpx.Logger(r.Context(), h.logger).Error("delete hours failed", "err", err)
		http.Error(w, "failed to delete business hours", http.StatusInternalServerError)
		return
	}
	if err := h.cache.Delete(r.Context(), businessID); err != nil {
		httpx.Logger(r.Context(), h.logger).Warn("cache delete failed", "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status reports whether the business is open at ?at= (RFC 3339, default
// now), evaluated in the business's timezone.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	businessID := httpx.BusinessID(r)
	if businessID == "" {
		http.Error(w, "missing X-Business-Id", http.StatusBadRequest)
		return
	}
	at, err := parseAt(r.URL.Query().Get("at"), h.now())
	if err != nil {
		http.Error(w, "invalid at (RFC3339 expected)", http.StatusBadRequest)
		return
	}

	entry, err := h.load(r.Context(), businessID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "business hours not found", http.StatusNotFound)
		return
	}
	if err != nil {
		httpx.Logger(r.Context(), h.logger).Error("load hours failed", "err", err)
		http.Error(w, "failed to load business hours", http.StatusInternalServerError)
		return
	}

	bh, err := hours.New(entry.Spec)
	if err != nil {
		httpx.Logger(r.Context(), h.logger).Error("stored hours do not parse", "business_id", businessID, "err", err)
		http.Error(w, "stored business hours are invalid", http.StatusInternalServerError)
		return
	}
	loc, err := time.LoadLocation(entry.Timezone)
	if err != nil {
		http.Error(w, "stored timezone is invalid", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, describe(bh, loc, at))
}

// Evaluate parses a spec without storing it and reports its triggers and
// state at the requested instant.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Spec     *string `json:"spec"`
		Timezone string  `json:"timezone"`
		At       string  `json:"at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Timezone) == "" {
		req.Timezone = h.timezone
	}
	loc, err := time.LoadLocation(strings.TrimSpace(req.Timezone))
	if err != nil {
		http.Error(w, "invalid timezone", http.StatusBadRequest)
		return
	}
	at, err := parseAt(req.At, h.now())
	if err != nil {
		http.Error(w, "invalid at (RFC3339 expected)", http.StatusBadRequest)
		return
	}

	bh, err := hours.NewOptional(trimmed(req.Spec))
	if err != nil {
		writeParseError(w, err)
		return
	}

	periods := make([]string, 0, len(bh.Periods()))
	for _, p := range bh.Periods() {
		periods = append(periods, p.String())
	}
	writeJSON(w, http.StatusOK, struct {
		Periods         []string       `json:"periods"`
		OpeningTriggers []string       `json:"opening_triggers"`
		ClosingTriggers []string       `json:"closing_triggers"`
		Status          statusResponse `json:"status"`
	}{
		Periods:         periods,
		OpeningTriggers: bh.OpeningTriggers(),
		ClosingTriggers: bh.ClosingTriggers(),
		Status:          describe(bh, loc, at),
	})
}

// trimmed keeps an absent spec absent; "spec": "" is the always-open spec.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// load reads through the cache. Cache failures fall back to the store.
func (h *Handler) load(ctx context.Context, businessID string) (cache.Entry, error) {
	entry, ok, err := h.cache.Get(ctx, businessID)
	if err != nil {
		httpx.Logger(ctx, h.logger).Warn("cache read failed", "err", err)
	}
	if ok {
		return entry, nil
	}

	stored, err := h.store.Get(ctx, businessID)
	if err != nil {
		return cache.Entry{}, err
	}
	entry = cache.Entry{Spec: stored.Spec, Timezone: stored.Timezone, Version: stored.Version}
	if err := h.cache.Set(ctx, businessID, entry); err != nil {
		httpx.Logger(ctx, h.logger).Warn("cache fill failed", "err", err)
	}
	return entry, nil
}

func toResponse(stored storage.Hours, bh *hours.BusinessHours) hoursResponse {
	return hoursResponse{
		BusinessID:      stored.BusinessID,
		Spec:            stored.Spec,
		Timezone:        stored.Timezone,
		Version:         stored.Version,
		OpeningTriggers: bh.OpeningTriggers(),
		ClosingTriggers: bh.ClosingTriggers(),
		UpdatedAt:       stored.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
