package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/openhours/libs/hours"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/metrics"
)

type statusResponse struct {
	Open                 bool       `json:"open"`
	AlwaysOpen           bool       `json:"always_open"`
	At                   time.Time  `json:"at"`
	Timezone             string     `json:"timezone"`
	NextOpening          *time.Time `json:"next_opening,omitempty"`
	NextClosing          *time.Time `json:"next_closing,omitempty"`
	MinutesBeforeOpening *int64     `json:"minutes_before_opening,omitempty"`
}

// describe evaluates bh at the instant at, read in loc.
func describe(bh *hours.BusinessHours, loc *time.Location, at time.Time) statusResponse {
	local := at.In(loc)
	res := statusResponse{
		Open:       bh.IsOpen(local),
		AlwaysOpen: bh.AlwaysOpen(),
		At:         local,
		Timezone:   loc.String(),
	}
	if t, ok := bh.NextOpening(local); ok {
		res.NextOpening = &t
	}
	if t, ok := bh.NextClosing(local); ok {
		res.NextClosing = &t
	}
	if mins := bh.TimeBeforeOpening(local, time.Minute); mins != hours.Unbounded {
		// reported as 0 while open
		if res.Open {
			mins = 0
		}
		res.MinutesBeforeOpening = &mins
	}
	if res.Open {
		metrics.Evaluations.WithLabelValues("open").Inc()
	} else {
		metrics.Evaluations.WithLabelValues("closed").Inc()
	}
	return res
}

// parseAt reads an RFC 3339 instant, defaulting to now when raw is empty.
func parseAt(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}
	return time.Parse(time.RFC3339, raw)
}

type parseErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Token string `json:"token,omitempty"`
}

// writeParseError reports a missing or rejected spec as 422 with the
// offending field and token when known.
func writeParseError(w http.ResponseWriter, err error) {
	metrics.ParseErrors.Inc()
	res := parseErrorResponse{Error: err.Error()}
	var pe *hours.ParseError
	if errors.As(err, &pe) {
		res.Field = pe.Field.String()
		res.Token = pe.Token
	}
	writeJSON(w, http.StatusUnprocessableEntity, res)
}
