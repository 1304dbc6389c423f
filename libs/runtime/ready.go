package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name     string
	Check    func(context.Context) error
	Optional bool // reported, but never fails readiness
}

type checkResult struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Optional bool   `json:"optional,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewBaseMuxWithReady registers /healthz and a /readyz that runs every check
// and reports each result as JSON.
func NewBaseMuxWithReady(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		status, results := runChecks(r.Context(), checks)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ready":  status == http.StatusOK,
			"checks": results,
		})
	})
	return mux
}

// Ready runs checks and reports whether every required one passed.
func Ready(ctx context.Context, checks ...ReadyCheck) bool {
	status, _ := runChecks(ctx, checks)
	return status == http.StatusOK
}

func runChecks(ctx context.Context, checks []ReadyCheck) (int, []checkResult) {
	status := http.StatusOK
	results := make([]checkResult, 0, len(checks))
	for _, check := range checks {
		if check.Check == nil {
			continue
		}
		name := check.Name
		if name == "" {
			name = "dependency"
		}
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check.Check(checkCtx)
		cancel()

		res := checkResult{Name: name, OK: err == nil, Optional: check.Optional}
		if err != nil {
			res.Error = err.Error()
			if !check.Optional {
				status = http.StatusServiceUnavailable
			}
		}
		results = append(results, res)
	}
	return status, results
}
