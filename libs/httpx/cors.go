package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lets browser dashboards read opening status from another origin.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	defaultCORSHeaders = []string{"Authorization", "Content-Type", RequestIDHeader, BusinessIDHeader}
)

// WithCORS is a no-op when no origin is allowed.
func WithCORS(p CORSPolicy) Middleware {
	if len(p.AllowedOrigins) == 0 {
		return nil
	}
	methods := p.AllowedMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	headers := p.AllowedHeaders
	if len(headers) == 0 {
		headers = defaultCORSHeaders
	}
	allowMethods := strings.Join(methods, ", ")
	allowHeaders := strings.Join(headers, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			allowed, ok := p.allow(origin)
			if !ok {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", allowed)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
			if p.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			if p.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(int(p.MaxAge/time.Second)))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// allow returns the Access-Control-Allow-Origin value for origin. A wildcard
// is echoed back as the origin when credentials are allowed.
func (p CORSPolicy) allow(origin string) (string, bool) {
	for _, candidate := range p.AllowedOrigins {
		switch {
		case candidate == "*" && p.AllowCredentials:
			return origin, true
		case candidate == "*":
			return "*", true
		case strings.EqualFold(candidate, origin):
			return origin, true
		}
	}
	return "", false
}
