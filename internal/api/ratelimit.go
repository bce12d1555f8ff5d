package api

import (
	"encoding/json/v2"
	"net/http"
	"strings"

	domainerrors "github.com/planetarium/planetarium-server/internal/errors"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/ratelimit"
)

// RateLimitMiddleware limits requests by client IP on paths under prefix.
// Returns 429 Too Many Requests in the standard envelope when exceeded.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, prefix string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}

			key := getClientIP(r)
			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
				writeRateLimited(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	//nolint:errcheck // nothing useful to do when the client is gone
	json.MarshalWrite(w, &Envelope{
		V:       envelopeVersion,
		Success: false,
		Error: &APIError{
			status:  http.StatusTooManyRequests,
			Code:    string(domainerrors.CodeUnavailable),
			Message: "Too many requests. Please try again later.",
		},
	})
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the client.
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return xff[:i]
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// RemoteAddr carries a port, strip it.
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
