// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Vagishmaurya/disaster-management/internal/config"
	"github.com/Vagishmaurya/disaster-management/internal/logging"
	"github.com/Vagishmaurya/disaster-management/internal/metrics"
)

// Admission tiers. Budgets per tier are per client IP over a fixed window;
// health and readiness probes bypass admission entirely.
const (
	TierGeneral = "general"
	TierStrict  = "strict"
	TierAI      = "ai"
)

// ChiMiddleware builds the middleware stack from the rate limit and CORS
// configuration.
type ChiMiddleware struct {
	cfg         *config.Config
	corsHandler func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory.
func NewChiMiddleware(cfg *config.Config) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &ChiMiddleware{
		cfg:         cfg,
		corsHandler: corsHandler,
	}
}

// CORS returns the go-chi/cors handler for the configured origins.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.corsHandler
}

// RateLimitGeneral limits standard CRUD traffic.
func (m *ChiMiddleware) RateLimitGeneral() func(http.Handler) http.Handler {
	return m.tier(TierGeneral, m.cfg.RateLimit.GeneralRequests, m.cfg.RateLimit.GeneralWindow)
}

// RateLimitStrict limits resource-intensive enrichment reads.
func (m *ChiMiddleware) RateLimitStrict() func(http.Handler) http.Handler {
	return m.tier(TierStrict, m.cfg.RateLimit.StrictRequests, m.cfg.RateLimit.StrictWindow)
}

// RateLimitAI limits endpoints that trigger external provider calls.
func (m *ChiMiddleware) RateLimitAI() func(http.Handler) http.Handler {
	return m.tier(TierAI, m.cfg.RateLimit.AIRequests, m.cfg.RateLimit.AIWindow)
}

// tier builds one httprate fixed-window limiter keyed by client IP. The
// rejection response is the standard envelope with a Retry-After hint.
func (m *ChiMiddleware) tier(name string, requests int, window time.Duration) func(http.Handler) http.Handler {
	if m.cfg.RateLimit.Disabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitRejection(name, window)),
	)
}

// rateLimitRejection writes the 429 envelope and records the rejection.
func rateLimitRejection(tier string, window time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RecordRateLimitRejection(tier)
		logging.Ctx(r.Context()).Warn().
			Str("tier", tier).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Msg("Rate limit exceeded")

		w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
		rw := NewResponseWriter(w, r)
		rw.Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded, slow down")
	}
}

// RequestIDWithLogging adds a request ID to the context and seeds the
// logging context with request and correlation IDs so every log line in the
// request's path carries them.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		chiRequestID := chimiddleware.RequestID(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateRequestID()
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ContextWithNewCorrelationID(ctx)

			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SecurityHeaders sets baseline security headers on every response.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}
