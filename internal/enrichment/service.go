// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package enrichment

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Vagishmaurya/disaster-management/internal/cache"
	"github.com/Vagishmaurya/disaster-management/internal/logging"
	"github.com/Vagishmaurya/disaster-management/internal/metrics"
	"github.com/Vagishmaurya/disaster-management/internal/models"
	"github.com/Vagishmaurya/disaster-management/internal/store"
)

// Cache key kinds. Geocode results are stable for much longer than the
// social/official aggregations, so it gets its own TTL.
const (
	kindExtract  = "extract"
	kindGeocode  = "geocode"
	kindVerify   = "verify"
	kindSocial   = "social"
	kindOfficial = "official"
	kindResource = "resources"
)

// TTLs controls how long each enrichment kind stays cached.
type TTLs struct {
	Geocode time.Duration
	Default time.Duration
}

// Options configures a Service. Zero-value fields fall back to defaults.
type Options struct {
	Extractor LocationExtractor
	Geocoder  Geocoder
	Verifier  ImageVerifier
	Social    SocialMediaProvider
	Official  OfficialUpdatesProvider

	TTLs TTLs
	// Timeout bounds each provider call.
	Timeout time.Duration
	// Now is injectable for deterministic fallback timestamps in tests.
	Now func() time.Time
}

// Service is the enrichment pipeline. Provider calls go through per-provider
// circuit breakers; results flow through the shared TTL cache. A degraded
// provider never blocks the caller: contextual fallbacks take over, flagged
// with StatusDegraded and kept out of the cache.
type Service struct {
	cache     cache.Store
	resources store.ResourceStore

	extractor LocationExtractor
	geocoder  Geocoder
	verifier  ImageVerifier
	social    SocialMediaProvider
	official  OfficialUpdatesProvider

	ttls    TTLs
	timeout time.Duration
	now     func() time.Time

	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewService wires the pipeline. Nil providers default to the deterministic
// built-ins so the system works without any external service configured.
func NewService(c cache.Store, resources store.ResourceStore, opts Options) *Service {
	s := &Service{
		cache:     c,
		resources: resources,
		extractor: opts.Extractor,
		geocoder:  opts.Geocoder,
		verifier:  opts.Verifier,
		social:    opts.Social,
		official:  opts.Official,
		ttls:      opts.TTLs,
		timeout:   opts.Timeout,
		now:       opts.Now,
		breakers:  make(map[string]*gobreaker.CircuitBreaker[any]),
	}
	if s.extractor == nil {
		s.extractor = PatternExtractor{}
	}
	if s.geocoder == nil {
		s.geocoder = TableGeocoder{}
	}
	if s.verifier == nil {
		s.verifier = DigestVerifier{}
	}
	if s.ttls.Geocode <= 0 {
		s.ttls.Geocode = 24 * time.Hour
	}
	if s.ttls.Default <= 0 {
		s.ttls.Default = time.Hour
	}
	if s.timeout <= 0 {
		s.timeout = 5 * time.Second
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	for _, kind := range []string{kindExtract, kindGeocode, kindVerify, kindSocial, kindOfficial, kindResource} {
		s.breakers[kind] = newBreaker(kind)
	}
	return s
}

// newBreaker builds a circuit breaker for one provider. It opens after a 60%
// failure rate over at least 5 requests and probes again after 30 seconds.
func newBreaker(name string) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("enrichment breaker state change")
			metrics.EnrichmentBreakerTransitions.WithLabelValues(name, to.String()).Inc()
		},
	})
}

// lookup runs the cache-aside protocol for one enrichment kind: cache hit,
// else provider call through the breaker, else error. Fresh provider results
// are written back best-effort; a failing cache never fails the lookup.
func lookup[T any](ctx context.Context, s *Service, kind, input string, ttl time.Duration, call func(context.Context) (T, error)) (T, error) {
	var zero T
	key := cache.Key(kind, input)

	if raw, hit, err := s.cache.Get(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("kind", kind).Msg("cache read failed, falling through to provider")
	} else if hit {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
			return cached, nil
		}
		// A corrupt entry behaves like a miss.
		logging.Ctx(ctx).Warn().Str("kind", kind).Msg("discarding undecodable cache entry")
		_ = s.cache.Delete(ctx, key)
	}
	metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()

	result, err := s.breakers[kind].Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return call(callCtx)
	})
	if err != nil {
		metrics.EnrichmentRequests.WithLabelValues(kind, "failure").Inc()
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("enrichment %s: unexpected result type %T", kind, result)
	}
	metrics.EnrichmentRequests.WithLabelValues(kind, "success").Inc()

	if raw, err := json.Marshal(typed); err == nil {
		if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("kind", kind).Msg("cache write failed")
		}
	}
	return typed, nil
}

// ExtractLocation derives a place name from descriptive text. Provider errors
// propagate: the disaster create/update flow decides how to proceed without a
// location rather than silently accepting a fabricated one.
func (s *Service) ExtractLocation(ctx context.Context, description string) (models.LocationExtraction, error) {
	return lookup(ctx, s, kindExtract, description, s.ttls.Default, func(ctx context.Context) (models.LocationExtraction, error) {
		return s.extractor.ExtractLocation(ctx, description)
	})
}

// Geocode resolves a place name to coordinates. Errors propagate for the same
// reason as ExtractLocation.
func (s *Service) Geocode(ctx context.Context, locationName string) (models.GeocodeResult, error) {
	if locationName == "" {
		return models.GeocodeResult{}, fmt.Errorf("geocode: empty location name")
	}
	return lookup(ctx, s, kindGeocode, locationName, s.ttls.Geocode, func(ctx context.Context) (models.GeocodeResult, error) {
		return s.geocoder.Geocode(ctx, locationName)
	})
}

// VerifyImage analyzes a report image. When the verifier is unreachable the
// result degrades to a pending status so the report stays reviewable.
func (s *Service) VerifyImage(ctx context.Context, imageURL string) Result[models.VerificationResult] {
	v, err := lookup(ctx, s, kindVerify, imageURL, s.ttls.Default, func(ctx context.Context) (models.VerificationResult, error) {
		return s.verifier.VerifyImage(ctx, imageURL)
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("image verification degraded")
		metrics.EnrichmentFallbacks.WithLabelValues(kindVerify).Inc()
		return degraded(models.VerificationResult{
			Status:      models.VerificationPending,
			Confidence:  0,
			Summary:     "Verification service unavailable; manual review required",
			ProcessedAt: s.now(),
		}, "fallback")
	}
	return ok(v, "provider")
}

// SocialMedia aggregates social posts for a disaster, falling back to
// contextual synthetic posts when the provider is unavailable.
func (s *Service) SocialMedia(ctx context.Context, d *models.Disaster) Result[[]models.SocialPost] {
	posts, err := lookup(ctx, s, kindSocial, d.ID, s.ttls.Default, func(ctx context.Context) ([]models.SocialPost, error) {
		if s.social == nil {
			return nil, fmt.Errorf("social media provider not configured")
		}
		return s.social.SocialMedia(ctx, d)
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("disaster_id", d.ID).Msg("social media aggregation degraded")
		metrics.EnrichmentFallbacks.WithLabelValues(kindSocial).Inc()
		return degraded(fallbackSocialPosts(d, s.now()), "fallback")
	}
	return ok(posts, "provider")
}

// OfficialUpdates aggregates relief-organization updates for a disaster,
// falling back to contextual synthetic updates when the provider is
// unavailable.
func (s *Service) OfficialUpdates(ctx context.Context, d *models.Disaster) Result[[]models.OfficialUpdate] {
	updates, err := lookup(ctx, s, kindOfficial, d.ID, s.ttls.Default, func(ctx context.Context) ([]models.OfficialUpdate, error) {
		if s.official == nil {
			return nil, fmt.Errorf("official updates provider not configured")
		}
		return s.official.OfficialUpdates(ctx, d)
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("disaster_id", d.ID).Msg("official updates aggregation degraded")
		metrics.EnrichmentFallbacks.WithLabelValues(kindOfficial).Inc()
		return degraded(fallbackOfficialUpdates(d, s.now()), "fallback")
	}
	return ok(updates, "provider")
}

// NearbyResources finds relief resources near the disaster's coordinates.
// Without coordinates, or when the geospatial query yields nothing, it
// synthesizes a contextual set around the disaster so clients always have
// something to render.
func (s *Service) NearbyResources(ctx context.Context, d *models.Disaster, radiusKm float64, limit int) Result[[]models.Resource] {
	if d.Location == nil {
		metrics.EnrichmentFallbacks.WithLabelValues(kindResource).Inc()
		return degraded(fallbackResources(d, models.Coordinates{}, s.now()), "fallback")
	}
	center := *d.Location

	input := fmt.Sprintf("%s:%.4f:%.4f:%.1f", d.ID, center.Lat, center.Lng, radiusKm)
	found, err := lookup(ctx, s, kindResource, input, s.ttls.Default, func(ctx context.Context) ([]models.Resource, error) {
		return s.resources.NearbyResources(ctx, center, radiusKm, limit)
	})
	if err != nil || len(found) == 0 {
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("disaster_id", d.ID).Msg("resource lookup degraded")
		}
		metrics.EnrichmentFallbacks.WithLabelValues(kindResource).Inc()
		return degraded(fallbackResources(d, center, s.now()), "fallback")
	}
	return ok(found, "store")
}
