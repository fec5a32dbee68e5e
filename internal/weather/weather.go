// Package weather fetches the rolling daily observation window used for
// feature extraction.
package weather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/quakepredict/quakepredict-go/internal/conf"
	"github.com/quakepredict/quakepredict-go/internal/errors"
	"github.com/quakepredict/quakepredict-go/internal/logging"
	"github.com/quakepredict/quakepredict-go/internal/observability"
)

// Package-level logger for weather service
var (
	weatherLogger   *slog.Logger
	weatherLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	weatherLevelVar.Set(slog.LevelInfo)

	weatherLogger, _, err = logging.NewFileLogger("logs/weather.log", "weather", weatherLevelVar)
	if err != nil {
		logging.Error("Failed to initialize weather file logger", "error", err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: weatherLevelVar})
		weatherLogger = slog.New(fbHandler).With("service", "weather")
	}
}

// ErrUpstream marks failures of the external forecast service: transport
// errors, non-success responses and malformed payloads. Callers treat it as
// a per-region failure and continue with the remaining regions.
var ErrUpstream = errors.NewStd("weather upstream unavailable")

// Observation is a single day of weather data for one location.
type Observation struct {
	Date          string  // calendar day, YYYY-MM-DD, provider local time
	Precipitation float64 // daily precipitation sum, mm
	Temperature   float64 // daily mean 2m temperature, °C
	Pressure      float64 // daily mean sea-level pressure, hPa
}

// Window is an ordered sequence of daily observations covering the lookback
// period plus the current day. It is transient, constructed per inference
// call and discarded after feature extraction.
type Window struct {
	Latitude     float64
	Longitude    float64
	Observations []Observation
}

// Len returns the number of observations in the window.
func (w *Window) Len() int {
	return len(w.Observations)
}

// Provider represents a weather data provider
type Provider interface {
	FetchWindow(ctx context.Context, lat, lon float64) (*Window, error)
}

// Service handles weather window retrieval with a short-lived in-process
// cache so a retried compute batch does not hammer the upstream API. The TTL
// stays well under a day, the cache never masks a new day's data.
type Service struct {
	provider Provider
	settings *conf.Settings
	cache    *cache.Cache
	metrics  *observability.WeatherMetrics
}

// NewService creates a new weather service with the configured provider.
func NewService(settings *conf.Settings, metrics *observability.WeatherMetrics) (*Service, error) {
	var provider Provider

	switch settings.Weather.Provider {
	case "openmeteo":
		provider = NewOpenMeteoProvider(settings)
	default:
		return nil, errors.New(fmt.Errorf("invalid weather provider: %s", settings.Weather.Provider)).
			Component("weather").
			Category(errors.CategoryConfiguration).
			Context("provider", settings.Weather.Provider).
			Build()
	}

	ttl := time.Duration(settings.Weather.CacheTTL) * time.Minute
	return &Service{
		provider: provider,
		settings: settings,
		cache:    cache.New(ttl, 2*ttl),
		metrics:  metrics,
	}, nil
}

// FetchWindow returns the daily observation window for the given coordinates,
// serving from the in-process cache when a fresh copy exists.
func (s *Service) FetchWindow(ctx context.Context, lat, lon float64) (*Window, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if cached, found := s.cache.Get(key); found {
		weatherLogger.Debug("Serving weather window from cache", "key", key)
		if s.metrics != nil {
			s.metrics.RecordCacheHit()
		}
		return cached.(*Window), nil
	}

	start := time.Now()
	window, err := s.provider.FetchWindow(ctx, lat, lon)
	if s.metrics != nil {
		s.metrics.RecordFetchDuration(s.settings.Weather.Provider, time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordFetch(s.settings.Weather.Provider, "error")
		}
		weatherLogger.Error("Failed to fetch weather window",
			"provider", s.settings.Weather.Provider,
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordFetch(s.settings.Weather.Provider, "success")
	}

	weatherLogger.Info("Fetched weather window",
		"provider", s.settings.Weather.Provider,
		"lat", lat,
		"lon", lon,
		"days", window.Len(),
	)

	s.cache.Set(key, window, cache.DefaultExpiration)
	return window, nil
}
