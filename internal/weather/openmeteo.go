package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quakepredict/quakepredict-go/internal/conf"
	"github.com/quakepredict/quakepredict-go/internal/errors"
)

const (
	openMeteoProviderName = "openmeteo"
	forecastPath          = "/v1/forecast"
	maxBodyPreviewSize    = 200 // Maximum characters to show in error logs
)

// OpenMeteoProvider fetches daily observation windows from the Open-Meteo
// forecast API. The API needs no key.
type OpenMeteoProvider struct {
	baseURL      string
	pastDays     int
	forecastDays int
	client       *http.Client
}

// NewOpenMeteoProvider creates a provider from the weather settings.
func NewOpenMeteoProvider(settings *conf.Settings) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		baseURL:      settings.Weather.BaseURL,
		pastDays:     settings.Weather.PastDays,
		forecastDays: settings.Weather.ForecastDays,
		client: &http.Client{
			Timeout: time.Duration(settings.Weather.RequestTimeout) * time.Second,
		},
	}
}

// openMeteoResponse mirrors the daily block of the Open-Meteo forecast
// response. The API reports per-day aligned series of equal length; values
// can be null for days the model has no data for.
type openMeteoResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		TemperatureMean  []*float64 `json:"temperature_2m_mean"`
		PressureMean     []*float64 `json:"pressure_msl_mean"`
	} `json:"daily"`
}

func newUpstreamError(cause error, category errors.ErrorCategory, operation string) error {
	return errors.New(fmt.Errorf("%w: %w", ErrUpstream, cause)).
		Component("weather").
		Category(category).
		Context("operation", operation).
		Context("provider", openMeteoProviderName).
		Build()
}

// truncateBodyPreview truncates response body for logging
func truncateBodyPreview(body string) string {
	if len(body) > maxBodyPreviewSize {
		return body[:maxBodyPreviewSize] + "... (truncated)"
	}
	return body
}

// FetchWindow implements the Provider interface for OpenMeteoProvider. It
// requests the daily precipitation sum, mean 2m temperature and mean
// sea-level pressure for the configured lookback plus the current day,
// anchored to the location's local timezone.
func (p *OpenMeteoProvider) FetchWindow(ctx context.Context, lat, lon float64) (*Window, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", lat))
	params.Set("longitude", fmt.Sprintf("%.4f", lon))
	params.Set("daily", "precipitation_sum,temperature_2m_mean,pressure_msl_mean")
	params.Set("timezone", "auto")
	params.Set("past_days", fmt.Sprintf("%d", p.pastDays))
	params.Set("forecast_days", fmt.Sprintf("%d", p.forecastDays))

	apiURL := p.baseURL + forecastPath + "?" + params.Encode()

	logger := weatherLogger.With("provider", openMeteoProviderName)
	logger.Debug("Fetching weather window", "url", apiURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, newUpstreamError(err, errors.CategoryNetwork, "create_http_request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, newUpstreamError(err, errors.CategoryNetwork, "forecast_api_request")
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		logger.Warn("Received non-OK status code",
			"status_code", resp.StatusCode,
			"response_body", truncateBodyPreview(string(bodyBytes)),
		)
		return nil, newUpstreamError(
			fmt.Errorf("received non-OK response (%d)", resp.StatusCode),
			errors.CategoryNetwork,
			"forecast_api_response",
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newUpstreamError(err, errors.CategoryNetwork, "read_response_body")
	}

	var response openMeteoResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, newUpstreamError(err, errors.CategoryValidation, "unmarshal_forecast_data")
	}

	return mapOpenMeteoResponse(&response, lat, lon)
}

// mapOpenMeteoResponse converts the raw daily series into a Window. The
// three series must align with the time axis; days with null values are
// dropped rather than fabricated.
func mapOpenMeteoResponse(response *openMeteoResponse, lat, lon float64) (*Window, error) {
	daily := &response.Daily
	n := len(daily.Time)
	if n == 0 {
		return nil, newUpstreamError(
			fmt.Errorf("no daily data in forecast response"),
			errors.CategoryValidation,
			"validate_forecast_response",
		)
	}
	if len(daily.PrecipitationSum) != n || len(daily.TemperatureMean) != n || len(daily.PressureMean) != n {
		return nil, newUpstreamError(
			fmt.Errorf("misaligned daily series: time=%d precip=%d temp=%d pressure=%d",
				n, len(daily.PrecipitationSum), len(daily.TemperatureMean), len(daily.PressureMean)),
			errors.CategoryValidation,
			"validate_forecast_response",
		)
	}

	window := &Window{
		Latitude:     lat,
		Longitude:    lon,
		Observations: make([]Observation, 0, n),
	}
	for i := range n {
		if daily.PrecipitationSum[i] == nil || daily.TemperatureMean[i] == nil || daily.PressureMean[i] == nil {
			continue
		}
		window.Observations = append(window.Observations, Observation{
			Date:          daily.Time[i],
			Precipitation: *daily.PrecipitationSum[i],
			Temperature:   *daily.TemperatureMean[i],
			Pressure:      *daily.PressureMean[i],
		})
	}

	if window.Len() == 0 {
		return nil, newUpstreamError(
			fmt.Errorf("forecast response contains no usable observations"),
			errors.CategoryValidation,
			"validate_forecast_response",
		)
	}

	return window, nil
}
