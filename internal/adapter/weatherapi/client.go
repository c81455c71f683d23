// Package weatherapi fetches current weather readings from the upstream
// weather service over HTTP, with retries, exponential backoff, and a
// circuit breaker so a flapping upstream cannot stall evaluation cycles.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
)

// BackoffConfig controls retry behaviour for upstream requests.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var defaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Client fetches weather for a farmer's registered area.
type Client struct {
	baseURL string
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// New creates a Client for the given base URL. A nil http.Client falls back
// to a 10 second timeout default.
func New(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		client:  client,
		backoff: defaultBackoff,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "weatherapi",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// currentResponse is the upstream wire format for a current-conditions read.
type currentResponse struct {
	TemperatureC float64   `json:"temperature_c"`
	Humidity     float64   `json:"humidity"`
	RainfallMm   float64   `json:"rainfall_mm"`
	WindSpeedMs  float64   `json:"wind_speed_ms"`
	RainChance   *float64  `json:"rain_chance,omitempty"`
	ObservedAt   time.Time `json:"observed_at"`
}

// FetchWeather returns the sanitized current reading for the farmer's area.
func (c *Client) FetchWeather(ctx context.Context, farmerID string) (*domain.WeatherReading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("farmer_id", farmerID)
		u := fmt.Sprintf("%s/v1/current?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := c.doWithResilience(ctx, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("weatherapi: %w", err)
	}
	defer resp.Body.Close()

	var payload currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("weatherapi: decode response: %w", err)
	}

	ts := payload.ObservedAt
	if ts.IsZero() {
		ts = domain.Now().UTC()
	}

	reading := domain.WeatherReading{
		Temperature: payload.TemperatureC,
		Humidity:    payload.Humidity,
		RainfallMm:  payload.RainfallMm,
		WindSpeedMs: payload.WindSpeedMs,
		RainChance:  payload.RainChance,
		Timestamp:   ts,
	}.Sanitized()

	return &reading, nil
}

// doWithResilience executes the request with retries, exponential backoff,
// and the circuit breaker. An open circuit fails fast without retrying.
func (c *Client) doWithResilience(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
