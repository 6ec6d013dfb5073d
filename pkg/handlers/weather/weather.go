// Package weather provides the "Weather" response handler.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/majbot/internal/logging"
)

// Name is the handler name rules use in their className.
const Name = "Weather"

// DefaultBaseURL points at a wttr.in compatible service.
const DefaultBaseURL = "https://wttr.in"

// ErrNoCity is returned when neither the utterance nor the rule names a city.
var ErrNoCity = errors.New("no city given")

// Forecaster fetches a short forecast line for a city.
type Forecaster interface {
	Forecast(ctx context.Context, city, when string) (string, error)
}

// Handler adapts a Forecaster to the registry handler signature.
type Handler struct {
	Forecaster Forecaster
}

// New returns a Handler backed by f.
func New(f Forecaster) *Handler {
	return &Handler{Forecaster: f}
}

// Handle answers a dispatch. The captured text is the city and arg qualifies the period
// ("today", "tomorrow"). Rules without a capture may carry the city in arg instead.
func (h *Handler) Handle(ctx context.Context, arg, captured string) (string, error) {
	city, when := strings.TrimSpace(captured), strings.TrimSpace(arg)
	if city == "" {
		city, when = when, ""
	}
	if city == "" {
		return "", ErrNoCity
	}

	line, err := h.Forecaster.Forecast(ctx, city, when)
	if err != nil {
		return "", err
	}
	if when == "" {
		return fmt.Sprintf("Weather in %s: %s", city, line), nil
	}
	return fmt.Sprintf("Weather in %s %s: %s", city, when, line), nil
}

// HTTPForecaster queries {BaseURL}/{city}?format=... and returns the single line body.
type HTTPForecaster struct {
	BaseURL    string
	Client     *http.Client
	MaxRetries int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Option configures an HTTPForecaster.
type Option func(*HTTPForecaster)

// WithBaseURL overrides the forecast service URL.
func WithBaseURL(base string) Option {
	return func(f *HTTPForecaster) {
		f.BaseURL = strings.TrimRight(base, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPForecaster) {
		f.Client.Timeout = d
	}
}

// WithRetries sets how many times a failed request is retried and the base backoff.
func WithRetries(n int, delay time.Duration) Option {
	return func(f *HTTPForecaster) {
		f.MaxRetries = n
		f.RetryDelay = delay
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPForecaster) {
		f.Logger = logger
	}
}

// NewHTTPForecaster creates a forecaster with sane defaults.
func NewHTTPForecaster(opts ...Option) *HTTPForecaster {
	f := &HTTPForecaster{
		BaseURL:    DefaultBaseURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forecast fetches the current conditions for city.
func (f *HTTPForecaster) Forecast(ctx context.Context, city, when string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", f.BaseURL, url.PathEscape(city), url.Values{"format": {"%C %t"}}.Encode())

	var lastErr error
	for attempt := 0; attempt <= f.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(f.RetryDelay, attempt)
			f.Logger.Debug("retrying forecast", "city", city, "attempt", attempt, "delay", delay, "err", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		line, retry, err := f.fetch(ctx, endpoint)
		if err == nil {
			return line, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return "", fmt.Errorf("forecast for %s: %w", city, lastErr)
}

func (f *HTTPForecaster) fetch(ctx context.Context, endpoint string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "curl/8.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return "", retry, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	line := strings.TrimSpace(strings.SplitN(string(body), "\n", 2)[0])
	if line == "" {
		return "", false, errors.New("empty forecast")
	}
	return line, false, nil
}

// backoff doubles base per attempt with up to 25% jitter, capped at 10 seconds.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt <= 0 {
		return 0
	}
	if attempt > 10 {
		attempt = 10
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	if quarter := int64(d) / 4; quarter > 0 {
		d += time.Duration(rand.Int64N(2*quarter)) - time.Duration(quarter)
	}
	return d
}
