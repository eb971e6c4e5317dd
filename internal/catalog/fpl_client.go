package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// APIConfig holds the knobs for the fantasy API client
type APIConfig struct {
	BaseURL          string
	Timeout          time.Duration
	RequestsPerSec   float64
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// APISource pulls the bootstrap-static document from the fantasy API.
// Calls are rate limited and guarded by a circuit breaker.
type APISource struct {
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *logrus.Logger
}

// NewAPISource creates a new fantasy API client
func NewAPISource(cfg APIConfig, logger *logrus.Logger) *APISource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 1
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}

	threshold := uint32(cfg.FailureThreshold)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "fpl-api",
		Timeout: cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"provider":   name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("FPL API circuit breaker state changed")
		},
	})

	return &APISource{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		circuitBreaker: cb,
		logger:         logger,
	}
}

func (a *APISource) Name() string {
	return "api:" + a.baseURL
}

// Elements fetches and decodes the current player list.
func (a *APISource) Elements(ctx context.Context) ([]Element, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := a.circuitBreaker.Execute(func() (interface{}, error) {
		return a.fetch(ctx)
	})
	if err != nil {
		return nil, &DataLoadError{Index: -1, Err: fmt.Errorf("fetch bootstrap-static: %w", err)}
	}

	elements, err := DecodeElements(body.([]byte))
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{
		"source":   a.Name(),
		"elements": len(elements),
	}).Debug("Fetched players from FPL API")

	return elements, nil
}

func (a *APISource) fetch(ctx context.Context) ([]byte, error) {
	url := a.baseURL + "/bootstrap-static/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
