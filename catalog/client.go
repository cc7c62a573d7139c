package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/Eman-Sallam/ai-pipeline-editor/errors"
	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
	"github.com/Eman-Sallam/ai-pipeline-editor/resilience"
)

// DefaultBaseURL is where the catalog service listens by default.
const DefaultBaseURL = "http://localhost:8000"

// ClientConfig configures a catalog client.
type ClientConfig struct {
	BaseURL    string        `yaml:"url" mapstructure:"url"`
	Retries    int           `yaml:"retries" mapstructure:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DefaultClientConfig returns two retries one second apart, doubling.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    DefaultBaseURL,
		Retries:    2,
		RetryDelay: time.Second,
		Timeout:    10 * time.Second,
	}
}

// ApplyDefaults fills unset fields. A negative Retries means no retries.
func (c *ClientConfig) ApplyDefaults() {
	d := DefaultClientConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.Retries == 0 {
		c.Retries = d.Retries
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// Client fetches stage types from a catalog service.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	breaker *resilience.CircuitBreaker
	metrics *observability.Metrics
	log     *logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithCircuitBreaker guards requests with cb.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) ClientOption {
	return func(c *Client) { c.breaker = cb }
}

// WithClientMetrics records catalog requests on m.
func WithClientMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a catalog client.
func NewClient(cfg ClientConfig, opts ...ClientOption) *Client {
	cfg.ApplyDefaults()
	c := &Client{cfg: cfg, log: logger.WithComponent("catalog-client")}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	if c.breaker == nil {
		bc := resilience.DefaultCircuitBreakerConfig("catalog")
		bc.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
		c.breaker = resilience.NewCircuitBreaker(bc)
	}
	return c
}

// URL returns the stage type list endpoint.
func (c *Client) URL() string {
	return c.cfg.BaseURL + RouteStageTypes
}

// FetchStageTypes lists the catalog, retrying with exponential backoff.
// When every attempt fails the last error is returned.
func (c *Client) FetchStageTypes(ctx context.Context) ([]StageType, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanCatalogFetch)
	defer span.End()

	retry := resilience.RetryConfig{
		MaxAttempts:    c.cfg.Retries + 1,
		InitialBackoff: c.cfg.RetryDelay,
		MaxBackoff:     c.cfg.RetryDelay << c.cfg.Retries,
		BackoffFactor:  2,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			c.log.Warn("catalog fetch failed, retrying", logger.Fields(
				logger.FieldAttempt, attempt,
				logger.FieldError, err.Error(),
				"backoff_ms", backoff.Milliseconds(),
			))
		},
	}

	types, err := resilience.Retry(ctx, retry, func() ([]StageType, error) {
		var out []StageType
		err := c.breaker.Execute(func() error {
			var ferr error
			out, ferr = c.fetchOnce(ctx)
			return ferr
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, apperrors.CatalogUnavailable(c.URL(), err)
		}
		return out, err
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
		c.record(ctx, "error")
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrStageCount, len(types))
	c.record(ctx, "ok")
	return types, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]StageType, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(), nil)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("building catalog request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.CatalogUnavailable(c.URL(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.ExternalServiceError("catalog",
			"Failed to fetch node types: "+http.StatusText(resp.StatusCode), resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.CatalogUnavailable(c.URL(), err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, apperrors.ExternalServiceError("catalog",
			"Invalid response format: expected an array", resp.StatusCode)
	}

	var types []StageType
	if err := json.Unmarshal(body, &types); err != nil {
		return nil, apperrors.ExternalServiceError("catalog",
			"Invalid response body: "+err.Error(), resp.StatusCode)
	}
	return types, nil
}

func (c *Client) record(ctx context.Context, status string) {
	if c.metrics != nil {
		c.metrics.RecordCatalogRequest(ctx, RouteStageTypes, status)
	}
}
