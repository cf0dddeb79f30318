// Package render implements the remote-render lookup path: a third-party
// rendering provider loads an airline's public trip-lookup page, optionally
// runs a scripted form-fill, and returns fully-rendered HTML which is
// parsed offline.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/reservasegura/monitor/internal/model"
	"github.com/reservasegura/monitor/internal/rules"
)

// Config holds the provider connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	CountryCode string
	Timeout     time.Duration
	MaxAttempts int
}

// Client is a stateless remote-render lookup client. Safe for concurrent
// use; a process normally holds exactly one.
type Client struct {
	http    *resty.Client
	cfg     Config
	breaker *CircuitBreaker
	retry   *RetryStrategy
}

// NewClient creates a provider client.
func NewClient(cfg Config) *Client {
	if cfg.CountryCode == "" {
		cfg.CountryCode = "br"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)

	return &Client{
		http:    httpClient,
		cfg:     cfg,
		breaker: NewCircuitBreaker(),
		retry:   NewRetryStrategy(cfg.MaxAttempts),
	}
}

// Configured reports whether a provider credential is present.
func (c *Client) Configured() bool {
	return len(c.cfg.APIKey) > 20
}

// Search asks the provider to render the airline's trip-lookup page for the
// given locator and surname and extracts a snapshot from the result.
// Failures are distinguishable by type: *model.TransportError for provider
// trouble, *model.NotFoundError for an explicit negative, and
// *model.ExtractionError when the page yields no recognizable fields.
func (c *Client) Search(ctx context.Context, airline, bookingCode, lastName, origin string) (model.Snapshot, error) {
	r, ok := rules.Lookup(airline)
	if !ok {
		return model.Snapshot{}, fmt.Errorf("unsupported airline: %s", airline)
	}

	slog.Info("Remote-render lookup",
		"airline", r.Code,
		"booking_code", bookingCode,
	)

	html, err := c.fetchRendered(ctx, r, bookingCode, lastName, origin)
	if err != nil {
		return model.Snapshot{}, err
	}

	slog.Debug("Provider returned rendered HTML",
		"airline", r.Code,
		"bytes", len(html),
	)

	return Extract(r, html, bookingCode, lastName)
}

// fetchRendered performs the provider round trip with retry and a circuit
// breaker guarding against a provider outage hammering the credit budget.
func (c *Client) fetchRendered(ctx context.Context, r rules.AirlineRules, bookingCode, lastName, origin string) (string, error) {
	if !c.breaker.CanAttempt() {
		return "", &model.TransportError{
			Op:  "render " + r.Code,
			Err: fmt.Errorf("provider circuit breaker is %s", c.breaker.StateName()),
		}
	}

	params := c.requestParams(r, bookingCode, lastName, origin)

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts(); attempt++ {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get("/")

		if err == nil && resp.IsSuccess() {
			c.breaker.RecordSuccess()
			return string(resp.Body()), nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("provider returned status %d", resp.StatusCode())
		}

		statusCode := 0
		if err == nil {
			statusCode = resp.StatusCode()
		}
		if !c.retry.ShouldRetry(attempt, statusCode, err) {
			break
		}

		delay := c.retry.Delay(attempt)
		slog.Warn("Provider request failed, retrying",
			"airline", r.Code,
			"attempt", attempt,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			c.breaker.RecordFailure()
			return "", &model.TransportError{Op: "render " + r.Code, Err: ctx.Err()}
		}
	}

	c.breaker.RecordFailure()
	return "", &model.TransportError{Op: "render " + r.Code, Err: lastErr}
}

// requestParams builds the provider query. Direct-query airlines take the
// locator in the page URL; the rest get a scripted form-fill scenario.
func (c *Client) requestParams(r rules.AirlineRules, bookingCode, lastName, origin string) map[string]string {
	params := map[string]string{
		"api_key":       c.cfg.APIKey,
		"render_js":     "true",
		"premium_proxy": "true",
		"country_code":  c.cfg.CountryCode,
	}

	if r.DirectQuery {
		target, _ := url.Parse(r.LookupURL)
		q := target.Query()
		q.Set("pnr", bookingCode)
		q.Set("lastName", lastName)
		if origin != "" {
			q.Set("origin", origin)
		}
		target.RawQuery = q.Encode()

		params["url"] = target.String()
		params["wait"] = "10000"
		params["js_scenario"] = waitOnlyScenario()
		return params
	}

	params["url"] = r.LookupURL
	params["wait"] = "5000"
	params["js_scenario"] = formFillScenario(r, bookingCode, lastName)
	return params
}
