// Package webhook delivers prompt-builder payloads to the external
// agent-building workflow.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apphttp "prompt-builder/internal/common/http"
	"prompt-builder/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "prompt-builder/webhook"

// DefaultEndpoint receives the payload when no URL is configured.
const DefaultEndpoint = "https://workflows.voagents.ai/webhook/prompt-builder"

type Config struct {
	URL     string
	Timeout time.Duration // 0 means no timeout
}

func DefaultConfig() *Config {
	return &Config{
		URL: DefaultEndpoint,
	}
}

type Client struct {
	config *Config
	http   *apphttp.Client
	logger logger.Logger
}

func NewClient(config *Config, httpClient *apphttp.Client, log logger.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.URL == "" {
		config.URL = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = apphttp.NewClient(config.Timeout)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		config: config,
		http:   httpClient,
		logger: log.With(map[string]interface{}{"component": "webhook"}),
	}
}

// URL returns the endpoint payloads are posted to.
func (c *Client) URL() string {
	return c.config.URL
}

// Send posts payload as JSON exactly once. A 2xx answer is success and its
// body is discarded unread. Any other status yields *HTTPError carrying the
// response body text; a request that gets no response yields *TransportError.
func (c *Client) Send(ctx context.Context, payload interface{}) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "webhook.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", c.config.URL)),
	)
	defer span.End()

	err := c.send(ctx, span, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) send(ctx context.Context, span trace.Span, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &EncodeError{Err: err}
	}

	start := time.Now()
	resp, err := c.http.PostJSON(ctx, c.config.URL, body)
	if err != nil {
		c.logger.Warn("webhook request failed", map[string]interface{}{
			"url":   c.config.URL,
			"error": err.Error(),
		})
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Debug("webhook accepted payload", map[string]interface{}{
			"status":     resp.StatusCode,
			"durationMs": time.Since(start).Milliseconds(),
		})
		return nil
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Body:       string(text),
	}
}

// statusText extracts the reason phrase from resp.Status ("500 Internal
// Server Error"), falling back to the standard text for the code.
func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
