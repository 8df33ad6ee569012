// Package apiclient talks to the task API over JSON/HTTP.
//
// Every request carries the bearer token supplied by a token source and a
// fresh X-Request-ID. Any 401 response, whichever call produced it, is
// reported to the unauthorized hook before the error is returned. Read-only
// requests are retried on transport failures; nothing is retried once the
// server has answered.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/taskdeck/internal/domain"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rezkam/taskdeck/internal/apiclient"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Per-operation fallbacks shown when the server gives no detail.
const (
	MessageLoginFailed    = "Login failed"
	MessageRegisterFailed = "Registration failed"
	MessageFetchFailed    = "Failed to fetch tasks"
	MessageCreateFailed   = "Failed to create task"
	MessageUpdateFailed   = "Failed to update task"
	MessageDeleteFailed   = "Failed to delete task"
	MessageStatsFailed    = "Failed to fetch task statistics"
)

// HeaderRequestID carries a per-request UUID for correlating client and server logs.
const HeaderRequestID = "X-Request-ID"

const (
	defaultTimeout       = 10 * time.Second
	defaultRetryAttempts = 2
	defaultRetryBackoff  = 200 * time.Millisecond
	contentTypeJSON      = "application/json"
)

// ErrEmptyResponse is returned when a successful response has a null or empty
// body where a resource was expected.
var ErrEmptyResponse = errors.New("empty response from server")

// TokenSource returns the credential to send, or "" for none.
type TokenSource func() string

// UnauthorizedHandler is invoked for every 401 response.
type UnauthorizedHandler func(ctx context.Context)

// Client is a typed client for the task API. It is safe for concurrent use.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	token          TokenSource
	onUnauthorized UnauthorizedHandler
	retryAttempts  uint64
	retryBackoff   time.Duration
	timeout        time.Duration
	logger         *slog.Logger

	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient supplies the HTTP client to copy. The copy's transport is
// wrapped with otelhttp; the original is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithUnauthorizedHandler registers the 401 hook.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

// WithRetry sets how many times a read-only request is retried on transport
// failure, and the initial exponential backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = uint64(max(attempts, 0))
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}

	c := &Client{
		baseURL:       u,
		http:          &http.Client{},
		timeout:       defaultTimeout,
		token:         func() string { return "" },
		retryAttempts: defaultRetryAttempts,
		retryBackoff:  defaultRetryBackoff,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *c.http
	hc.Transport = otelhttp.NewTransport(base)
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.http = &hc

	c.tracer = otel.Tracer(instrumentationName)
	meter := otel.Meter(instrumentationName)
	c.requests, err = meter.Int64Counter("taskdeck.api.requests",
		metric.WithDescription("API requests by operation and outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}
	c.duration, err = meter.Float64Histogram("taskdeck.api.duration",
		metric.WithDescription("API request latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return c, nil
}

// request describes one API call.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	out    any
}

// idempotent reports whether the request may be retried on transport errors.
func (r *request) idempotent() bool {
	return r.method == http.MethodGet
}

func (c *Client) do(ctx context.Context, r request) (err error) {
	ctx, span := c.tracer.Start(ctx, "apiclient."+r.op, trace.WithSpanKind(trace.SpanKindClient))
	start := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil {
			outcome = classify(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		attrs := metric.WithAttributes(
			attribute.String("operation", r.op),
			attribute.String("outcome", outcome),
		)
		c.requests.Add(ctx, 1, attrs)
		c.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		span.End()
	}()

	var payload []byte
	if r.body != nil {
		payload, err = json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", r.op, err)
		}
	}

	target := c.baseURL.JoinPath(r.path)
	if len(r.query) > 0 {
		target.RawQuery = r.query.Encode()
	}

	requestID := uuid.NewString()
	span.SetAttributes(attribute.String("request.id", requestID))

	send := func(ctx context.Context) (*http.Response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, target.String(), body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", contentTypeJSON)
		req.Header.Set(HeaderRequestID, requestID)
		if payload != nil {
			req.Header.Set("Content-Type", contentTypeJSON)
		}
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return c.http.Do(req)
	}

	var resp *http.Response
	if r.idempotent() && c.retryAttempts > 0 {
		backoff := retry.WithMaxRetries(c.retryAttempts, retry.NewExponential(c.retryBackoff))
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			var sendErr error
			resp, sendErr = send(ctx)
			if sendErr != nil {
				if ctx.Err() != nil {
					return sendErr
				}
				c.logger.DebugContext(ctx, "retrying request after transport error",
					"operation", r.op, "request_id", requestID, "error", sendErr)
				return retry.RetryableError(sendErr)
			}
			return nil
		})
	} else {
		resp, err = send(ctx)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "request failed without a response",
			"operation", r.op, "request_id", requestID, "error", err)
		return fmt.Errorf("%w: %s %s: %w", domain.ErrNetwork, r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", domain.ErrNetwork, r.op, err)
	}

	if resp.StatusCode >= 400 {
		serverErr := &domain.ServerError{StatusCode: resp.StatusCode, Detail: extractDetail(data)}
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		c.logger.InfoContext(ctx, "request rejected",
			"operation", r.op, "request_id", requestID, "status", resp.StatusCode, "detail", serverErr.Detail)
		return serverErr
	}

	if r.out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal(trimmed, r.out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.op, err)
	}
	return nil
}

// classify maps an error onto the outcome label used in telemetry.
func classify(err error) string {
	var serverErr *domain.ServerError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &serverErr):
		return "server_error"
	case errors.Is(err, domain.ErrNetwork):
		return "network_error"
	case errors.Is(err, ErrEmptyResponse), errors.Is(err, domain.ErrNotFound):
		return "empty"
	default:
		return "error"
	}
}

// extractDetail pulls the human-readable message out of an error body.
// It prefers "message", then "detail". A list-shaped detail (request
// validation errors) is flattened by joining each entry's "msg".
func extractDetail(body []byte) string {
	var envelope struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	if len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
