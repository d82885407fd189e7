// Package gateway implements the single chokepoint for all network calls
// to the storefront REST backend. It attaches the bearer token from
// durable storage, normalizes request encoding, unwraps successful
// payloads and translates every transport-level failure into the uniform
// error taxonomy consumed by the stores.
//
// The gateway deliberately carries no UI or navigation dependencies: a
// rejected credential (401) is surfaced as a tagged unauthorized error
// plus a hook invocation; the session lifecycle observer owns the actual
// storage teardown and redirect.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/everbloom/storefront/core"
	"github.com/everbloom/storefront/resilience"
)

const fallbackMessage = "Request Failed"

// Client is the HTTP gateway. All store-initiated network traffic flows
// through Request or JSON.
type Client struct {
	httpClient *http.Client
	baseURL    string
	storage    core.Storage
	logger     core.Logger
	notifier   core.Notifier
	telemetry  core.Telemetry

	maxRetries int
	retryDelay time.Duration

	mu                sync.RWMutex
	unauthorizedHooks []func(message string)
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithLogger sets the structured logger
func WithLogger(logger core.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNotifier sets the user-visible notification sink
func WithNotifier(notifier core.Notifier) ClientOption {
	return func(c *Client) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// WithTelemetry sets the tracing provider
func WithTelemetry(telemetry core.Telemetry) ClientOption {
	return func(c *Client) {
		if telemetry != nil {
			c.telemetry = telemetry
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCircuitBreaker wraps the transport with circuit breaker protection
func WithCircuitBreaker(breaker core.CircuitBreaker) ClientOption {
	return func(c *Client) {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.httpClient.Transport = &breakerTransport{base: base, breaker: breaker}
	}
}

// New creates a gateway client for the configured backend. The transport
// is instrumented with otelhttp; spans are no-ops until a tracer provider
// is installed.
func New(cfg core.APIConfig, storage core.Storage, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		storage:    storage,
		logger:     &core.NoOpLogger{},
		notifier:   &core.NoOpNotifier{},
		telemetry:  &core.NoOpTelemetry{},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized registers a hook invoked whenever the backend rejects
// the session credential. Hooks run synchronously before the tagged
// unauthorized error is returned to the caller.
func (c *Client) OnUnauthorized(hook func(message string)) {
	if hook == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorizedHooks = append(c.unauthorizedHooks, hook)
}

// Request performs an HTTP call against the backend and returns the raw
// response payload on a 200/201 status. Every failure path both emits a
// notification and returns an error; the gateway never swallows one
// after notifying.
func (c *Client) Request(ctx context.Context, path, method string, body interface{}, opts ...RequestOption) ([]byte, error) {
	ctx, span := c.telemetry.StartSpan(ctx, "gateway.request")
	defer span.End()

	method = strings.ToUpper(method)
	span.SetAttribute("http.method", method)
	span.SetAttribute("http.path", path)

	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		err := fmt.Errorf("%w: %s", core.ErrUnsupportedMethod, method)
		span.RecordError(err)
		return nil, err
	}

	options := &requestOptions{}
	for _, opt := range opts {
		opt(options)
	}

	payload, contentType, err := encodeBody(method, body, options)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	requestID := uuid.New().String()
	c.logger.Debug("Gateway request initiated", map[string]interface{}{
		"operation":  "gateway_request",
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	resp, err := c.execute(ctx, method, path, payload, contentType, requestID)
	if err != nil {
		return nil, c.fail(span, path, method, requestID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(span, path, method, requestID, fmt.Errorf("%w: %v", core.ErrRequestFailed, err))
	}

	span.SetAttribute("http.status_code", resp.StatusCode)

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		c.logger.Debug("Gateway request succeeded", map[string]interface{}{
			"operation":   "gateway_request",
			"method":      method,
			"path":        path,
			"request_id":  requestID,
			"status_code": resp.StatusCode,
		})
		return respBody, nil
	}

	statusErr := c.translateStatus(resp.StatusCode, respBody)
	return nil, c.fail(span, path, method, requestID, statusErr)
}

// JSON performs a request and unmarshals the unwrapped payload into out.
// A nil out discards the payload.
func (c *Client) JSON(ctx context.Context, path, method string, body, out interface{}) error {
	data, err := c.Request(ctx, path, method, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &core.StoreError{
			Op:      "gateway.JSON",
			Kind:    "gateway",
			Message: fallbackMessage,
			Err:     fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

// execute builds and sends the request, retrying transient failures when
// retries are enabled. The default configuration performs exactly one
// attempt: nothing is retried automatically.
func (c *Client) execute(ctx context.Context, method, path string, payload []byte, contentType, requestID string) (*http.Response, error) {
	retryCfg := &resilience.RetryConfig{
		MaxAttempts:   c.maxRetries + 1,
		InitialDelay:  c.retryDelay,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}

	var resp *http.Response
	err := resilience.Retry(ctx, retryCfg, func() error {
		if resp != nil {
			_ = resp.Body.Close()
			resp = nil
		}

		req, err := c.newRequest(ctx, method, path, payload, contentType, requestID)
		if err != nil {
			return err
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}

		// 5xx responses are the only retryable statuses. Everything
		// below 500 is handed to the status taxonomy untouched.
		if r.StatusCode >= http.StatusInternalServerError && c.maxRetries > 0 {
			body, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
			_ = r.Body.Close()
			resp = &http.Response{
				StatusCode: r.StatusCode,
				Body:       io.NopCloser(bytes.NewReader(body)),
				Header:     r.Header,
			}
			return fmt.Errorf("server error: status %d", r.StatusCode)
		}

		resp = r
		return nil
	})

	if err != nil {
		// A retry-exhausted 5xx still carries the last response so the
		// server-supplied message reaches the notification.
		if resp != nil {
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte, contentType, requestID string) (*http.Request, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", requestID)

	if c.storage != nil {
		if token, err := c.storage.Get(ctx, core.StorageKeyToken); err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// translateStatus maps a non-success HTTP status to the error taxonomy.
// The server-supplied message is extracted when present.
func (c *Client) translateStatus(status int, body []byte) error {
	message := extractMessage(body)

	switch status {
	case http.StatusUnauthorized:
		c.fireUnauthorized(message)
		return &core.StoreError{Op: "gateway.Request", Kind: "auth", Message: message, Err: core.ErrUnauthorized}
	case http.StatusBadRequest:
		// Message passed through unmodified
		return &core.StoreError{Op: "gateway.Request", Kind: "request", Message: message, Err: core.ErrBadRequest}
	case http.StatusNotFound:
		return &core.StoreError{Op: "gateway.Request", Kind: "request", Message: "Not Found: " + message, Err: core.ErrNotFound}
	case http.StatusInternalServerError:
		return &core.StoreError{Op: "gateway.Request", Kind: "server", Message: "Internal Server Error: " + message, Err: core.ErrServerFailure}
	default:
		return &core.StoreError{Op: "gateway.Request", Kind: "request", Message: message, Err: core.ErrRequestFailed}
	}
}

// fail logs the failure, emits the user-visible notification and returns
// the error to the caller. Both always happen.
func (c *Client) fail(span core.Span, path, method, requestID string, err error) error {
	translated := c.classifyTransport(err)

	var se *core.StoreError
	message := fallbackMessage
	if errors.As(translated, &se) && se.Message != "" {
		message = se.Message
	}

	c.logger.Error("Gateway request failed", map[string]interface{}{
		"operation":  "gateway_request",
		"method":     method,
		"path":       path,
		"request_id": requestID,
		"error":      translated.Error(),
	})
	span.RecordError(translated)

	c.notifier.Notify(core.NotifyError, message)
	return translated
}

// classifyTransport wraps raw transport errors (timeouts, connection
// failures, open circuit) into the taxonomy. Already-translated status
// errors pass through.
func (c *Client) classifyTransport(err error) error {
	var se *core.StoreError
	if errors.As(err, &se) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &core.StoreError{Op: "gateway.Request", Kind: "network", Message: fallbackMessage, Err: fmt.Errorf("%w: %v", core.ErrTimeout, err)}
	}
	if errors.Is(err, core.ErrCircuitOpen) {
		return &core.StoreError{Op: "gateway.Request", Kind: "network", Message: fallbackMessage, Err: core.ErrCircuitOpen}
	}
	return &core.StoreError{Op: "gateway.Request", Kind: "network", Message: fallbackMessage, Err: fmt.Errorf("%w: %v", core.ErrRequestFailed, err)}
}

func (c *Client) fireUnauthorized(message string) {
	c.mu.RLock()
	hooks := make([]func(string), len(c.unauthorizedHooks))
	copy(hooks, c.unauthorizedHooks)
	c.mu.RUnlock()

	for _, hook := range hooks {
		hook(message)
	}
}

// extractMessage pulls the server-supplied message field out of an error
// payload, falling back to a generic failure message.
func extractMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return fallbackMessage
}

// requestOptions carries per-call configuration
type requestOptions struct {
	contentType string
}

// RequestOption configures a single request
type RequestOption func(*requestOptions)

// Declared body content types for non-JSON submissions
const (
	ContentTypeForm = "form"
	ContentTypeText = "text"
	ContentTypeHTML = "html"
)

// WithContentType declares the body encoding for non-JSON submissions:
// ContentTypeForm, ContentTypeText or ContentTypeHTML.
func WithContentType(contentType string) RequestOption {
	return func(o *requestOptions) { o.contentType = contentType }
}

// encodeBody serializes the request body and picks the Content-Type
// header. Multipart bodies pass through with their own boundary-bearing
// content type; GET and DELETE carry no body.
func encodeBody(method string, body interface{}, options *requestOptions) ([]byte, string, error) {
	if method == http.MethodGet || method == http.MethodDelete || body == nil {
		return nil, "", nil
	}

	if mp, ok := body.(*MultipartBody); ok {
		return mp.payload, mp.contentType, nil
	}

	switch options.contentType {
	case ContentTypeForm:
		values, ok := body.(url.Values)
		if !ok {
			return nil, "", fmt.Errorf("form submissions require url.Values, got %T", body)
		}
		return []byte(values.Encode()), "application/x-www-form-urlencoded", nil
	case ContentTypeText:
		return rawBytes(body, "text/plain")
	case ContentTypeHTML:
		return rawBytes(body, "text/html")
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, "application/json", nil
}

func rawBytes(body interface{}, contentType string) ([]byte, string, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), contentType, nil
	case []byte:
		return v, contentType, nil
	default:
		return nil, "", fmt.Errorf("%s submissions require a string body, got %T", contentType, body)
	}
}
