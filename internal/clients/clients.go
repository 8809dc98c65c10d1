// Package clients provides the HTTP client for the downstream ML service
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go-mlwrapper/internal/domain"

	"go.uber.org/zap"
)

const (
	userAgent = "go-mlwrapper/1.0"

	// DefaultTimeout bounds a prediction call when none is configured
	DefaultTimeout = 30 * time.Second
	// HealthTimeout bounds the liveness probe regardless of configuration
	HealthTimeout = 5 * time.Second

	maxResponseBytes = 1 << 20
)

// ErrResponseTooLarge is returned when a response body exceeds the read limit
var ErrResponseTooLarge = fmt.Errorf("response from ML service exceeds %d bytes", maxResponseBytes)

// HTTPClient is a wrapper around http.Client with common configuration
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a new HTTP client with timeout
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send performs the request and returns the status code and body
func (c *HTTPClient) Send(req *http.Request) (int, []byte, error) {
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if len(body) > maxResponseBytes {
		return resp.StatusCode, nil, ErrResponseTooLarge
	}
	return resp.StatusCode, body, nil
}

// Kind classifies a failed call to the ML service
type Kind int

const (
	KindUnknown Kind = iota
	KindTimeout
	KindUnreachable
	KindHTTPError
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnreachable:
		return "unreachable"
	case KindHTTPError:
		return "http_error"
	default:
		return "unknown_error"
	}
}

// ForwardingError is returned by MLClient.Predict for every failure.
// Callers branch on Kind.
type ForwardingError struct {
	Kind Kind
	// StatusCode and Detail are set for KindHTTPError
	StatusCode int
	Detail     json.RawMessage
	Err        error
}

func (e *ForwardingError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "ML service did not respond in time"
	case KindUnreachable:
		return "Could not connect to ML service"
	case KindHTTPError:
		return fmt.Sprintf("Error in ML service: %s", e.Detail)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "unexpected error calling ML service"
	}
}

func (e *ForwardingError) Unwrap() error {
	return e.Err
}

// MLClient forwards predictions to the ML service. Its configuration is
// fixed at construction, so one instance serves all requests concurrently.
type MLClient struct {
	predict    *HTTPClient
	probe      *HTTPClient
	predictURL string
	healthURL  string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewMLClient creates a client for the given predict endpoint
func NewMLClient(predictURL string, timeout time.Duration, logger *zap.Logger) *MLClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger.Info("ML service client configured",
		zap.String("url", predictURL),
		zap.Duration("timeout", timeout))

	return &MLClient{
		predict:    NewHTTPClient(timeout),
		probe:      NewHTTPClient(HealthTimeout),
		predictURL: predictURL,
		healthURL:  strings.ReplaceAll(predictURL, "/predict", "/health"),
		timeout:    timeout,
		logger:     logger,
	}
}

// PredictURL returns the predict endpoint
func (c *MLClient) PredictURL() string {
	return c.predictURL
}

// HealthURL returns the liveness endpoint derived from the predict endpoint
func (c *MLClient) HealthURL() string {
	return c.healthURL
}

// Timeout returns the prediction timeout
func (c *MLClient) Timeout() time.Duration {
	return c.timeout
}

// Predict posts the normalized request and returns the ML service body as-is.
// Any error is a *ForwardingError.
func (c *MLClient) Predict(ctx context.Context, req domain.PredictionRequest) (domain.PredictionResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &ForwardingError{Kind: KindUnknown, Err: fmt.Errorf("encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &ForwardingError{Kind: KindUnknown, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("Sending request to ML service",
		zap.String("url", c.predictURL),
		zap.String("flight_number", req.FlightNumber))

	status, body, err := c.predict.Send(httpReq)
	if errors.Is(err, ErrResponseTooLarge) && (status < 200 || status >= 300) {
		// an oversized error body still reports the downstream status
		err = nil
	}
	if err != nil {
		ferr := classify(err)
		c.logger.Error("ML service call failed",
			zap.String("kind", ferr.Kind.String()),
			zap.Error(err))
		return nil, ferr
	}

	if status < 200 || status >= 300 {
		c.logger.Error("HTTP error from ML service", zap.Int("status", status))
		return nil, &ForwardingError{
			Kind:       KindHTTPError,
			StatusCode: status,
			Detail:     errorDetail(body),
		}
	}

	if !isJSONObject(body) {
		c.logger.Error("ML service returned a non-object body", zap.Int("status", status))
		return nil, &ForwardingError{
			Kind:       KindUnknown,
			StatusCode: status,
			Err:        errors.New("invalid response from ML service: expected a JSON object"),
		}
	}

	return domain.PredictionResult(body), nil
}

// HealthCheck probes the ML service liveness endpoint. Failures are
// reported in the returned status, never as an error.
func (c *MLClient) HealthCheck(ctx context.Context) domain.HealthStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return down(c.logger, err.Error())
	}

	status, body, err := c.probe.Send(req)
	if err != nil {
		return down(c.logger, err.Error())
	}
	if status < 200 || status >= 300 {
		return down(c.logger, fmt.Sprintf("HTTP %d: %s", status, truncate(body, 200)))
	}
	return domain.HealthStatus{Status: domain.StatusUp, MLService: "OK"}
}

func down(logger *zap.Logger, msg string) domain.HealthStatus {
	logger.Warn("ML service health check failed", zap.String("reason", msg))
	return domain.HealthStatus{Status: domain.StatusDown, MLService: msg}
}

// classify maps a transport error onto a failure kind. Timeouts are checked
// first because a dial timeout is both a timeout and a dial error.
func classify(err error) *ForwardingError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &ForwardingError{Kind: KindTimeout, Err: err}
	case isConnectError(err):
		return &ForwardingError{Kind: KindUnreachable, Err: err}
	default:
		return &ForwardingError{Kind: KindUnknown, Err: err}
	}
}

func isConnectError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

func errorDetail(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return json.RawMessage("{}")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return json.RawMessage("{}")
	}
	return buf.Bytes()
}

func isJSONObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

func truncate(b []byte, n int) string {
	s := []rune(strings.TrimSpace(string(b)))
	if len(s) > n {
		return string(s[:n]) + "..."
	}
	return string(s)
}
