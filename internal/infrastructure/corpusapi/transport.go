package corpusapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/corpus-admin/internal/infrastructure/resilience"
	"github.com/kirillkom/corpus-admin/internal/observability/logging"
)

const (
	opList   = "list documents"
	opDelete = "delete document"
	opUpload = "upload document"
	opIngest = "ingest document"
	opHealth = "check health"
	opReady  = "check ready"
)

// fallbackMessages are shown when the backend answers non-2xx without a body.
var fallbackMessages = map[string]string{
	opList:   "failed to load documents",
	opDelete: "failed to delete document",
	opUpload: "failed to upload document",
	opIngest: "failed to ingest document",
	opHealth: "server unavailable",
}

// bodylessErrors are operations whose errors never echo the response body.
var bodylessErrors = map[string]bool{
	opList:   true,
	opHealth: true,
}

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "corpus api status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("corpus api %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("corpus api %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// UserMessage is the server text when present, otherwise a status-derived message.
func (e *HTTPStatusError) UserMessage() string {
	if body := strings.TrimSpace(e.Body); body != "" && !bodylessErrors[e.Operation] {
		return body
	}
	if e.Operation == opHealth {
		return fallbackMessages[opHealth]
	}
	prefix, ok := fallbackMessages[e.Operation]
	if !ok {
		prefix = e.Operation + " failed"
	}
	return fmt.Sprintf("%s: %d", prefix, e.StatusCode)
}

func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, fn, recordsFailure)
	} else {
		err = fn(ctx)
	}
	elapsed := time.Since(start)

	outcome := callOutcome(err)
	if c.observer != nil {
		c.observer.ObserveUpstreamCall(operation, outcome, elapsed)
	}
	slog.Debug("corpus_api_call",
		"request_id", logging.RequestIDFromContext(ctx),
		"operation", operation,
		"outcome", outcome,
		"duration_ms", float64(elapsed.Microseconds())/1000.0,
	)
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, operation, out)
}

// doJSON sends req, maps non-2xx to *HTTPStatusError and decodes the body into out when out is set.
func (c *Client) doJSON(req *http.Request, operation string, out any) error {
	req.Header.Set("Accept", "application/json")
	forwardRequestID(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("corpus api %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPStatusError(operation, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) doProbe(req *http.Request, out any) error {
	forwardRequestID(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("corpus api %s request: %w", opReady, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", opReady, err)
	}
	return nil
}

func forwardRequestID(req *http.Request) {
	if requestID := logging.RequestIDFromContext(req.Context()); requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
}

func newHTTPStatusError(operation string, resp *http.Response) *HTTPStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

func callOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if resilience.IsCircuitOpen(err) {
		return "circuit_open"
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return strconv.Itoa(statusErr.StatusCode)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "error"
}

// recordsFailure counts transport failures and 5xx/429 answers against the breaker;
// client errors and cancellations do not trip it.
func recordsFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
