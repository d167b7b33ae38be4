package corpusapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/infrastructure/resilience"
)

const apiPrefix = "/api/v1"

// CallObserver receives one observation per backend round trip.
type CallObserver interface {
	ObserveUpstreamCall(operation, outcome string, duration time.Duration)
}

type Options struct {
	// Timeout bounds each call on top of the caller's context. Zero means no client timeout.
	Timeout            time.Duration
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
	Observer           CallObserver
}

// Client talks to the corpus backend. It never retries and never caches.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	observer   CallObserver
}

func New(baseURL string) *Client {
	return NewWithOptions(baseURL, Options{})
}

func NewWithOptions(baseURL string, options Options) *Client {
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		executor:   options.ResilienceExecutor,
		observer:   options.Observer,
	}
}

type documentsResponse struct {
	Documents []domain.Document `json:"documents"`
	Count     int               `json:"count"`
}

func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var response documentsResponse
	err := c.call(ctx, opList, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPrefix+"/documents", nil)
		if err != nil {
			return fmt.Errorf("create %s request: %w", opList, err)
		}
		return c.doJSON(req, opList, &response)
	})
	if err != nil {
		return nil, wrapKind(domain.ErrNetwork, opList, err)
	}
	if response.Documents == nil {
		return []domain.Document{}, nil
	}
	return response.Documents, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NewValidationError("document id is required")
	}
	err := c.call(ctx, opDelete, func(ctx context.Context) error {
		endpoint := c.baseURL + apiPrefix + "/documents/" + url.PathEscape(id)
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create %s request: %w", opDelete, err)
		}
		return c.doJSON(req, opDelete, nil)
	})
	return wrapKind(domain.ErrDeletion, opDelete, err)
}

// UploadDocument hands a file to the backend for asynchronous processing. The returned
// acknowledgment does not mean the document is indexed yet.
func (c *Client) UploadDocument(ctx context.Context, upload domain.UploadRequest) (*domain.UploadAccepted, error) {
	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return nil, err
	}

	var accepted domain.UploadAccepted
	err = c.call(ctx, opUpload, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+"/documents/upload", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", opUpload, err)
		}
		req.Header.Set("Content-Type", contentType)
		return c.doJSON(req, opUpload, &accepted)
	})
	if err != nil {
		return nil, wrapKind(domain.ErrUpload, opUpload, err)
	}
	return &accepted, nil
}

func (c *Client) IngestDocument(ctx context.Context, ingest domain.IngestRequest) (*domain.IngestResult, error) {
	var result domain.IngestResult
	err := c.call(ctx, opIngest, func(ctx context.Context) error {
		return c.postJSON(ctx, apiPrefix+"/documents/ingest", ingest, &result, opIngest)
	})
	if err != nil {
		return nil, wrapKind(domain.ErrIngest, opIngest, err)
	}
	return &result, nil
}

func (c *Client) CheckHealth(ctx context.Context) (domain.ServerStatus, error) {
	var status domain.ServerStatus
	err := c.call(ctx, opHealth, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			return fmt.Errorf("create %s request: %w", opHealth, err)
		}
		return c.doJSON(req, opHealth, &status)
	})
	if err != nil {
		return domain.ServerStatus{}, wrapKind(domain.ErrUnavailable, opHealth, err)
	}
	return status, nil
}

// CheckReady decodes the probe body whatever the status code; any failure reads as unavailable.
func (c *Client) CheckReady(ctx context.Context) domain.ServerStatus {
	var status domain.ServerStatus
	err := c.call(ctx, opReady, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ready", nil)
		if err != nil {
			return fmt.Errorf("create %s request: %w", opReady, err)
		}
		return c.doProbe(req, &status)
	})
	if err != nil || strings.TrimSpace(status.Status) == "" {
		return domain.ServerStatus{Status: domain.StatusUnavailable}
	}
	return status
}

func encodeUpload(upload domain.UploadRequest) ([]byte, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", upload.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := part.Write(upload.Content); err != nil {
		return nil, "", fmt.Errorf("write multipart file: %w", err)
	}
	fields := []struct{ name, value string }{
		{"title", upload.Title},
		{"source_type", string(upload.SourceType)},
		{"language", upload.Language},
	}
	for _, field := range fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("write multipart field %s: %w", field.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

func wrapKind(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrValidation) {
		return err
	}
	if resilience.IsCircuitOpen(err) {
		err = domain.WrapError(domain.ErrTemporary, "circuit open", err)
	}
	return domain.WrapError(kind, operation, err)
}

// IsStatus reports whether err carries a backend response with the given status code.
func IsStatus(err error, statusCode int) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == statusCode
}
