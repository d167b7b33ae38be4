package corpusapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/infrastructure/resilience"
	"github.com/kirillkom/corpus-admin/internal/observability/logging"
)

func TestListDocumentsTreatsNullAsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/documents" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"documents":null,"count":0}`))
	}))
	defer server.Close()

	docs, err := New(server.URL).ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", docs)
	}
}

func TestListDocumentsDecodesFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[
			{"id":"d1","title":"Al-Fatiha","source_type":"quran","language":"ar","metadata":{"surah":"1"},"created_at":"2025-01-01T00:00:00Z"},
			{"id":"d2","title":"notes","source_type":"hadith","language":"ru","metadata":null,"user_id":"u1","created_at":"2025-01-02T00:00:00Z"}
		],"count":2}`))
	}))
	defer server.Close()

	docs, err := New(server.URL + "/").ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].Metadata["surah"] != "1" || !docs[0].Verified() {
		t.Fatalf("unexpected first doc: %+v", docs[0])
	}
	if docs[1].Verified() || docs[1].UserID != "u1" {
		t.Fatalf("unexpected second doc: %+v", docs[1])
	}
}

func TestListDocumentsNon2xxIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database exploded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(server.URL).ListDocuments(context.Background())
	if !domain.IsKind(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if !IsStatus(err, http.StatusServiceUnavailable) {
		t.Fatalf("expected status 503 in chain, got %v", err)
	}
	if got := domain.UserMessage(err); got != "failed to load documents: 503" {
		t.Fatalf("unexpected user message %q", got)
	}
}

func TestDeleteDocumentSurfacesServerText(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		if r.Method != http.MethodDelete {
			t.Fatalf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("locked"))
	}))
	defer server.Close()

	err := New(server.URL).DeleteDocument(context.Background(), "doc 1/2")
	if !domain.IsKind(err, domain.ErrDeletion) {
		t.Fatalf("expected deletion error, got %v", err)
	}
	if got := domain.UserMessage(err); got != "locked" {
		t.Fatalf("expected server text, got %q", got)
	}
	if gotPath != "/api/v1/documents/doc%201%2F2" {
		t.Fatalf("expected escaped id in path, got %s", gotPath)
	}
}

func TestDeleteDocumentStatusFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := New(server.URL).DeleteDocument(context.Background(), "missing")
	if got := domain.UserMessage(err); got != "failed to delete document: 404" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestDeleteDocumentSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := New(server.URL).DeleteDocument(context.Background(), "d1"); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
}

func TestUploadDocumentSendsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/documents/upload" {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() error = %v", err)
		}
		defer file.Close()
		raw, _ := io.ReadAll(file)
		if header.Filename != "bukhari.txt" || string(raw) != "hadith text" {
			t.Fatalf("unexpected file %s: %q", header.Filename, raw)
		}
		if r.FormValue("title") != "Bukhari" || r.FormValue("source_type") != "hadith" || r.FormValue("language") != "ar" {
			t.Fatalf("unexpected fields: %v", r.MultipartForm.Value)
		}
		if _, ok := r.MultipartForm.Value["user_id"]; ok {
			t.Fatalf("uploads must not carry user_id")
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "message": "processing", "title": "Bukhari"})
	}))
	defer server.Close()

	accepted, err := New(server.URL).UploadDocument(context.Background(), domain.UploadRequest{
		Filename:   "bukhari.txt",
		Content:    []byte("hadith text"),
		Title:      "Bukhari",
		SourceType: domain.SourceHadith,
		Language:   "ar",
	})
	if err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}
	if accepted.Status != "accepted" || accepted.Title != "Bukhari" {
		t.Fatalf("unexpected ack: %+v", accepted)
	}
}

func TestUploadDocumentErrorText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported file", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := New(server.URL).UploadDocument(context.Background(), domain.UploadRequest{Filename: "a.txt", Title: "a"})
	if !domain.IsKind(err, domain.ErrUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if got := domain.UserMessage(err); got != "unsupported file" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestIngestDocumentPostsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["content"] != "text" || payload["source_type"] != "fiqh" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		if _, ok := payload["metadata"]; ok {
			t.Fatalf("empty metadata must be omitted")
		}
		_, _ = w.Write([]byte(`{"document_id":"d9","title":"Fiqh","chunk_count":4}`))
	}))
	defer server.Close()

	result, err := New(server.URL).IngestDocument(context.Background(), domain.IngestRequest{
		Title: "Fiqh", SourceType: domain.SourceFiqh, Language: "kk", Content: "text",
	})
	if err != nil {
		t.Fatalf("IngestDocument() error = %v", err)
	}
	if result.DocumentID != "d9" || result.ChunkCount != 4 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckHealthNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL).CheckHealth(context.Background())
	if !domain.IsKind(err, domain.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if got := domain.UserMessage(err); got != "server unavailable" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestCheckReadySwallowsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ready":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not_ready"}`))
		default:
			http.NotFound(w, r)
		}
	}))

	client := New(server.URL)
	if got := client.CheckReady(context.Background()); got.Status != "not_ready" {
		t.Fatalf("expected decoded status, got %+v", got)
	}

	server.Close()
	if got := client.CheckReady(context.Background()); got.Status != domain.StatusUnavailable {
		t.Fatalf("expected unavailable after transport failure, got %+v", got)
	}
}

func TestRequestIDIsForwarded(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	ctx := logging.WithRequestID(context.Background(), "req-42")
	if _, err := New(server.URL).CheckHealth(ctx); err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	if got != "req-42" {
		t.Fatalf("expected forwarded request id, got %q", got)
	}
}

type observerFake struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *observerFake) ObserveUpstreamCall(operation, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, operation+"="+outcome)
}

func TestBreakerFailsFastWithoutRetry(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	observer := &observerFake{}
	client := NewWithOptions(server.URL, Options{
		Observer: observer,
		ResilienceExecutor: resilience.NewExecutor(resilience.Config{
			BreakerEnabled:      true,
			BreakerMinRequests:  2,
			BreakerFailureRatio: 0.5,
			BreakerOpenTimeout:  time.Minute,
		}),
	})

	for i := 0; i < 2; i++ {
		if _, err := client.ListDocuments(context.Background()); err == nil {
			t.Fatalf("expected error on call %d", i)
		}
	}
	_, err := client.ListDocuments(context.Background())
	if !domain.IsKind(err, domain.ErrTemporary) || !domain.IsKind(err, domain.ErrNetwork) {
		t.Fatalf("expected temporary network error from open breaker, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 round trips, got %d", calls)
	}
	joined := strings.Join(observer.outcomes, ",")
	if joined != "list documents=502,list documents=502,list documents=circuit_open" {
		t.Fatalf("unexpected observations: %s", joined)
	}
}

func TestRecordsFailureClassification(t *testing.T) {
	if recordsFailure(&HTTPStatusError{StatusCode: http.StatusBadRequest}) {
		t.Fatalf("4xx must not trip the breaker")
	}
	if !recordsFailure(&HTTPStatusError{StatusCode: http.StatusInternalServerError}) {
		t.Fatalf("5xx must trip the breaker")
	}
	if recordsFailure(context.Canceled) {
		t.Fatalf("cancellation must not trip the breaker")
	}
	if !recordsFailure(errors.New("dial tcp: connection refused")) {
		t.Fatalf("transport failures must trip the breaker")
	}
}
