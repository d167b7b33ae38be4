package httpadapter

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/core/ports"
	"github.com/kirillkom/corpus-admin/internal/core/usecase"
	"github.com/kirillkom/corpus-admin/internal/infrastructure/export"
	"github.com/kirillkom/corpus-admin/internal/observability/logging"
)

const (
	sessionCookie      = "corpus_admin_session"
	activityPageSize   = 50
	multipartOverhead  = 1 << 20
	maxFormMemoryBytes = 8 << 20
)

// WorkspaceStore hands out the per-session page state.
type WorkspaceStore interface {
	Resolve(id string) (string, *usecase.Workspace, bool)
}

// Metrics is the slice of the metrics layer the router mounts.
type Metrics interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

type Options struct {
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
	SecureCookies  bool
}

type Router struct {
	dashboard ports.DashboardLoader
	sessions  WorkspaceStore
	auditLog  ports.AuditLog
	metrics   Metrics
	options   Options
	templates map[string]*template.Template
}

func NewRouter(
	dashboard ports.DashboardLoader,
	sessions WorkspaceStore,
	auditLog ports.AuditLog,
	metrics Metrics,
	options Options,
) (*Router, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = usecase.DefaultMaxUploadBytes
	}
	return &Router{
		dashboard: dashboard,
		sessions:  sessions,
		auditLog:  auditLog,
		metrics:   metrics,
		options:   options,
		templates: templates,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("GET /static/", staticHandler())
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("GET /{$}", rt.showDashboard)
	mux.HandleFunc("GET /documents", rt.withWorkspace(rt.showDocuments))
	mux.HandleFunc("POST /documents/refresh", rt.withWorkspace(rt.refreshDocuments))
	mux.HandleFunc("GET /documents/export.xlsx", rt.withWorkspace(rt.exportDocuments))
	mux.HandleFunc("GET /documents/{id}/delete", rt.withWorkspace(rt.confirmDelete))
	mux.HandleFunc("POST /documents/{id}/delete", rt.withWorkspace(rt.deleteDocument))
	mux.HandleFunc("GET /upload", rt.withWorkspace(rt.showUpload))
	mux.HandleFunc("POST /upload", rt.withWorkspace(rt.submitUpload))
	mux.HandleFunc("POST /upload/clear", rt.withWorkspace(rt.clearUploadFile))
	mux.HandleFunc("POST /upload/reset", rt.withWorkspace(rt.resetUpload))
	mux.HandleFunc("GET /ingest", rt.withWorkspace(rt.showIngest))
	mux.HandleFunc("POST /ingest", rt.withWorkspace(rt.submitIngest))
	mux.HandleFunc("GET /activity", rt.showActivity)

	var handler http.Handler = rateLimitMiddleware(mux, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

type workspaceHandler func(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace)

// withWorkspace attaches the caller's session state, issuing a cookie for new sessions.
func (rt *Router) withWorkspace(next workspaceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var current string
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			current = cookie.Value
		}
		id, ws, created := rt.sessions.Resolve(current)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   rt.options.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next(w, r, ws)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type page struct {
	Title     string
	Active    string
	RequestID string
	Error     string
	Notice    string
}

func newPage(r *http.Request, title, active string) page {
	return page{
		Title:     title,
		Active:    active,
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

type dashboardView struct {
	page
	Dashboard domain.Dashboard
}

func (rt *Router) showDashboard(w http.ResponseWriter, r *http.Request) {
	view := dashboardView{
		page:      newPage(r, "Dashboard", "dashboard"),
		Dashboard: rt.dashboard.LoadDashboard(r.Context()),
	}
	view.Error = view.Dashboard.FetchError
	rt.render(w, http.StatusOK, "dashboard.html", view)
}

type documentsView struct {
	page
	Filter      domain.Filter
	FilterQuery template.URL
	State       domain.ListState
	Total       int
	Documents   []documentRow
	EmptyHint   string
	SourceTypes []domain.SourceTypeInfo
	Scopes      []scopeOption
}

type documentRow struct {
	domain.Document
	Deleting bool
}

type scopeOption struct {
	Value domain.Scope
	Label string
}

var scopeOptions = []scopeOption{
	{Value: domain.ScopeVerified, Label: "Verified"},
	{Value: domain.ScopeUser, Label: "User"},
	{Value: domain.ScopeAll, Label: "All"},
}

func parseFilter(values url.Values) domain.Filter {
	filter := domain.DefaultFilter()
	filter.Scope = domain.ParseScope(values.Get("scope"))
	if raw := strings.TrimSpace(values.Get("type")); raw != "" {
		filter.Type = raw
	}
	filter.Search = values.Get("q")
	return filter
}

func filterQuery(filter domain.Filter) string {
	values := url.Values{}
	values.Set("scope", string(filter.Scope))
	if filter.Type != "" && filter.Type != domain.TypeAll {
		values.Set("type", filter.Type)
	}
	if filter.Search != "" {
		values.Set("q", filter.Search)
	}
	return values.Encode()
}

func (rt *Router) documentsView(r *http.Request, ws *usecase.Workspace, filter domain.Filter) documentsView {
	snapshot := ws.Documents.Snapshot()
	visible := usecase.ApplyFilter(snapshot.Documents, filter)
	rows := make([]documentRow, 0, len(visible))
	for _, doc := range visible {
		rows = append(rows, documentRow{Document: doc, Deleting: ws.Documents.IsDeleting(doc.ID)})
	}
	view := documentsView{
		page:        newPage(r, "Documents", "documents"),
		Filter:      filter,
		FilterQuery: template.URL(filterQuery(filter)),
		State:       snapshot.State,
		Total:       len(snapshot.Documents),
		Documents:   rows,
		EmptyHint:   usecase.EmptyHint(len(snapshot.Documents)),
		SourceTypes: domain.SourceTypes(),
		Scopes:      scopeOptions,
	}
	view.Error = snapshot.Error
	return view
}

// showDocuments renders from the session snapshot; the backend is only asked on first visit.
func (rt *Router) showDocuments(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	if !ws.Documents.Loaded() {
		_ = ws.Documents.Load(r.Context())
	}
	filter := parseFilter(r.URL.Query())
	status := http.StatusOK
	if ws.Documents.Snapshot().State == domain.ListError {
		status = http.StatusBadGateway
	}
	rt.render(w, status, "documents.html", rt.documentsView(r, ws, filter))
}

func (rt *Router) refreshDocuments(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	_ = r.ParseForm()
	filter := parseFilter(r.PostForm)
	if err := ws.Documents.Load(r.Context()); err != nil {
		rt.render(w, mapErrorToHTTPStatus(err), "documents.html", rt.documentsView(r, ws, filter))
		return
	}
	http.Redirect(w, r, "/documents?"+filterQuery(filter), http.StatusSeeOther)
}

func (rt *Router) exportDocuments(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	if !ws.Documents.Loaded() {
		if err := ws.Documents.Load(r.Context()); err != nil {
			http.Error(w, domain.UserMessage(err), mapErrorToHTTPStatus(err))
			return
		}
	}
	docs := ws.Documents.Visible(parseFilter(r.URL.Query()))
	filename := "documents-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.WriteDocumentsXLSX(w, docs); err != nil {
		slog.Error("export_failed", "request_id", logging.RequestIDFromContext(r.Context()), "error", err)
	}
}

type deleteView struct {
	page
	Document    domain.Document
	FilterQuery template.URL
	Filter      domain.Filter
}

func (rt *Router) confirmDelete(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	filter := parseFilter(r.URL.Query())
	doc, ok := ws.Documents.Find(r.PathValue("id"))
	if !ok {
		view := rt.documentsView(r, ws, filter)
		view.Error = "document not found"
		rt.render(w, http.StatusNotFound, "documents.html", view)
		return
	}
	rt.render(w, http.StatusOK, "delete.html", deleteView{
		page:        newPage(r, "Delete document", "documents"),
		Document:    doc,
		FilterQuery: template.URL(filterQuery(filter)),
		Filter:      filter,
	})
}

// deleteDocument runs the confirmed delete and keeps the operator's filters on the way back.
func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	_ = r.ParseForm()
	filter := parseFilter(r.PostForm)
	id := r.PathValue("id")

	doc, found := ws.Documents.Find(id)
	err := ws.Documents.Delete(r.Context(), id, r.PostForm.Get("confirm") == "yes")
	if err == nil {
		http.Redirect(w, r, "/documents?"+filterQuery(filter), http.StatusSeeOther)
		return
	}

	if domain.IsKind(err, domain.ErrValidation) && found {
		rt.render(w, http.StatusBadRequest, "delete.html", deleteView{
			page:        pageWithError(newPage(r, "Delete document", "documents"), err),
			Document:    doc,
			FilterQuery: template.URL(filterQuery(filter)),
			Filter:      filter,
		})
		return
	}
	view := rt.documentsView(r, ws, filter)
	view.Error = domain.UserMessage(err)
	rt.render(w, mapErrorToHTTPStatus(err), "documents.html", view)
}

type uploadView struct {
	page
	Upload      domain.UploadSnapshot
	CanSubmit   bool
	MaxSize     string
	SourceTypes []domain.SourceTypeInfo
	Languages   []domain.LanguageInfo
}

func (rt *Router) uploadView(r *http.Request, ws *usecase.Workspace) uploadView {
	snapshot := ws.Upload.Snapshot()
	view := uploadView{
		page:        newPage(r, "Upload", "upload"),
		Upload:      snapshot,
		CanSubmit:   snapshot.CanSubmit(),
		MaxSize:     usecase.FormatSize(rt.options.MaxUploadBytes),
		SourceTypes: domain.SourceTypes(),
		Languages:   domain.Languages(),
	}
	view.Error = snapshot.Error
	return view
}

func (rt *Router) showUpload(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	rt.render(w, http.StatusOK, "upload.html", rt.uploadView(r, ws))
}

// submitUpload applies the posted fields, attaches a newly chosen file and, unless the
// operator only attached, submits. A file already attached in the session is reused.
func (rt *Router) submitUpload(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.options.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxFormMemoryBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		view := rt.uploadView(r, ws)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			view.Error = "file is larger than " + usecase.FormatSize(rt.options.MaxUploadBytes)
			rt.render(w, http.StatusRequestEntityTooLarge, "upload.html", view)
			return
		}
		view.Error = "could not read the form"
		rt.render(w, http.StatusBadRequest, "upload.html", view)
		return
	}

	if _, ok := r.Form["title"]; ok {
		ws.Upload.SetTitle(r.FormValue("title"))
	}
	if sourceType, ok := domain.ParseSourceType(r.FormValue("source_type")); ok {
		ws.Upload.SetSourceType(sourceType)
	}
	if _, ok := domain.LookupLanguage(r.FormValue("language")); ok {
		ws.Upload.SetLanguage(r.FormValue("language"))
	}

	if file, header, err := r.FormFile("file"); err == nil {
		content, readErr := io.ReadAll(file)
		_ = file.Close()
		if readErr != nil {
			view := rt.uploadView(r, ws)
			view.Error = "could not read the file"
			rt.render(w, http.StatusBadRequest, "upload.html", view)
			return
		}
		if err := ws.Upload.SelectFile(header.Filename, content); err != nil {
			view := rt.uploadView(r, ws)
			view.Error = domain.UserMessage(err)
			rt.render(w, mapErrorToHTTPStatus(err), "upload.html", view)
			return
		}
	}

	if r.FormValue("action") == "attach" {
		rt.render(w, http.StatusOK, "upload.html", rt.uploadView(r, ws))
		return
	}

	if _, err := ws.Upload.Submit(r.Context()); err != nil {
		view := rt.uploadView(r, ws)
		if view.Error == "" {
			view.Error = domain.UserMessage(err)
		}
		rt.render(w, mapErrorToHTTPStatus(err), "upload.html", view)
		return
	}
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

func (rt *Router) clearUploadFile(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	ws.Upload.ClearFile()
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

func (rt *Router) resetUpload(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	ws.Upload.Reset()
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

type ingestView struct {
	page
	Ingest      domain.IngestSnapshot
	SourceTypes []domain.SourceTypeInfo
	Languages   []domain.LanguageInfo
}

func (rt *Router) ingestView(r *http.Request, ws *usecase.Workspace) ingestView {
	snapshot := ws.Ingest.Snapshot()
	view := ingestView{
		page:        newPage(r, "Ingest text", "ingest"),
		Ingest:      snapshot,
		SourceTypes: domain.SourceTypes(),
		Languages:   domain.Languages(),
	}
	view.Error = snapshot.Error
	return view
}

func (rt *Router) showIngest(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	if r.URL.Query().Get("reset") == "1" {
		ws.Ingest.Reset()
	}
	rt.render(w, http.StatusOK, "ingest.html", rt.ingestView(r, ws))
}

func (rt *Router) submitIngest(w http.ResponseWriter, r *http.Request, ws *usecase.Workspace) {
	_ = r.ParseForm()
	req := domain.IngestRequest{
		Title:      r.PostForm.Get("title"),
		SourceType: domain.SourceType(strings.TrimSpace(r.PostForm.Get("source_type"))),
		Language:   r.PostForm.Get("language"),
		Content:    r.PostForm.Get("content"),
	}
	if author := strings.TrimSpace(r.PostForm.Get("author")); author != "" {
		req.Metadata = map[string]string{"author": author}
	}

	if _, err := ws.Ingest.Submit(r.Context(), req); err != nil {
		view := rt.ingestView(r, ws)
		if view.Error == "" {
			view.Error = domain.UserMessage(err)
		}
		rt.render(w, mapErrorToHTTPStatus(err), "ingest.html", view)
		return
	}
	http.Redirect(w, r, "/ingest", http.StatusSeeOther)
}

type activityView struct {
	page
	Events []domain.AuditEvent
}

func (rt *Router) showActivity(w http.ResponseWriter, r *http.Request) {
	view := activityView{page: newPage(r, "Activity", "activity")}
	if rt.auditLog != nil {
		events, err := rt.auditLog.ListRecent(r.Context(), activityPageSize)
		if err != nil {
			slog.Warn("activity_load_failed", "request_id", view.RequestID, "error", err)
			view.Error = "activity log is unavailable"
		}
		view.Events = events
	}
	rt.render(w, http.StatusOK, "activity.html", view)
}

func pageWithError(p page, err error) page {
	p.Error = domain.UserMessage(err)
	return p
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
