package httpadapter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/core/usecase"
)

//go:embed web/templates/*.html web/static/*
var webFiles embed.FS

var pageNames = []string{
	"dashboard.html",
	"documents.html",
	"delete.html",
	"upload.html",
	"ingest.html",
	"activity.html",
}

var templateFuncs = template.FuncMap{
	"typeInfo": func(value domain.SourceType) domain.SourceTypeInfo {
		info, _ := domain.LookupSourceType(value)
		return info
	},
	"langInfo": func(code string) domain.LanguageInfo {
		info, _ := domain.LookupLanguage(code)
		return info
	},
	"pathEscape": url.PathEscape,
	"formatSize": usecase.FormatSize,
	"formatDate": formatDate,
	"formatTime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04:05")
	},
	"percent": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v)
	},
}

func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(webFiles,
			"web/templates/layout.html",
			"web/templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		out[name] = tmpl
	}
	return out, nil
}

func staticHandler() http.Handler {
	static, err := fs.Sub(webFiles, "web/static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(static)))
}

func (rt *Router) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := rt.templates[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("template_render_failed", "template", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// formatDate shows the calendar date of an RFC 3339 timestamp and echoes anything else.
func formatDate(raw string) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}
