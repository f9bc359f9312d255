package web

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/catalog"
	webembed "github.com/erazemk/locography/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"bytes": func(n int64) string {
			if n < 0 {
				n = 0
			}
			return humanize.Bytes(uint64(n))
		},
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return humanize.Time(t)
		},
		"agoPtr": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return "never"
			}
			return humanize.Time(*t)
		},
		"comma": func(n int) string {
			return humanize.Comma(int64(n))
		},
		"money": func(v float64) string {
			return humanize.CommafWithDigits(v, 2)
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v*100)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"idEq": func(a *int64, b int64) bool {
			return a != nil && *a == b
		},
		"join": strings.Join,
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"dashboard.html",
		"items.html",
		"item_detail.html",
		"locations.html",
		"location_detail.html",
		"categories.html",
		"search.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	Version string
	Error   string
	Success string
}

// Describer suggests item descriptions. *llm.Client implements it.
type Describer interface {
	GenerateDescription(ctx context.Context, name, existing string) (string, error)
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB            *sqlx.DB
	Catalog       *catalog.Service
	Describer     Describer
	Templates     *Templates
	Version       string
	MaxUploadSize int64

	// By-image search defaults.
	SearchLimit     int
	SearchThreshold float64
}

// page builds the base data, picking up flash messages passed through the query string.
func (s *Server) page(r *http.Request, title string) PageData {
	q := r.URL.Query()
	return PageData{
		Title:   title,
		Version: s.Version,
		Error:   q.Get("error"),
		Success: q.Get("ok"),
	}
}
