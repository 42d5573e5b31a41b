// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the site.
// It supports full-page and HTMX partial rendering, automatically detecting
// the request type via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"inkpress/internal/markdown"
	"inkpress/internal/middleware"
	"inkpress/internal/session"
	"inkpress/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// devTemplateDir is read instead of the embedded copy in dev mode, so
// template edits show up on restart without a rebuild of the embed.
const devTemplateDir = "internal/render/templates"

// PageData holds all data passed to page templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active nav section (e.g., "home", "write")
	Session   *session.Data  // Current user session (nil if anonymous)
	CSRFToken string         // CSRF token for forms and HTMX headers
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates lists templates that render as full HTML pages
// without the base layout (they have their own <html>, <head>, etc.).
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_verify": true,
}

// New parses every page template paired with the base layout. When devMode
// is true and the template directory exists on disk, it is used instead of
// the embedded copy.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			"markdown": func(s *string) template.HTML {
				out, err := markdown.Render(s)
				if err != nil {
					slog.Error("markdown render failed", "error", err)
					return ""
				}
				return out
			},
			"date": func(t any) string {
				switch v := t.(type) {
				case time.Time:
					return v.Format("Jan 2, 2006")
				case *time.Time:
					if v == nil {
						return ""
					}
					return v.Format("Jan 2, 2006")
				}
				return ""
			},
			"isoDate": func(t time.Time) string {
				return t.UTC().Format(time.RFC3339)
			},
			"monthYear": func(t time.Time) string {
				return t.Format("January 2006")
			},
			"join": strings.Join,
			// fieldError looks up the message for one form field.
			"fieldError": func(errs validation.FieldErrors, field string) string {
				return errs[field]
			},
			"activeClass": func(current, target string) string {
				if current == target {
					return "nav-active"
				}
				return ""
			},
			"limits": func() map[string]int {
				return map[string]int{
					"Title":       validation.MaxTitleLen,
					"Excerpt":     validation.MaxExcerptLen,
					"Tags":        validation.MaxTags,
					"UsernameMin": validation.MinUsernameLen,
					"UsernameMax": validation.MaxUsernameLen,
					"DisplayName": validation.MaxDisplayNameLen,
					"Bio":         validation.MaxBioLen,
				}
			},
		},
	}

	var src fs.FS
	src, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("sub templates: %w", err)
	}
	if devMode {
		if info, err := os.Stat(devTemplateDir); err == nil && info.IsDir() {
			src = os.DirFS(devTemplateDir)
		}
	}

	pages, err := fs.Glob(src, "*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	// Parse each page template paired with the base layout.
	for _, name := range pages {
		if name == "base.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		var parseErr error
		if standaloneTemplates[tmplName] {
			tmpl, parseErr = template.New(name).Funcs(r.funcMap).ParseFS(src, name)
		} else {
			tmpl, parseErr = template.New("base.html").Funcs(r.funcMap).ParseFS(src, "base.html", name)
		}
		if parseErr != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, parseErr)
		}

		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Page renders a full page or an HTMX partial with status 200.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders a full page or an HTMX partial, depending on the
// request headers. For HTMX requests, only the "content" block is sent.
// Output is buffered so a template error never leaves a half-written page.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	rn.inject(r, data)

	execName := "base.html"
	if middleware.IsHTMX(r) {
		execName = "content"
	} else if standaloneTemplates[name] {
		execName = name + ".html"
	}

	rn.write(w, status, tmpl, execName, data)
}

// Fragment renders one named block of a page template, for HTMX swaps that
// replace a single element (the like button, for instance).
func (rn *Renderer) Fragment(w http.ResponseWriter, r *http.Request, status int, page, block string, data *PageData) {
	tmpl, ok := rn.templates[page]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", page), http.StatusInternalServerError)
		return
	}
	rn.inject(r, data)
	rn.write(w, status, tmpl, block, data)
}

// Bytes renders the full layout of a page into memory. Used to fill the
// page cache.
func (rn *Renderer) Bytes(r *http.Request, name string, data *PageData) ([]byte, error) {
	tmpl, ok := rn.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	rn.inject(r, data)
	// Cached pages are shared between visitors.
	data.CSRFToken = ""
	data.Session = nil

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Error renders the error page with the given status and message.
func (rn *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	rn.PageStatus(w, r, status, "error", &PageData{
		Title: http.StatusText(status),
		Data: map[string]any{
			"Status":  status,
			"Message": message,
		},
	})
}

// NotFound renders the 404 page.
func (rn *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rn.Error(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

// inject fills the request-scoped fields of data from the context.
func (rn *Renderer) inject(r *http.Request, data *PageData) {
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
	if data.Data == nil {
		data.Data = map[string]any{}
	}
}

func (rn *Renderer) write(w http.ResponseWriter, status int, tmpl *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
