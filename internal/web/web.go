// Package web renders the server-side HTML pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/smartnotes/smartnotes/internal/form"
	"github.com/smartnotes/smartnotes/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageWelcome     = "welcome"
	PageAuthorized  = "authorized"
	PageLogin       = "login"
	PageSignup      = "signup"
	PageNotesList   = "notes_list"
	PageNotesForm   = "notes_form"
	PageNotesDetail = "notes_detail"
	PageNotesDelete = "notes_delete"
	PageAdminNotes  = "admin_notes"
	PageAdminUsers  = "admin_users"
	PageError       = "error"
)

var pages = []string{
	PageWelcome,
	PageAuthorized,
	PageLogin,
	PageSignup,
	PageNotesList,
	PageNotesForm,
	PageNotesDetail,
	PageNotesDelete,
	PageAdminNotes,
	PageAdminUsers,
	PageError,
}

// PageData is the root value every template executes against.
type PageData struct {
	Title     string
	User      *model.AuthContext
	CSRFToken string
	Errors    form.Errors
	Data      any
}

// Renderer executes pre-parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with the base layout.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}

	for _, page := range pages {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}

	return r, nil
}

// Render writes page with the given status. The page is rendered into a
// buffer first so a template error never produces a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data PageData) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("execute template %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
