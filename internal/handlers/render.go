package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"cybercafe/internal/security"
)

// Renderer executes page templates with the shared header data
type Renderer struct {
	templates *template.Template
	csrf      *security.CSRF
}

// NewRenderer creates a renderer over parsed templates
func NewRenderer(templates *template.Template, csrf *security.CSRF) *Renderer {
	return &Renderer{templates: templates, csrf: csrf}
}

// Page builds the header data for the signed-in operator
func (rd *Renderer) Page(r *http.Request, title string) Page {
	return Page{
		Title:     title,
		Operator:  GetOperatorFromContext(r.Context()),
		CSRFToken: rd.csrf.Token(GetSessionIDFromContext(r.Context())),
	}
}

// Render writes the named template with status. Output is buffered so a
// failing template never sends a partial page.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := rd.templates.ExecuteTemplate(&buf, name, data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to render "+name, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
