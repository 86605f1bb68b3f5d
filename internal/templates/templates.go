// Package templates embeds the desk's HTML pages.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed *.tmpl
var files embed.FS

// Load parses every page. Times are shown in loc.
func Load(loc *time.Location) (*template.Template, error) {
	if loc == nil {
		loc = time.Local
	}

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.In(loc).Format("Jan 2, 2006 15:04")
		},
		"isoDate": func(t time.Time) string {
			return t.Format(time.DateOnly)
		},
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(files, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}
