package httpcontroller

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/observability/metrics"
	"github.com/courtside/wintracker/internal/tracker"
)

// ViewsFs holds the HTML templates.
//
//go:embed views/*.html
var ViewsFs embed.FS

// TemplateRenderer is a custom HTML template renderer for Echo framework.
type TemplateRenderer struct {
	templates *template.Template
	metrics   *metrics.HTTPMetrics
	log       logger.Logger
}

// templateFunctions returns the functions available to every view.
func templateFunctions() template.FuncMap {
	return template.FuncMap{
		"title": func(s string) string {
			return cases.Title(language.English).String(s)
		},
		"lower":   strings.ToLower,
		"percent": tracker.FormatPercentage,
	}
}

func newTemplateRenderer(m *metrics.HTTPMetrics, log logger.Logger) (*TemplateRenderer, error) {
	tmpl, err := template.New("").Funcs(templateFunctions()).ParseFS(ViewsFs, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl, metrics: m, log: log}, nil
}

// Render executes into a buffer first so a failing template never sends a partial page.
func (t *TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	start := time.Now()

	var buf bytes.Buffer
	if err := t.templates.ExecuteTemplate(&buf, name, data); err != nil {
		t.log.Error("Error executing template", logger.String("template", name), logger.Error(err))
		if t.metrics != nil {
			t.metrics.RecordTemplateRenderError(name, "execute")
		}
		return err
	}

	if t.metrics != nil {
		t.metrics.RecordTemplateRender(name, time.Since(start).Seconds())
	}

	if _, err := buf.WriteTo(w); err != nil {
		t.log.Error("Error writing template result", logger.String("template", name), logger.Error(err))
		return err
	}
	return nil
}
