package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"conferencecompanion/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))
)

// Each template name maps to <name>_subject.txt, <name>.html and <name>.txt.
type templateRenderer struct{}

// NewTemplateRenderer returns a renderer over the embedded templates.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return templateRenderer{}
}

func (templateRenderer) Render(name string, data any) (subject, htmlBody, textBody string, err error) {
	if subject, err = executeText(name+"_subject.txt", data); err != nil {
		return "", "", "", err
	}
	if textBody, err = executeText(name+".txt", data); err != nil {
		return "", "", "", err
	}
	t := htmlTemplates.Lookup(name + ".html")
	if t == nil {
		return "", "", "", fmt.Errorf("email template %s.html not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render %s.html: %w", name, err)
	}
	return strings.TrimSpace(subject), buf.String(), textBody, nil
}

func executeText(file string, data any) (string, error) {
	t := textTemplates.Lookup(file)
	if t == nil {
		return "", fmt.Errorf("email template %s not found", file)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", file, err)
	}
	return buf.String(), nil
}
