// Package renderer turns stockfolio reports into markdown.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.md
var templates embed.FS

// ListMarkdown renders the list of portfolios.
func ListMarkdown(l *Listing) string {
	return renderTemplate("list", "list.md", nil, l)
}

// PortfolioMarkdown renders the lots of a single portfolio.
func PortfolioMarkdown(p *PortfolioReport) string {
	partials := map[string]string{
		"lots": "lots.md",
	}
	return renderTemplate("portfolio", "portfolio.md", partials, p)
}

// ValueMarkdown renders the value of a portfolio on a date.
func ValueMarkdown(v *ValueReport) string {
	partials := map[string]string{
		"title":     "title.md",
		"positions": "positions.md",
	}
	return renderTemplate("value", "value.md", partials, v)
}

// CompositionMarkdown renders the composition of a portfolio on a date.
func CompositionMarkdown(c *CompositionReport) string {
	partials := map[string]string{
		"title": "title.md",
	}
	return renderTemplate("composition", "composition.md", partials, c)
}

// CostBasisMarkdown renders the cost basis of a portfolio as of a date.
func CostBasisMarkdown(c *CostBasisReport) string {
	partials := map[string]string{
		"title": "title.md",
	}
	return renderTemplate("costbasis", "costbasis.md", partials, c)
}

// ExecutionMarkdown renders the outcome of a DCA strategy execution.
func ExecutionMarkdown(e *ExecutionReport) string {
	partials := map[string]string{
		"lots": "lots.md",
	}
	// nothing to list when every scheduled date is still to come
	if len(e.Lots) == 0 {
		partials["lots"] = ""
	}
	return renderTemplate("execution", "execution.md", partials, e)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			content, err = fs.ReadFile(templates, "templates/"+file)
			if err != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// markdown is the goldmark configuration shared by HTML and the tests: GitHub
// flavored tables are needed by every report.
func markdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.Table))
}

// HTML converts a markdown report to an HTML fragment.
func HTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown().Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
