// Package render turns message content into display-ready markup.
package render

import (
	"bytes"
	"html/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown message bodies to sanitized HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New returns a Renderer that keeps single line breaks, matching how messages are typed.
func New() *Renderer {
	return &Renderer{
		md:     goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps())),
		policy: bluemonday.UGCPolicy(),
	}
}

// HTML renders src as markdown and strips anything unsafe. Conversion errors fall back
// to the escaped source text.
func (r *Renderer) HTML(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// Clock formats a timestamp as two-digit hour and minute in the local zone.
func Clock(t time.Time) string {
	return t.Local().Format("15:04")
}
