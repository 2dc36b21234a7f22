package render

import (
	"bytes"
	"html/template"

	"github.com/nikogura/cvforge/pkg/content"
)

type htmlView struct {
	content.Resume
	Theme string
	CSS   template.CSS
}

// HTMLRenderer renders a standalone HTML page styled by an embedded theme.
type HTMLRenderer struct {
	source TemplateSource
}

// NewHTMLRenderer builds an HTML renderer over source.
func NewHTMLRenderer(source TemplateSource) (r *HTMLRenderer) {
	r = &HTMLRenderer{source: source}
	return r
}

// Format returns FormatHTML.
func (r *HTMLRenderer) Format() (f Format) {
	f = FormatHTML
	return f
}

// Render produces the HTML document.
func (r *HTMLRenderer) Render(resume content.Resume, ref TemplateRef) (out []byte, err error) {
	ref = ref.normalized()
	name := templateFile(FormatHTML, ref.Name)

	var text string
	text, err = r.source.Template(FormatHTML, ref.Name)
	if err != nil {
		return out, err
	}

	var css string
	css, err = r.source.Theme(ref.Theme)
	if err != nil {
		return out, err
	}

	var tmpl *template.Template
	tmpl, err = template.New(name).Funcs(funcMap()).Parse(text)
	if err != nil {
		err = &TemplateError{Template: name, Message: "failed to parse template", Cause: err}
		return out, err
	}

	var buf bytes.Buffer
	//nolint:gosec // theme stylesheets come from the embedded set or the operator's template dir
	err = tmpl.Execute(&buf, htmlView{Resume: resume, Theme: ref.Theme, CSS: template.CSS(css)})
	if err != nil {
		err = &TemplateError{Template: name, Message: "failed to execute template", Cause: err}
		return out, err
	}

	out = buf.Bytes()
	return out, err
}
