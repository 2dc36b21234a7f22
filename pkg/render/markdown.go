package render

import (
	"bytes"
	"text/template"

	"github.com/nikogura/cvforge/pkg/content"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---\n"

// FrontMatter is the YAML header of a generated Markdown document.
type FrontMatter struct {
	Generator string         `yaml:"generator"`
	Template  string         `yaml:"template"`
	Content   content.Resume `yaml:"content"`
}

// MarkdownRenderer renders Markdown with the full content embedded as YAML front matter.
type MarkdownRenderer struct {
	source TemplateSource
}

// NewMarkdownRenderer builds a Markdown renderer over source.
func NewMarkdownRenderer(source TemplateSource) (r *MarkdownRenderer) {
	r = &MarkdownRenderer{source: source}
	return r
}

// Format returns FormatMarkdown.
func (r *MarkdownRenderer) Format() (f Format) {
	f = FormatMarkdown
	return f
}

// Render produces the Markdown document.
func (r *MarkdownRenderer) Render(resume content.Resume, ref TemplateRef) (out []byte, err error) {
	ref = ref.normalized()

	var text string
	text, err = r.source.Template(FormatMarkdown, ref.Name)
	if err != nil {
		return out, err
	}

	var body []byte
	body, err = executeText(templateFile(FormatMarkdown, ref.Name), text, resume)
	if err != nil {
		return out, err
	}

	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	err = enc.Encode(FrontMatter{Generator: "cvforge", Template: ref.Name, Content: resume})
	if err != nil {
		err = &TemplateError{Template: "front matter", Message: "failed to encode front matter", Cause: err}
		return out, err
	}
	err = enc.Close()
	if err != nil {
		err = &TemplateError{Template: "front matter", Message: "failed to encode front matter", Cause: err}
		return out, err
	}
	buf.WriteString(frontMatterDelim)
	buf.WriteString("\n")
	buf.Write(body)

	out = buf.Bytes()
	return out, err
}

// ParseFrontMatter splits a generated Markdown document into its front matter and body.
func ParseFrontMatter(doc []byte) (fm FrontMatter, body []byte, err error) {
	doc = bytes.ReplaceAll(doc, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(doc, []byte(frontMatterDelim)) {
		err = errors.New("document has no front matter")
		return fm, body, err
	}

	rest := doc[len(frontMatterDelim):]
	end := bytes.Index(rest, []byte("\n"+frontMatterDelim))
	if end < 0 {
		err = errors.New("front matter is not terminated")
		return fm, body, err
	}

	err = yaml.Unmarshal(rest[:end+1], &fm)
	if err != nil {
		err = errors.Wrap(err, "failed to parse front matter")
		return fm, body, err
	}

	body = bytes.TrimLeft(rest[end+1+len(frontMatterDelim):], "\n")
	return fm, body, err
}

func executeText(name, text string, data any) (out []byte, err error) {
	var tmpl *template.Template
	tmpl, err = template.New(name).Funcs(funcMap()).Option("missingkey=error").Parse(text)
	if err != nil {
		err = &TemplateError{Template: name, Message: "failed to parse template", Cause: err}
		return out, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		err = &TemplateError{Template: name, Message: "failed to execute template", Cause: err}
		return out, err
	}

	out = buf.Bytes()
	return out, err
}
