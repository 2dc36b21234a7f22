// Package render turns a content.Resume into Markdown, Word and HTML documents.
//
// Rendering is pure: templates are resolved through a TemplateSource before any
// bytes are produced, and the same resume with the same TemplateRef always yields
// byte-identical output.
package render

import (
	"strings"

	"github.com/pkg/errors"
)

// Format is an output document format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatWord     Format = "word"
	FormatHTML     Format = "html"
)

// AllFormats lists every supported format in generation order.
func AllFormats() (formats []Format) {
	formats = []Format{FormatMarkdown, FormatWord, FormatHTML}
	return formats
}

// Ext returns the file extension, without the dot.
func (f Format) Ext() (ext string) {
	switch f {
	case FormatMarkdown:
		ext = "md"
	case FormatWord:
		ext = "docx"
	case FormatHTML:
		ext = "html"
	}
	return ext
}

func (f Format) String() string {
	return string(f)
}

// ParseFormat accepts a format name or one of its common aliases.
func ParseFormat(s string) (f Format, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		f = FormatMarkdown
	case "word", "docx":
		f = FormatWord
	case "html", "htm":
		f = FormatHTML
	default:
		err = errors.Errorf("unsupported output format %q (supported: markdown, word, html)", s)
	}
	return f, err
}

// ParseFormats parses a list of names, dropping duplicates while keeping first-seen order.
func ParseFormats(names []string) (formats []Format, err error) {
	seen := make(map[Format]bool, len(names))
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			var f Format
			f, err = ParseFormat(part)
			if err != nil {
				return formats, err
			}
			if seen[f] {
				continue
			}
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, err
}
