package render

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultTemplate is the template name used when none is requested.
const DefaultTemplate = "default"

// DefaultTheme is the HTML/Word theme used when none is requested.
const DefaultTheme = "professional"

//go:embed templates
var embedded embed.FS

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// TemplateRef names the template and theme for a render.
type TemplateRef struct {
	Name  string
	Theme string
}

func (ref TemplateRef) normalized() (out TemplateRef) {
	out = ref
	if strings.TrimSpace(out.Name) == "" {
		out.Name = DefaultTemplate
	}
	if strings.TrimSpace(out.Theme) == "" {
		out.Theme = DefaultTheme
	}
	return out
}

// TemplateSource resolves template text and theme stylesheets.
type TemplateSource interface {
	Template(format Format, name string) (text string, err error)
	Theme(name string) (css string, err error)
}

// EmbeddedSource serves the templates compiled into the binary.
type EmbeddedSource struct{}

// Template returns the embedded template text for format and name.
func (EmbeddedSource) Template(format Format, name string) (text string, err error) {
	file := templateFile(format, name)
	if !namePattern.MatchString(name) {
		err = &TemplateError{Template: file, Message: "invalid template name"}
		return text, err
	}

	var data []byte
	data, err = embedded.ReadFile("templates/" + file)
	if err != nil {
		err = &TemplateError{Template: file, Message: "template not found", Cause: err}
		return text, err
	}

	text = string(data)
	return text, err
}

// Theme returns the embedded stylesheet for a theme.
func (EmbeddedSource) Theme(name string) (css string, err error) {
	file := name + ".css"
	if !namePattern.MatchString(name) {
		err = &TemplateError{Template: file, Message: "invalid theme name"}
		return css, err
	}

	var data []byte
	data, err = embedded.ReadFile("templates/themes/" + file)
	if err != nil {
		err = &TemplateError{Template: file, Message: fmt.Sprintf("unknown theme (available: %s)", strings.Join(Themes(), ", ")), Cause: err}
		return css, err
	}

	css = string(data)
	return css, err
}

// Themes lists the embedded theme names.
func Themes() (names []string) {
	entries, err := fs.ReadDir(embedded, "templates/themes")
	if err != nil {
		return names
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".css") {
			names = append(names, strings.TrimSuffix(e.Name(), ".css"))
		}
	}
	sort.Strings(names)
	return names
}

// DirSource serves templates from a directory, falling back to the embedded defaults.
// Files are read once by NewDirSource; lookups never touch the filesystem.
//
// Layout: <dir>/<name>.<format>.tmpl and <dir>/themes/<theme>.css.
type DirSource struct {
	dir       string
	templates map[string]string
	themes    map[string]string
	fallback  EmbeddedSource
}

// NewDirSource loads every template and theme under dir. A missing dir leaves only
// the embedded defaults.
func NewDirSource(dir string) (source *DirSource, err error) {
	source = &DirSource{
		dir:       dir,
		templates: make(map[string]string),
		themes:    make(map[string]string),
	}

	if dir == "" {
		return source, err
	}

	info, statErr := os.Stat(dir)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return source, err
		}
		err = &TemplateError{Template: dir, Message: "cannot read template directory", Cause: statErr}
		return source, err
	}
	if !info.IsDir() {
		err = &TemplateError{Template: dir, Message: "template path is not a directory"}
		return source, err
	}

	err = loadInto(source.templates, dir, ".tmpl")
	if err != nil {
		return source, err
	}

	err = loadInto(source.themes, filepath.Join(dir, "themes"), ".css")
	return source, err
}

// Dir returns the directory the source was loaded from.
func (s *DirSource) Dir() (dir string) {
	dir = s.dir
	return dir
}

// Template returns the on-disk template if present, else the embedded one.
func (s *DirSource) Template(format Format, name string) (text string, err error) {
	if t, ok := s.templates[templateFile(format, name)]; ok {
		text = t
		return text, err
	}
	text, err = s.fallback.Template(format, name)
	return text, err
}

// Theme returns the on-disk theme if present, else the embedded one.
func (s *DirSource) Theme(name string) (css string, err error) {
	if c, ok := s.themes[name+".css"]; ok {
		css = c
		return css, err
	}
	css, err = s.fallback.Theme(name)
	return css, err
}

func loadInto(dst map[string]string, dir, suffix string) (err error) {
	var entries []os.DirEntry
	entries, err = os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
			return err
		}
		err = &TemplateError{Template: dir, Message: "cannot list template directory", Cause: err}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			err = &TemplateError{Template: path, Message: "cannot read template", Cause: errors.WithStack(err)}
			return err
		}
		dst[entry.Name()] = string(data)
	}

	return err
}

func templateFile(format Format, name string) (file string) {
	file = fmt.Sprintf("%s.%s.tmpl", name, format)
	return file
}
