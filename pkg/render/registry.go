package render

import (
	"github.com/nikogura/cvforge/pkg/content"
	"github.com/pkg/errors"
)

// Renderer turns a resume into the bytes of one document format.
type Renderer interface {
	Format() Format
	Render(resume content.Resume, ref TemplateRef) ([]byte, error)
}

// Registry maps formats to their renderers.
type Registry struct {
	renderers map[Format]Renderer
}

// NewRegistry returns a registry with the built-in renderers over source.
func NewRegistry(source TemplateSource) (r *Registry) {
	r = &Registry{renderers: make(map[Format]Renderer)}
	r.Register(NewMarkdownRenderer(source))
	r.Register(NewDocxRenderer(source))
	r.Register(NewHTMLRenderer(source))
	return r
}

// Register adds or replaces the renderer for its format.
func (r *Registry) Register(renderer Renderer) {
	r.renderers[renderer.Format()] = renderer
}

// Renderer returns the renderer for f.
func (r *Registry) Renderer(f Format) (renderer Renderer, err error) {
	renderer, ok := r.renderers[f]
	if !ok {
		err = errors.Errorf("no renderer registered for format %q", f)
		return renderer, err
	}
	return renderer, err
}
