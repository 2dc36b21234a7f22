package docparse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nikogura/cvforge/pkg/content"
	"github.com/nikogura/cvforge/pkg/render"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) (path string) {
	t.Helper()
	path = filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestParseText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", []byte("# Jane\r\n\r\n- shipped things\r\n"))

	text, err := NewParser(0).Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# Jane\n\n- shipped things", text)
}

func TestParseDocx(t *testing.T) {
	resume := content.Resume{
		Name:       "Jane Roe",
		Experience: []content.Experience{{Organization: "Acme", Title: "SRE", Bullets: []string{"Kept the lights on"}}},
	}
	data, err := render.NewDocxRenderer(render.EmbeddedSource{}).Render(resume, render.TemplateRef{})
	require.NoError(t, err)

	path := writeFile(t, t.TempDir(), "cv.docx", data)
	text, err := NewParser(0).Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Roe\n")
	assert.Contains(t, text, "SRE, Acme\n")
	assert.Contains(t, text, "Kept the lights on")
}

func TestParseUnsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cv.rtf", []byte("{\\rtf1}"))

	_, err := NewParser(0).Parse(context.Background(), path)
	var unsupported *UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, ".rtf", unsupported.Ext)
}

func TestParseCorrupt(t *testing.T) {
	dir := t.TempDir()
	cases := map[string][]byte{
		"broken.pdf":  []byte("%PDF-1.4 this is not really a pdf"),
		"broken.docx": []byte("not a zip"),
		"empty.txt":   []byte("   \n"),
		"binary.txt":  {0xff, 0xfe, 0xfd},
	}

	p := NewParser(0)
	for name, data := range cases {
		path := writeFile(t, dir, name, data)
		_, err := p.Parse(context.Background(), path)
		var corrupt *CorruptFileError
		assert.True(t, errors.As(err, &corrupt), "%s: %v", name, err)
	}
}

func TestParseSizeLimit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "big.txt", []byte("0123456789"))

	_, err := NewParser(5).Parse(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "byte limit")
}

func TestParseAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"c.txt", "a.txt", "b.md", "d.txt", "e.txt", "f.txt"} {
		paths = append(paths, writeFile(t, dir, name, []byte("text of "+name)))
	}

	docs, err := NewParser(0).ParseAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, docs, len(paths))
	for i, doc := range docs {
		assert.Equal(t, paths[i], doc.Path)
		assert.Equal(t, "text of "+filepath.Base(paths[i]), doc.Text)
	}

	combined := Combine(docs[:2])
	assert.Equal(t, "=== c.txt ===\ntext of c.txt\n\n=== a.txt ===\ntext of a.txt", combined)
}

func TestParseAllFails(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "ok.txt", []byte("fine")),
		filepath.Join(dir, "missing.txt"),
	}

	docs, err := NewParser(0).ParseAll(context.Background(), paths)
	require.Error(t, err)
	assert.Nil(t, docs)
}
