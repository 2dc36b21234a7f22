// Package docparse extracts plain text from résumé source documents.
package docparse

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxBytes    = 10 << 20
	defaultConcurrency = 4
)

// Document is the text extracted from one source file.
type Document struct {
	Path string
	Text string
}

// Parser extracts text from PDF, DOCX, Markdown and plain-text files.
type Parser struct {
	maxBytes int64
}

// NewParser returns a Parser that rejects files larger than maxBytes (10 MiB when <= 0).
func NewParser(maxBytes int64) (p *Parser) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	p = &Parser{maxBytes: maxBytes}
	return p
}

// Supported reports whether path has an extension this package can parse.
func Supported(path string) (ok bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx", ".md", ".markdown", ".txt":
		ok = true
	}
	return ok
}

// Parse reads path and returns its text.
func (p *Parser) Parse(ctx context.Context, path string) (text string, err error) {
	err = ctx.Err()
	if err != nil {
		return text, err
	}

	if !Supported(path) {
		err = &UnsupportedFormatError{Path: path, Ext: filepath.Ext(path)}
		return text, err
	}

	var info os.FileInfo
	info, err = os.Stat(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to stat document: %s", path)
		return text, err
	}
	if info.Size() > p.maxBytes {
		err = errors.Errorf("document %s is %d bytes, larger than the %d byte limit", path, info.Size(), p.maxBytes)
		return text, err
	}

	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read document: %s", path)
		return text, err
	}

	text, err = p.ParseBytes(path, data)
	return text, err
}

// ParseBytes extracts text from data, choosing the parser by the extension of name.
func (p *Parser) ParseBytes(name string, data []byte) (text string, err error) {
	if int64(len(data)) > p.maxBytes {
		err = errors.Errorf("document %s is %d bytes, larger than the %d byte limit", name, len(data), p.maxBytes)
		return text, err
	}

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".pdf":
		text, err = extractPDF(name, data)
	case ".docx":
		text, err = extractDOCX(name, data)
	case ".md", ".markdown", ".txt":
		if !utf8.Valid(data) {
			err = &CorruptFileError{Path: name, Message: "text is not valid UTF-8"}
			return text, err
		}
		text = string(data)
	default:
		err = &UnsupportedFormatError{Path: name, Ext: filepath.Ext(name)}
		return text, err
	}
	if err != nil {
		return text, err
	}

	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		err = &CorruptFileError{Path: name, Message: "no extractable text"}
		return text, err
	}

	return text, err
}

// ParseAll parses paths concurrently and returns the documents in input order.
// The first failure cancels the remaining parses.
func (p *Parser) ParseAll(ctx context.Context, paths []string) (docs []Document, err error) {
	docs = make([]Document, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultConcurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			text, parseErr := p.Parse(gctx, path)
			if parseErr != nil {
				return parseErr
			}
			docs[i] = Document{Path: path, Text: text}
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		docs = nil
		return docs, err
	}

	return docs, err
}

// Combine joins documents into one text block, each headed by its file name.
func Combine(docs []Document) (text string) {
	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== %s ===\n%s", filepath.Base(doc.Path), doc.Text)
	}
	text = b.String()
	return text
}

func extractPDF(name string, data []byte) (text string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = &CorruptFileError{Path: name, Message: fmt.Sprintf("pdf reader panicked: %v", r)}
		}
	}()

	var reader *pdf.Reader
	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = &CorruptFileError{Path: name, Message: "cannot open pdf", Cause: err}
		return text, err
	}

	var plain io.Reader
	plain, err = reader.GetPlainText()
	if err != nil {
		err = &CorruptFileError{Path: name, Message: "cannot extract pdf text", Cause: err}
		return text, err
	}

	var buf bytes.Buffer
	_, err = io.Copy(&buf, plain)
	if err != nil {
		err = &CorruptFileError{Path: name, Message: "cannot extract pdf text", Cause: err}
		return text, err
	}

	text = buf.String()
	return text, err
}

func extractDOCX(name string, data []byte) (text string, err error) {
	var zr *zip.Reader
	zr, err = zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = &CorruptFileError{Path: name, Message: "not a zip archive", Cause: err}
		return text, err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		err = &CorruptFileError{Path: name, Message: "word/document.xml not found"}
		return text, err
	}

	var rc io.ReadCloser
	rc, err = docFile.Open()
	if err != nil {
		err = &CorruptFileError{Path: name, Message: "cannot open word/document.xml", Cause: err}
		return text, err
	}
	defer rc.Close()

	text, err = docxText(rc)
	if err != nil {
		err = &CorruptFileError{Path: name, Message: "malformed word/document.xml", Cause: err}
		return text, err
	}

	return text, err
}

// docxText walks document.xml, keeping text runs and turning paragraphs, breaks and
// tabs into whitespace.
func docxText(r io.Reader) (text string, err error) {
	decoder := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		var tok xml.Token
		tok, err = decoder.Token()
		if err == io.EOF {
			err = nil
			break
		}
		if err != nil {
			return text, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br", "cr":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	text = b.String()
	return text, err
}
