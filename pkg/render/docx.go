package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/nikogura/cvforge/pkg/content"
	"github.com/pkg/errors"
)

// zip entries carry a fixed timestamp so identical input produces identical archives
var docxEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

var themeFonts = map[string]string{
	"professional": "Calibri",
	"modern":       "Helvetica",
	"creative":     "Georgia",
	"traditional":  "Times New Roman",
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const stylesXMLFormat = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:cs="%[1]s"/><w:sz w:val="21"/></w:rPr></w:rPrDefault>
<w:pPrDefault><w:pPr><w:spacing w:after="80"/></w:pPr></w:pPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:rPr><w:b/><w:sz w:val="40"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Subtitle"><w:name w:val="Subtitle"/><w:basedOn w:val="Normal"/><w:rPr><w:i/><w:sz w:val="24"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="240" w:after="80"/></w:pPr><w:rPr><w:b/><w:sz w:val="28"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:rPr><w:b/><w:sz w:val="22"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/><w:pPr><w:ind w:left="360" w:hanging="360"/></w:pPr></w:style>
</w:styles>`

// DocxRenderer renders an Office Open XML word-processing package.
type DocxRenderer struct {
	source TemplateSource
}

// NewDocxRenderer builds a Word renderer over source.
func NewDocxRenderer(source TemplateSource) (r *DocxRenderer) {
	r = &DocxRenderer{source: source}
	return r
}

// Format returns FormatWord.
func (r *DocxRenderer) Format() (f Format) {
	f = FormatWord
	return f
}

// Render produces the .docx archive.
func (r *DocxRenderer) Render(resume content.Resume, ref TemplateRef) (out []byte, err error) {
	ref = ref.normalized()
	name := templateFile(FormatWord, ref.Name)

	font, ok := themeFonts[ref.Theme]
	if !ok {
		// themes from a template dir still need to exist
		_, err = r.source.Theme(ref.Theme)
		if err != nil {
			return out, err
		}
		font = themeFonts[DefaultTheme]
	}

	var text string
	text, err = r.source.Template(FormatWord, ref.Name)
	if err != nil {
		return out, err
	}

	var document []byte
	document, err = executeText(name, text, resume)
	if err != nil {
		return out, err
	}

	err = checkWellFormed(document)
	if err != nil {
		err = &TemplateError{Template: name, Message: "template produced malformed document.xml", Cause: err}
		return out, err
	}

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/document.xml", document},
		{"word/styles.xml", []byte(fmt.Sprintf(stylesXMLFormat, font))},
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, part := range parts {
		err = writeZipEntry(writer, part.name, part.data)
		if err != nil {
			_ = writer.Close()
			err = &TemplateError{Template: name, Message: "failed to assemble docx package", Cause: err}
			return out, err
		}
	}

	err = writer.Close()
	if err != nil {
		err = &TemplateError{Template: name, Message: "failed to assemble docx package", Cause: err}
		return out, err
	}

	out = buf.Bytes()
	return out, err
}

func writeZipEntry(writer *zip.Writer, name string, data []byte) (err error) {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: docxEpoch,
	}

	var dst io.Writer
	dst, err = writer.CreateHeader(header)
	if err != nil {
		err = errors.Wrapf(err, "failed to create zip entry %s", name)
		return err
	}

	_, err = dst.Write(data)
	if err != nil {
		err = errors.Wrapf(err, "failed to write zip entry %s", name)
		return err
	}

	return err
}

func checkWellFormed(data []byte) (err error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err = decoder.Token()
		if err == io.EOF {
			err = nil
			return err
		}
		if err != nil {
			return err
		}
	}
}
