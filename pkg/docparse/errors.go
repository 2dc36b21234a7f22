package docparse

import "fmt"

// UnsupportedFormatError is returned for files whose extension has no parser.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format %q: %s (supported: .pdf, .docx, .md, .markdown, .txt)", e.Ext, e.Path)
}

// CorruptFileError is returned when a file of a supported type cannot be read as one.
type CorruptFileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *CorruptFileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("corrupt document %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("corrupt document %s: %s", e.Path, e.Message)
}

func (e *CorruptFileError) Unwrap() error {
	return e.Cause
}
