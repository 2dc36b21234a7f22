package profile

import (
	"fmt"
	"io/fs"

	"github.com/pkg/errors"
)

// IOError is a filesystem failure while writing or reading a profile.
type IOError struct {
	Op    string
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("io error: %s %s", e.Op, e.Path)
}

func (e *IOError) Unwrap() error {
	return e.Cause
}

// IsCollision reports whether err is a version directory that already existed.
func IsCollision(err error) (ok bool) {
	var ioErr *IOError
	ok = errors.As(err, &ioErr) && errors.Is(ioErr.Cause, fs.ErrExist)
	return ok
}
