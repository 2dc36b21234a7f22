package version

import "fmt"

// PathError reports a profile root that cannot be listed.
type PathError struct {
	Path  string
	Cause error
}

func (e *PathError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("path error: %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("path error: %s", e.Path)
}

func (e *PathError) Unwrap() error {
	return e.Cause
}
