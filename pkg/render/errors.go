package render

import "fmt"

// TemplateError represents a template that could not be resolved, parsed or executed.
type TemplateError struct {
	Template string
	Message  string
	Cause    error
}

func (e *TemplateError) Error() string {
	prefix := "template error"
	if e.Template != "" {
		prefix = fmt.Sprintf("template error in %s", e.Template)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}
