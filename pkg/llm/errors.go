package llm

import "fmt"

// Kinds of AIServiceError.
const (
	KindNetwork  = "network"
	KindAuth     = "auth"
	KindQuota    = "quota"
	KindService  = "service"
	KindRequest  = "request"
	KindResponse = "response"
)

// AIServiceError is any failure of the AI collaborator. Callers decide whether to retry.
type AIServiceError struct {
	Kind       string
	StatusCode int
	Message    string
	Cause      error
}

func (e *AIServiceError) Error() string {
	msg := fmt.Sprintf("ai service error (%s): %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("ai service error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AIServiceError) Unwrap() error {
	return e.Cause
}

func kindForStatus(status int) (kind string) {
	switch {
	case status == 401 || status == 403:
		kind = KindAuth
	case status == 429:
		kind = KindQuota
	case status >= 500:
		kind = KindService
	default:
		kind = KindRequest
	}
	return kind
}
