package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Remote call failures. Callers log the distinction; users see one notice.
var (
	// ErrTransport wraps connection, DNS and timeout failures.
	ErrTransport = errors.New("transport failure")
	// ErrProtocol wraps responses whose body does not have the expected shape.
	ErrProtocol = errors.New("protocol failure")
)

// StatusError is returned when a remote service answers with a non-2xx status.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.Code, e.Body)
}

// FailureKind names the failure class of err for logs and metrics.
func FailureKind(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}

// FailureDetail extracts the user-facing detail of a remote failure: the
// response body when the service sent one, otherwise a short description.
func FailureDetail(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if body := strings.TrimSpace(statusErr.Body); body != "" {
			return body
		}
		return fmt.Sprintf("status %d", statusErr.Code)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}
