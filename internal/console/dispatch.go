package console

import "github.com/couchcryptid/flood-alert-dashboard/internal/domain"

// DispatchState tracks the alert action of one console.
type DispatchState string

const (
	StateIdle      DispatchState = "idle"
	StateSending   DispatchState = "sending"
	StateSucceeded DispatchState = "succeeded"
	StateFailed    DispatchState = "failed"
)

// NoticeKind distinguishes success from failure notices.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the message shown to the operator once a dispatch resolves.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Detail  string     `json:"detail,omitempty"`
}

// Outcome is delivered once per dispatch on the channel returned by Dispatch.
type Outcome struct {
	State  DispatchState
	Notice Notice
	Err    error

	// Abandoned is set when the console closed before the response arrived.
	// The console state was not touched.
	Abandoned bool
}

const (
	successMessage = "Users alerted"
	failurePrefix  = "Error while alerting users"
)

func outcomeFor(err error) Outcome {
	if err == nil {
		return Outcome{
			State:  StateSucceeded,
			Notice: Notice{Kind: NoticeSuccess, Message: successMessage},
		}
	}
	detail := domain.FailureDetail(err)
	return Outcome{
		State: StateFailed,
		Notice: Notice{
			Kind:    NoticeError,
			Message: failurePrefix + ": " + detail,
			Detail:  detail,
		},
		Err: err,
	}
}

func (o Outcome) label() string {
	switch {
	case o.Abandoned:
		return "abandoned"
	case o.State == StateSucceeded:
		return "succeeded"
	default:
		return "failed"
	}
}
