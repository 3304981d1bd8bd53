package domain

import (
	"time"

	"github.com/google/uuid"
)

// AlertRequest is the body of a dispatch call to the Alert Dispatch Service.
type AlertRequest struct {
	ID          int       `json:"id"`
	SegmentID   int       `json:"segmentId"`
	Severity    int       `json:"severity"`
	Probability float64   `json:"probability"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

// AlertTarget holds the configured values an alert request is built from.
type AlertTarget struct {
	ID          int
	SegmentID   int
	Severity    int
	Probability float64
	Window      time.Duration // EndDate - StartDate
}

// NewAlertRequest builds a fresh request starting at now.
func NewAlertRequest(target AlertTarget, now time.Time) AlertRequest {
	start := now.UTC().Truncate(time.Second)
	return AlertRequest{
		ID:          target.ID,
		SegmentID:   target.SegmentID,
		Severity:    target.Severity,
		Probability: target.Probability,
		StartDate:   start,
		EndDate:     start.Add(target.Window),
	}
}

// DispatchRecord is the audit entry written for every completed dispatch.
type DispatchRecord struct {
	DispatchID   uuid.UUID    `json:"dispatch_id"`
	Operator     string       `json:"operator"`
	Request      AlertRequest `json:"request"`
	Outcome      string       `json:"outcome"` // "succeeded", "failed", "abandoned"
	Detail       string       `json:"detail,omitempty"`
	DurationMS   int64        `json:"duration_ms"`
	DispatchedAt time.Time    `json:"dispatched_at"`
}
