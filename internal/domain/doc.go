// Package domain models the flood-alert dashboard: subscriber identities,
// flood risk points and the alert requests sent to the dispatch service.
//
// # Risk Points
//
// A risk point is one geolocated flood-risk observation produced by the
// prediction services:
//
//	{"latitude": 43.6, "longitude": 1.44, "severity": 0.9, "observedDate": "2026-01-12"}
//
// Severity is a score in [0, 1] and is the only input to classification.
// Observed dates are calendar days in ISO 8601 form (YYYY-MM-DD).
//
// Risk classification:
//
//	severity >  0.8  high   (hazard, red)
//	severity <= 0.8  medium (caution, orange)
//
// The threshold is strict: a severity of exactly 0.8 is medium. Map markers
// and side-panel entries both classify through [Classify].
//
// # Identity Records
//
// The Subscription Service answers a subscribe call with {"data": {...}}.
// The object under "data" is the identity record. It always carries name,
// mail and ip; any other fields are kept verbatim in [Identity.Extra] and
// written back out unchanged. A record without a mail is a protocol error.
//
// # Alert Requests
//
// An alert request asks the Alert Dispatch Service to notify subscribers:
//
//	{"id": 0, "segmentId": 0, "severity": 1, "probability": 1,
//	 "startDate": "2026-01-12T08:00:00Z", "endDate": "2026-01-13T08:00:00Z"}
//
// Segment targeting comes from configuration ([AlertTarget]); segment 0 is the
// service's "all segments" sentinel.
package domain
