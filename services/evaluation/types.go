// Package evaluation decides whether a classroom reservation request is
// approved, rejected or sent to manual review.
//
// A request is free-form JSON. The engine extracts the start, end and
// purpose, checks the duration deterministically, checks the purpose against
// the classroom regulations (optionally with a reasoning substrate), and
// composes both findings into one Decision.
package evaluation

import (
	"time"
)

// DecisionValue is the outcome of an evaluation.
type DecisionValue string

const (
	DecisionApproved     DecisionValue = "APPROVED"
	DecisionRejected     DecisionValue = "REJECTED"
	DecisionManualReview DecisionValue = "MANUAL_REVIEW"

	// DecisionPending is a client-side display state. The engine never
	// emits it and never accepts it from a substrate.
	DecisionPending DecisionValue = "PENDING"
)

// Decision is the final verdict returned to callers.
type Decision struct {
	Decision DecisionValue `json:"decision" validate:"required,oneof=APPROVED REJECTED MANUAL_REVIEW"`
	Reason   string        `json:"reason" validate:"required"`
}

// FindingKind classifies the outcome of a single evaluator.
type FindingKind string

const (
	FindingCompliant         FindingKind = "COMPLIANT"
	FindingDurationViolation FindingKind = "DURATION_VIOLATION"
	FindingContentViolation  FindingKind = "CONTENT_VIOLATION"
	FindingAmbiguous         FindingKind = "AMBIGUOUS"
)

// Finding is what one evaluator concluded, with a human-readable rationale.
type Finding struct {
	Kind      FindingKind
	Rationale string

	// Regulations lists the ids of the regulations a content violation cites.
	Regulations []string
}

// IsViolation reports whether the finding forces a rejection.
func (f Finding) IsViolation() bool {
	return f.Kind == FindingDurationViolation || f.Kind == FindingContentViolation
}

// ExtractedFields is what the extractor recovered from a request. Nil means
// the field could not be identified.
type ExtractedFields struct {
	Start   *time.Time
	End     *time.Time
	Purpose *string

	// Source paths of the chosen values, e.g. "booking.timeslot.start".
	StartPath   string
	EndPath     string
	PurposePath string
}

// Recorder receives evaluation telemetry.
type Recorder interface {
	RecordDecision(decision string, latency time.Duration)
	RecordFinding(evaluator, kind string)
	RecordSubstrateCall(outcome string, latency time.Duration)
	RecordFailure(errorType string)
}

type nopRecorder struct{}

func (nopRecorder) RecordDecision(string, time.Duration)      {}
func (nopRecorder) RecordFinding(string, string)              {}
func (nopRecorder) RecordSubstrateCall(string, time.Duration) {}
func (nopRecorder) RecordFailure(string)                      {}
