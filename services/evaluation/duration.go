package evaluation

import (
	"fmt"
	"time"

	"github.com/upb/classroom-reservation-agent/internal/regulations"
)

// DefaultMaxDuration is the longest reservation that can be approved.
const DefaultMaxDuration = 2 * time.Hour

// DurationPolicy checks the length of a reservation against a limit. The
// limit itself is compliant.
type DurationPolicy struct {
	Limit time.Duration
}

// EvaluateDuration applies the default two-hour limit.
func EvaluateDuration(start, end *time.Time) Finding {
	return DurationPolicy{Limit: DefaultMaxDuration}.Evaluate(start, end)
}

// Evaluate classifies the span between start and end. Missing or inverted
// times are ambiguous, never a violation.
func (p DurationPolicy) Evaluate(start, end *time.Time) Finding {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultMaxDuration
	}
	limitText := regulations.FormatLimit(limit)

	switch {
	case start == nil && end == nil:
		return Finding{
			Kind:      FindingAmbiguous,
			Rationale: "The start and end times could not be identified, so the reservation duration cannot be checked.",
		}
	case start == nil:
		return Finding{
			Kind:      FindingAmbiguous,
			Rationale: "The start time could not be identified, so the reservation duration cannot be checked.",
		}
	case end == nil:
		return Finding{
			Kind:      FindingAmbiguous,
			Rationale: "The end time could not be identified, so the reservation duration cannot be checked.",
		}
	}

	elapsed := end.Sub(*start)
	if elapsed <= 0 {
		return Finding{
			Kind: FindingAmbiguous,
			Rationale: fmt.Sprintf("The end time (%s) is not after the start time (%s), so the reservation duration is invalid.",
				end.Format(time.RFC3339), start.Format(time.RFC3339)),
		}
	}

	if elapsed > limit {
		return Finding{
			Kind: FindingDurationViolation,
			Rationale: fmt.Sprintf("The reservation duration of %s exceeds the %s limit.",
				FormatDuration(elapsed), limitText),
		}
	}

	return Finding{
		Kind: FindingCompliant,
		Rationale: fmt.Sprintf("The reservation duration of %s is within the %s limit.",
			FormatDuration(elapsed), limitText),
	}
}

// FormatDuration renders a span as hours and minutes, e.g. "1h30m", adding
// seconds only when present so that a span just over a limit never prints as
// the limit itself.
func FormatDuration(d time.Duration) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	rem := d % time.Minute

	switch {
	case rem == 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case rem%time.Second == 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, rem/time.Second)
	default:
		return fmt.Sprintf("%dh%02dm%gs", h, m, rem.Seconds())
	}
}
