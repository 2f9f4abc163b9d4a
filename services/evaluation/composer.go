package evaluation

import (
	"strings"
)

// Compose merges the duration and compliance findings into one decision.
// Any violation rejects, citing every violation found. Otherwise any
// ambiguity sends the request to manual review. Only two compliant findings
// approve.
func Compose(duration, compliance Finding) Decision {
	findings := []Finding{duration, compliance}

	var violations, ambiguities, passes []string
	for _, f := range findings {
		switch {
		case f.IsViolation():
			violations = append(violations, rationaleOf(f))
		case f.Kind == FindingAmbiguous:
			ambiguities = append(ambiguities, rationaleOf(f))
		default:
			passes = append(passes, rationaleOf(f))
		}
	}

	switch {
	case len(violations) > 0:
		return Decision{
			Decision: DecisionRejected,
			Reason:   "Rejected. " + strings.Join(violations, " "),
		}
	case len(ambiguities) > 0:
		return Decision{
			Decision: DecisionManualReview,
			Reason:   "Manual review required. " + strings.Join(ambiguities, " "),
		}
	default:
		return Decision{
			Decision: DecisionApproved,
			Reason:   "Approved. " + strings.Join(passes, " "),
		}
	}
}

// rationaleOf returns the finding rationale as a sentence, falling back to a
// generic one so that a decision reason is never empty.
func rationaleOf(f Finding) string {
	r := strings.TrimSpace(f.Rationale)
	if r == "" {
		switch f.Kind {
		case FindingDurationViolation:
			return "The reservation duration exceeds the limit."
		case FindingContentViolation:
			return "The stated purpose violates the classroom usage regulations."
		case FindingAmbiguous:
			return "The request lacks information needed to decide."
		default:
			return "The check passed."
		}
	}
	if !strings.HasSuffix(r, ".") && !strings.HasSuffix(r, "!") && !strings.HasSuffix(r, "?") {
		r += "."
	}
	return r
}
