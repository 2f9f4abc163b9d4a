package evaluation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/upb/classroom-reservation-agent/internal/prompt"
	"github.com/upb/classroom-reservation-agent/internal/regulations"
	"github.com/upb/classroom-reservation-agent/services"
)

const (
	evaluatorDuration   = "duration"
	evaluatorCompliance = "compliance"
)

// stopWords never count towards the detail of a purpose.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "for": {}, "of": {}, "to": {},
	"in": {}, "on": {}, "at": {}, "by": {}, "with": {}, "from": {}, "about": {},
	"i": {}, "we": {}, "us": {}, "our": {}, "my": {}, "me": {}, "is": {}, "are": {},
	"be": {}, "will": {}, "this": {}, "that": {}, "some": {}, "do": {}, "have": {},
}

// citationPattern finds regulation ids such as "R11" in a substrate reason.
var citationPattern = regexp.MustCompile(`\b[A-Za-z]{1,4}\d{1,3}\b`)

// ComplianceInput is the material the compliance check works from.
type ComplianceInput struct {
	EvaluationID string
	Purpose      *string

	// Reservation is the redacted request forwarded to the substrate.
	Reservation string

	// Texts are all string values of the request, screened for attempts to
	// steer the substrate.
	Texts []string
}

// ComplianceEvaluator judges a reservation purpose against the regulation
// catalog. Plain violations, steering attempts and vague purposes are
// decided locally; only a detailed, clean purpose reaches the judge.
// Purposes that merely mention a regulated topic are never rejected
// locally: the judge sees them with the topics flagged, and without a judge
// they are compliant.
type ComplianceEvaluator struct {
	catalog  *regulations.Catalog
	judge    Judge
	recorder Recorder
	logger   *zap.Logger
}

// NewComplianceEvaluator creates an evaluator. judge may be nil, in which
// case a purpose that passes the local checks is compliant.
func NewComplianceEvaluator(catalog *regulations.Catalog, judge Judge, recorder Recorder, logger *zap.Logger) *ComplianceEvaluator {
	if catalog == nil {
		catalog = regulations.MustDefault()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplianceEvaluator{catalog: catalog, judge: judge, recorder: recorder, logger: logger}
}

// EvaluateCompliance judges a purpose against the built-in catalog without
// a substrate.
func EvaluateCompliance(purpose *string) Finding {
	f, _ := NewComplianceEvaluator(nil, nil, nil, nil).Evaluate(context.Background(), ComplianceInput{Purpose: purpose})
	return f
}

// Evaluate returns the compliance finding. An error is returned only when
// the judge fails.
func (c *ComplianceEvaluator) Evaluate(ctx context.Context, in ComplianceInput) (Finding, error) {
	if in.Purpose == nil || strings.TrimSpace(*in.Purpose) == "" {
		return Finding{
			Kind:      FindingAmbiguous,
			Rationale: "No purpose was stated, so the reservation cannot be checked against the classroom usage regulations.",
		}, nil
	}
	purpose := strings.TrimSpace(*in.Purpose)

	if matches := c.catalog.Screen(purpose); len(matches) > 0 {
		return violationFinding(matches), nil
	}

	for _, text := range append([]string{purpose}, in.Texts...) {
		if d, found := prompt.StrongestInjection(text); found {
			c.logger.Warn("steering attempt in reservation text",
				zap.String("evaluation_id", in.EvaluationID),
				zap.String("injection_type", string(d.Type)),
			)
			return Finding{
				Kind:      FindingAmbiguous,
				Rationale: fmt.Sprintf("The request contains text that tries to direct the review (%s), so a person must review it.", d.Type),
			}, nil
		}
	}

	if !c.detailed(purpose) {
		return Finding{
			Kind: FindingAmbiguous,
			Rationale: fmt.Sprintf("The stated purpose %q is too vague; more detail about the planned activity (such as the course, assignment or topic) is needed.",
				purpose),
		}, nil
	}

	var flagged []string
	for _, m := range c.catalog.Flag(purpose) {
		flagged = append(flagged, m.Regulation.ID)
	}
	if len(flagged) > 0 {
		c.logger.Debug("purpose mentions regulated topics",
			zap.String("evaluation_id", in.EvaluationID),
			zap.Strings("regulations", flagged),
			zap.Bool("judge_configured", c.judge != nil),
		)
	}

	if c.judge == nil {
		return Finding{
			Kind:      FindingCompliant,
			Rationale: "The stated purpose is specific and does not conflict with the classroom usage regulations.",
		}, nil
	}

	return c.askJudge(ctx, in, purpose, flagged)
}

func (c *ComplianceEvaluator) askJudge(ctx context.Context, in ComplianceInput, purpose string, flagged []string) (Finding, error) {
	start := time.Now()
	verdict, err := c.judge.Judge(ctx, JudgeRequest{
		EvaluationID: in.EvaluationID,
		Purpose:      purpose,
		Reservation:  in.Reservation,
		Flagged:      flagged,
	})
	latency := time.Since(start)

	if err != nil {
		outcome := "error"
		if services.IsSubstrateContractViolation(err) {
			outcome = "contract_violation"
		}
		c.recorder.RecordSubstrateCall(outcome, latency)
		return Finding{}, err
	}
	c.recorder.RecordSubstrateCall(string(verdict.Decision), latency)

	switch verdict.Decision {
	case DecisionApproved:
		return Finding{Kind: FindingCompliant, Rationale: verdict.Reason}, nil
	case DecisionRejected:
		return Finding{
			Kind:        FindingContentViolation,
			Rationale:   verdict.Reason,
			Regulations: c.cited(verdict.Reason),
		}, nil
	case DecisionManualReview:
		return Finding{Kind: FindingAmbiguous, Rationale: verdict.Reason}, nil
	default:
		// ParseVerdict already rejects anything else
		return Finding{}, services.NewContractViolationError(services.ErrSubstrateContractViolation.Message, nil).
			WithDetail("decision", string(verdict.Decision))
	}
}

// cited returns the catalog regulations a substrate reason names, in order
// of first mention. Tokens that are not catalog ids, such as course codes,
// are ignored.
func (c *ComplianceEvaluator) cited(reason string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, token := range citationPattern.FindAllString(reason, -1) {
		r, ok := c.catalog.Lookup(strings.ToUpper(token))
		if !ok {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		ids = append(ids, r.ID)
	}
	return ids
}

// detailed reports whether the purpose says enough to be judged: enough
// meaningful words, at least one of them specific.
func (c *ComplianceEvaluator) detailed(purpose string) bool {
	meaningful, specific := 0, 0
	for _, w := range purposeWords(purpose) {
		meaningful++
		if !c.catalog.IsVagueTerm(w) {
			specific++
		}
	}
	return meaningful >= c.catalog.MinPurposeWords && specific > 0
}

// purposeWords splits a purpose into words, dropping stop words and bare
// numbers such as the parts of "9:00-10:30".
func purposeWords(purpose string) []string {
	fields := strings.FieldsFunc(regulations.Normalize(purpose), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	words := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; stop || isDigits(f) {
			continue
		}
		words = append(words, f)
	}
	return words
}

func violationFinding(matches []regulations.Match) Finding {
	parts := make([]string, 0, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("%s (%s; mentions %q)", m.Regulation.ID, m.Regulation.Title, m.Phrase))
		ids = append(ids, m.Regulation.ID)
	}

	noun := "regulation"
	if len(matches) > 1 {
		noun = "regulations"
	}
	return Finding{
		Kind:        FindingContentViolation,
		Rationale:   fmt.Sprintf("The stated purpose violates %s %s.", noun, strings.Join(parts, " and ")),
		Regulations: ids,
	}
}
