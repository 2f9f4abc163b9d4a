package evaluation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/classroom-reservation-agent/internal/prompt"
	"github.com/upb/classroom-reservation-agent/internal/regulations"
	"github.com/upb/classroom-reservation-agent/services"
)

// Evaluator is the operation the transport layer depends on.
type Evaluator interface {
	Evaluate(ctx context.Context, payload string) (*Decision, error)
}

// Options configures an Engine.
type Options struct {
	// MaxDuration is the longest approvable reservation. Zero means two hours.
	MaxDuration time.Duration

	// Catalog defaults to the built-in regulations.
	Catalog *regulations.Catalog

	// Judge is the optional reasoning substrate.
	Judge Judge

	Recorder Recorder
	Logger   *zap.Logger
}

// Engine evaluates reservation requests. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	duration   DurationPolicy
	compliance *ComplianceEvaluator
	judge      Judge
	recorder   Recorder
	logger     *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Engine{
		duration:   DurationPolicy{Limit: opts.MaxDuration},
		compliance: NewComplianceEvaluator(opts.Catalog, opts.Judge, opts.Recorder, opts.Logger),
		judge:      opts.Judge,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
	}
}

// Evaluate decides one reservation request given as a JSON string.
//
// Errors are *services.DomainError: bad_request for an empty payload,
// invalid_json when it does not parse, substrate_error when the substrate
// call fails, and substrate_contract_violation when its reply, or the final
// decision, breaks the output contract.
func (e *Engine) Evaluate(ctx context.Context, payload string) (*Decision, error) {
	start := time.Now()
	evaluationID := uuid.NewString()
	logger := e.logger.With(zap.String("evaluation_id", evaluationID))

	decision, err := e.evaluate(ctx, evaluationID, payload, logger)
	if err != nil {
		errType := string(services.GetErrorType(err))
		if errType == "" {
			errType = string(services.ErrorTypeInternal)
		}
		e.recorder.RecordFailure(errType)
		logger.Warn("evaluation failed", zap.String("error_type", errType), zap.Error(err))
		return nil, err
	}

	latency := time.Since(start)
	e.recorder.RecordDecision(string(decision.Decision), latency)
	logger.Info("reservation evaluated",
		zap.String("decision", string(decision.Decision)),
		zap.Duration("latency", latency),
	)
	return decision, nil
}

func (e *Engine) evaluate(ctx context.Context, evaluationID, payload string, logger *zap.Logger) (*Decision, error) {
	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}

	doc, err := parseDocument([]byte(payload))
	if err != nil {
		return nil, services.NewInvalidJSONError(err)
	}

	fields := extractFields(doc)
	logger.Debug("fields extracted",
		zap.Bool("start_found", fields.Start != nil),
		zap.Bool("end_found", fields.End != nil),
		zap.Bool("purpose_found", fields.Purpose != nil),
		zap.String("start_path", fields.StartPath),
		zap.String("end_path", fields.EndPath),
		zap.String("purpose_path", fields.PurposePath),
	)

	durationFinding := e.duration.Evaluate(fields.Start, fields.End)
	e.recorder.RecordFinding(evaluatorDuration, string(durationFinding.Kind))

	in := ComplianceInput{EvaluationID: evaluationID, Purpose: fields.Purpose}
	doc.eachString(func(_, value string) {
		in.Texts = append(in.Texts, value)
	})
	if e.judge != nil {
		in.Reservation = string(doc.marshal(redactValue))
	}

	complianceFinding, err := e.compliance.Evaluate(ctx, in)
	if err != nil {
		return nil, err
	}
	e.recorder.RecordFinding(evaluatorCompliance, string(complianceFinding.Kind))

	decision := Compose(durationFinding, complianceFinding)
	if err := ValidateDecision(decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

// redactValue strips personal data from a request before it leaves the
// process.
func redactValue(key, value string) string {
	if prompt.IsSensitiveKey(key) {
		return prompt.RedactedValue
	}
	return prompt.RedactPII(value)
}

// MaxDuration returns the configured duration limit.
func (e *Engine) MaxDuration() time.Duration {
	return e.duration.Limit
}

// SubstrateEnabled reports whether purposes are forwarded to a judge.
func (e *Engine) SubstrateEnabled() bool {
	return e.judge != nil
}

type availability interface {
	Available(ctx context.Context) bool
}

// Ready reports whether the engine can serve evaluations. Without a judge,
// or with a judge that cannot be probed, it is always ready.
func (e *Engine) Ready(ctx context.Context) bool {
	if a, ok := e.judge.(availability); ok {
		return a.Available(ctx)
	}
	return true
}
