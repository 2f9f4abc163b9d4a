package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/upb/classroom-reservation-agent/services"
	"github.com/upb/classroom-reservation-agent/services/providers"
)

// Judge is a reasoning substrate that rules on a reservation purpose.
// Implementations make at most one outbound call and never retry.
type Judge interface {
	Judge(ctx context.Context, req JudgeRequest) (Decision, error)
}

// JudgeRequest is what the substrate sees for one evaluation.
type JudgeRequest struct {
	EvaluationID string

	// Purpose is the extracted purpose text.
	Purpose string

	// Reservation is the serialized request with personal data redacted.
	Reservation string

	// Flagged lists regulations whose topic the purpose mentions without
	// plainly breaking them.
	Flagged []string
}

// SubstrateConfig configures a SubstrateJudge.
type SubstrateConfig struct {
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	Instructions string
}

// SubstrateJudge asks an LLM provider for a structured verdict.
type SubstrateJudge struct {
	provider providers.Provider
	config   SubstrateConfig
	logger   *zap.Logger
}

// NewSubstrateJudge creates a judge backed by provider. The model must be
// one the provider supports.
func NewSubstrateJudge(provider providers.Provider, cfg SubstrateConfig, logger *zap.Logger) (*SubstrateJudge, error) {
	if provider == nil {
		return nil, services.NewSubstrateError(services.ErrSubstrateNotConfigured.Message, nil)
	}
	if err := provider.ValidateModel(cfg.Model); err != nil {
		return nil, services.NewSubstrateError("reasoning substrate model is not supported", err)
	}
	if strings.TrimSpace(cfg.Instructions) == "" {
		return nil, services.NewSubstrateError("reasoning substrate instructions are empty", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SubstrateJudge{provider: provider, config: cfg, logger: logger}, nil
}

// Judge sends the reservation to the provider once and validates the reply.
func (j *SubstrateJudge) Judge(ctx context.Context, req JudgeRequest) (Decision, error) {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	chatReq := &providers.ChatRequest{
		Model: j.config.Model,
		Messages: []providers.Message{
			{Role: "system", Content: j.config.Instructions},
			{Role: "user", Content: userMessage(req)},
		},
		MaxTokens:   j.config.MaxTokens,
		Temperature: j.config.Temperature,
		ResponseFormat: &providers.ResponseFormat{
			Name:   "reservation_verdict",
			Schema: VerdictSchema(),
			Strict: true,
		},
		Metadata: map[string]string{"evaluation_id": req.EvaluationID},
	}

	resp, err := j.provider.ChatCompletion(ctx, chatReq)
	if err != nil {
		// never retried here; the flag tells operators whether a later
		// request is likely to succeed
		j.logger.Warn("substrate call failed",
			zap.String("evaluation_id", req.EvaluationID),
			zap.Bool("retryable", providers.IsRetryable(err)),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return Decision{}, services.NewSubstrateError("reasoning substrate timed out", err)
		}
		return Decision{}, services.NewSubstrateError(services.ErrSubstrate.Message, err)
	}

	j.logger.Debug("substrate replied",
		zap.String("evaluation_id", req.EvaluationID),
		zap.String("provider", resp.Provider),
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", resp.Latency),
	)

	return ParseVerdict(resp.Content())
}

// Available reports whether the provider answers health probes.
func (j *SubstrateJudge) Available(ctx context.Context) bool {
	return j.provider.IsAvailable(ctx)
}

// Model returns the configured model name.
func (j *SubstrateJudge) Model() string {
	return j.config.Model
}

func userMessage(req JudgeRequest) string {
	var b strings.Builder
	b.WriteString("Review this classroom reservation request.\n")
	if req.Purpose != "" {
		fmt.Fprintf(&b, "Stated purpose: %q\n", req.Purpose)
	}
	if len(req.Flagged) > 0 {
		fmt.Fprintf(&b, "The purpose mentions topics covered by %s; decide whether the planned activity actually conflicts with them.\n",
			strings.Join(req.Flagged, ", "))
	}
	b.WriteString("Request JSON:\n")
	b.WriteString(req.Reservation)
	return b.String()
}

// ParseVerdict decodes a substrate reply. The reply must be a JSON object
// with exactly "decision" and "reason"; anything else is a contract
// violation.
func ParseVerdict(content string) (Decision, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Decision{}, services.NewContractViolationError("reasoning substrate returned an empty reply", nil)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.DisallowUnknownFields()

	var v Decision
	if err := dec.Decode(&v); err != nil {
		return Decision{}, services.NewContractViolationError("reasoning substrate reply is not a verdict object", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Decision{}, services.NewContractViolationError("reasoning substrate reply has trailing data", err)
	}

	if err := ValidateVerdict(v); err != nil {
		return Decision{}, err
	}
	v.Reason = strings.TrimSpace(v.Reason)
	return v, nil
}

// VerdictSchema is the JSON schema the substrate reply must follow.
func VerdictSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"decision": map[string]interface{}{
				"type":        "string",
				"enum":        []string{string(DecisionApproved), string(DecisionRejected), string(DecisionManualReview)},
				"description": "The final decision for the request.",
			},
			"reason": map[string]interface{}{
				"type":        "string",
				"description": "A clear explanation of the decision that references the regulations applied.",
			},
		},
		"required":             []string{"decision", "reason"},
		"additionalProperties": false,
	}
}
