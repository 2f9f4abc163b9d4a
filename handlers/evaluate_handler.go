package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/classroom-reservation-agent/internal/observability"
	"github.com/upb/classroom-reservation-agent/services/evaluation"
	"github.com/upb/classroom-reservation-agent/utils"
)

// DefaultMaxBodyBytes caps an evaluation request body.
const DefaultMaxBodyBytes int64 = 1 << 20

// EvaluateRequest is the transport envelope. Request carries the reservation
// either as a JSON-encoded string or as an inline JSON object.
type EvaluateRequest struct {
	Request json.RawMessage `json:"request" validate:"required"`
}

// EvaluateHandler handles reservation evaluation requests
type EvaluateHandler struct {
	evaluator    evaluation.Evaluator
	logger       *zap.Logger
	maxBodyBytes int64
}

// NewEvaluateHandler creates a new EvaluateHandler
func NewEvaluateHandler(evaluator evaluation.Evaluator, logger *zap.Logger, maxBodyBytes int64) *EvaluateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &EvaluateHandler{
		evaluator:    evaluator,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// HandleEvaluate handles POST /api/evaluate
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.WithRequestContext(ctx, h.logger)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.Warn("request body too large", zap.Int64("limit", maxErr.Limit))
			_ = utils.WriteRequestTooLarge(w, "")
			return
		}
		logger.Warn("failed to parse request body", zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		logger.Warn("request validation failed", zap.Error(err))
		HandleValidationError(w, err, logger)
		return
	}

	payload, err := requestPayload(req.Request)
	if err != nil {
		logger.Warn("unsupported request field", zap.Error(err))
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	decision, err := h.evaluator.Evaluate(ctx, payload)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	if err := utils.WriteOK(w, decision); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

var errRequestShape = errors.New(`"request" must be a JSON string or object`)

// requestPayload turns the envelope's request field into the payload string
// the engine expects. null becomes the empty payload.
func requestPayload(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", errRequestShape
		}
		return s, nil
	case '{':
		return string(trimmed), nil
	case 'n':
		return "", nil
	default:
		return "", errRequestShape
	}
}
