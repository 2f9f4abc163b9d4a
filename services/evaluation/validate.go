package evaluation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/upb/classroom-reservation-agent/services"
)

var validate = validator.New()

// ValidatePayload rejects a missing or blank reservation payload before any
// evaluation work is done.
func ValidatePayload(payload string) error {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" || trimmed == "null" {
		return services.NewBadRequestError(services.ErrEmptyPayload.Message)
	}
	return nil
}

// ValidateDecision confirms a decision is one of the three outcomes and
// carries a reason. PENDING is never valid here.
func ValidateDecision(d Decision) error {
	if err := checkDecision(d); err != nil {
		return services.NewContractViolationError(services.ErrInvalidDecision.Message, err).
			WithDetail("decision", string(d.Decision))
	}
	return nil
}

// ValidateVerdict applies the decision contract to a reasoning substrate
// reply.
func ValidateVerdict(v Decision) error {
	if err := checkDecision(v); err != nil {
		return services.NewContractViolationError(services.ErrSubstrateContractViolation.Message, err).
			WithDetail("decision", string(v.Decision))
	}
	return nil
}

func checkDecision(d Decision) error {
	if err := validate.Struct(d); err != nil {
		return err
	}
	if strings.TrimSpace(d.Reason) == "" {
		return errBlankReason
	}
	return nil
}

var errBlankReason = errors.New("reason is blank")
