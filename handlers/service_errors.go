package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/classroom-reservation-agent/services"
	"github.com/upb/classroom-reservation-agent/utils"
)

// HandleServiceError maps domain errors to HTTP responses.
// Caller errors are 400; anything that went wrong on our side, the
// reasoning substrate included, is 500.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	switch {
	case services.IsBadRequestError(err):
		if err := utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse{
			Error:   string(services.ErrorTypeBadRequest),
			Message: services.UserMessage(err),
		}); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsInvalidJSONError(err):
		if err := utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse{
			Error:   string(services.ErrorTypeInvalidJSON),
			Message: services.UserMessage(err),
		}); err != nil {
			logger.Error("failed to write invalid json response", zap.Error(err))
		}

	case services.IsSubstrateError(err):
		logger.Error("reasoning substrate failed", zap.Error(err))
		if err := utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse{
			Error:   string(services.ErrorTypeSubstrate),
			Message: services.UserMessage(err),
		}); err != nil {
			logger.Error("failed to write substrate error response", zap.Error(err))
		}

	case services.IsSubstrateContractViolation(err):
		logger.Error("reasoning substrate broke the output contract",
			zap.Error(err),
			zap.Any("details", details))
		if err := utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse{
			Error:   string(services.ErrorTypeSubstrateContractViolation),
			Message: services.UserMessage(err),
			Details: details,
		}); err != nil {
			logger.Error("failed to write contract violation response", zap.Error(err))
		}

	case services.IsInternalError(err):
		// Log internal errors but return generic message
		logger.Error("internal server error", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An internal error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	// Generic validation error
	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
