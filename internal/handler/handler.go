package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"ecoshopy/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// domainStatus maps domain error codes to HTTP status codes.
var domainStatus = map[string]int{
	model.ErrCodeProductNotFound:     http.StatusNotFound,
	model.ErrCodeVariantNotFound:     http.StatusNotFound,
	model.ErrCodeItemNotInCart:       http.StatusNotFound,
	model.ErrCodeOrderNotFound:       http.StatusNotFound,
	model.ErrCodeInvalidQuantity:     http.StatusBadRequest,
	model.ErrCodeEmptyCart:           http.StatusBadRequest,
	model.ErrCodeInvalidCartID:       http.StatusBadRequest,
	model.ErrCodeInvalidDiscount:     http.StatusBadRequest,
	model.ErrCodeInvalidMRP:          http.StatusBadRequest,
	model.ErrCodeInvalidSignature:    http.StatusBadRequest,
	model.ErrCodePaymentMismatch:     http.StatusBadRequest,
	model.ErrCodeAdminReasonRequired: http.StatusBadRequest,
	model.ErrCodeAdminIDRequired:     http.StatusBadRequest,
	model.ErrCodeInsufficientStock:   http.StatusConflict,
	model.ErrCodeInvalidTransition:   http.StatusConflict,
	model.ErrCodeConcurrentUpdate:    http.StatusConflict,
	model.ErrCodePaymentUnavailable:  http.StatusBadGateway,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError translates a service error into a response. Domain and
// validation errors carry their own code; anything else is a 500 with
// fallback as the message.
func writeServiceError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		logger.Debug().Str("field", verr.Field).Str("error", verr.Message).Msg("validation failed")
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: verr.Message,
			Field:   verr.Field,
		})
		return
	}

	var derr *model.DomainError
	if errors.As(err, &derr) {
		status, ok := domainStatus[derr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		logger.Info().Str("code", derr.Code).Int("status", status).Msg("request rejected")
		writeJSON(w, status, model.ErrorResponse{Error: derr.Code, Message: derr.Message})
		return
	}

	logger.Error().Err(err).Msg(fallback)
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: fallback,
	})
}

// decodeJSON reads a JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// orderIDParam parses the {id} path value as an order id, writing a 400 on
// failure.
func orderIDParam(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "order ID is required", logger)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid order ID format", logger)
		return uuid.Nil, false
	}
	return id, true
}
