package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"nepkart/internal/model"

	"github.com/rs/zerolog"
)

// ownerHeader carries the authenticated shopper's numeric identity, set by
// the identity layer in front of this API.
const ownerHeader = "X-Owner-ID"

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
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps service-layer errors onto HTTP responses. Domain
// errors and validation errors become 4xx; anything else is a 500 with the
// fallback message.
func writeServiceError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:  model.ErrCodeInvalidShipping,
			Fields: verr.Fields,
		})
		return
	}

	var derr *model.DomainError
	if errors.As(err, &derr) {
		status := http.StatusBadRequest
		switch derr.Code {
		case model.ErrCodeOrderNotFound, model.ErrCodeProductNotFound:
			status = http.StatusNotFound
		case model.ErrCodeInsufficientStock:
			status = http.StatusConflict
		}
		writeError(w, status, derr.Code, derr.Message, logger)
		return
	}

	logger.Error().Err(err).Msg(fallback)
	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, fallback, logger)
}

// ownerID extracts the shopper identity from the request headers.
func ownerID(r *http.Request) (int64, bool) {
	raw := r.Header.Get(ownerHeader)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// clientIP is the remote address recorded on orders and reviews.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
