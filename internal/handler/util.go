package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nextignition/network-api/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondError maps a domain error onto an HTTP status. Unknown errors
// become a generic 500 so internals never leak.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrForbidden), errors.Is(err, model.ErrNotMember):
		writeError(w, http.StatusForbidden, "not allowed")
	case errors.Is(err, model.ErrPendingLimit):
		writeError(w, http.StatusForbidden, model.ErrPendingLimit.Error())
	case errors.Is(err, model.ErrSelfConnection):
		writeError(w, http.StatusBadRequest, model.ErrSelfConnection.Error())
	case errors.Is(err, model.ErrAlreadyConnected):
		writeError(w, http.StatusConflict, model.ErrAlreadyConnected.Error())
	case errors.Is(err, model.ErrNotPending):
		writeError(w, http.StatusConflict, model.ErrNotPending.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeAndValidate decodes the JSON body into v and runs struct
// validation. Writes the error response itself and reports success.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return false
	}
	return true
}
