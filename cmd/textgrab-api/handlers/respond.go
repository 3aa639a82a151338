// Package handlers provides HTTP handlers for the textgrab API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/input"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, input.ErrIgnored):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, input.ErrTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case domain.IsType(err, domain.ErrorTypeValidation):
		return http.StatusBadRequest
	case domain.IsType(err, domain.ErrorTypeConversion):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err.Error())
}
