package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"expensetracker/apperrors"
)

// ApiResponse is the envelope of every JSON response.
type ApiResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Code    apperrors.Kind `json:"code,omitempty"`
	Data    interface{}    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeError translates a domain error into its HTTP status. Store
// failures are logged with their cause and reported without it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, ApiResponse{
		Success: false,
		Message: apperrors.MessageOf(err),
		Code:    kind,
	})
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation, apperrors.KindInvalidCredential:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.KindValidation, "request body is required")
		}
		return apperrors.Wrap(apperrors.KindValidation, "invalid request payload", err)
	}
	return nil
}
