package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codechat-ai/codebase-chat/internal/model"
)

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

// statusForCode maps the error taxonomy to HTTP status codes.
func statusForCode(code model.ErrorCode) int {
	switch code {
	case model.CodeInvalidInput, model.CodeNotADirectory:
		return http.StatusBadRequest
	case model.CodeNotFound:
		return http.StatusNotFound
	case model.CodePermissionDenied:
		return http.StatusForbidden
	case model.CodeConfiguration:
		return http.StatusInternalServerError
	case model.CodeAuthentication:
		return http.StatusBadGateway
	case model.CodeRateLimited:
		return http.StatusTooManyRequests
	case model.CodeTimeout:
		return http.StatusGatewayTimeout
	case model.CodeConnection, model.CodeUnknownProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeClassifiedError maps a classified error to its HTTP status; the
// user-facing message is sent, the underlying cause stays in the logs.
func writeClassifiedError(w http.ResponseWriter, err error) {
	var e *model.Error
	if errors.As(err, &e) {
		writeJSON(w, statusForCode(e.Code), map[string]string{
			"error": e.Message,
			"code":  string(e.Code),
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
