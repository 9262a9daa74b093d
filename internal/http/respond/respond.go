// Package respond writes JSON bodies and maps domain errors to HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/auth"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

type errorResponse struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes err with the status it maps to. Messages of unexpected errors are not exposed.
func Error(w http.ResponseWriter, err error) {
	status := Status(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "internal error"
	}

	JSON(w, status, errorResponse{Error: msg})
}

func Status(err error) int {
	var (
		txValidation   *transaction.ValidationError
		authValidation *auth.ValidationError
	)

	switch {
	case errors.As(err, &txValidation), errors.As(err, &authValidation):
		return http.StatusBadRequest
	case errors.Is(err, transaction.ErrUnauthenticated),
		errors.Is(err, auth.ErrNotSignedIn),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, transaction.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, transaction.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
