package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"hostel-backend/internal/apperr"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error answers {"error": message} with the status the error maps to.
// Internal and dependency failures do not expose the underlying cause.
func Error(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	var appErr *apperr.Error
	switch {
	case status == http.StatusInternalServerError:
		msg = "internal server error"
	case status == http.StatusServiceUnavailable && errors.As(err, &appErr):
		msg = appErr.Message
	}
	ErrorMessage(w, status, msg)
}

// ErrorMessage answers {"error": msg} with status.
func ErrorMessage(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}
