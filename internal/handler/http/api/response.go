// Package api carries the response envelope shared by all HTTP handlers.
// Errors map to stable machine-readable codes so clients branch on code,
// never on message text.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"bank/internal/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

func WriteData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func WriteError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	message := "internal server error"
	var de *domain.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	writeJSON(w, statusFor(code), envelope{Success: false, Error: &errorBody{Code: code, Message: message}})
}

func WriteErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Success: false, Error: &errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func statusFor(code string) int {
	switch code {
	case "VALIDATION_ERROR":
		return http.StatusUnprocessableEntity
	case "SENDER_NOT_FOUND", "RECIPIENT_NOT_FOUND", "ACCOUNT_NOT_FOUND", "TRANSACTION_NOT_FOUND":
		return http.StatusNotFound
	case "INSUFFICIENT_FUNDS", "ACCOUNT_EXISTS":
		return http.StatusConflict
	case "STORE_UNAVAILABLE":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
