package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pmcgroup/istock-backend/internal/documents"
	"github.com/pmcgroup/istock-backend/internal/logging"
)

// envelope is the uniform response body: {success, message, data}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respondJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{
		Success: status >= 200 && status < 300,
		Message: message,
		Data:    data,
	})
}

func respondOK(w http.ResponseWriter, message string, data any) {
	respondJSON(w, http.StatusOK, message, data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, message, nil)
}

// respondServiceError maps document-service errors onto HTTP statuses. Data
// may carry a partial batch report alongside the error.
func respondServiceError(w http.ResponseWriter, err error, data any) {
	switch {
	case errors.Is(err, documents.ErrValidation):
		respondJSON(w, http.StatusBadRequest, err.Error(), data)
	case errors.Is(err, documents.ErrNotFound):
		respondJSON(w, http.StatusNotFound, err.Error(), data)
	case errors.Is(err, documents.ErrDuplicate):
		respondJSON(w, http.StatusConflict, err.Error(), data)
	default:
		logging.LogError("handlers", "respondServiceError", "internal error", nil, err)
		respondJSON(w, http.StatusInternalServerError, "internal server error", data)
	}
}
