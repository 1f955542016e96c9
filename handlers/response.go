package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
)

const (
	requestTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(envelope{Success: code < http.StatusBadRequest, Data: payload})
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithMessage(w http.ResponseWriter, code int, message string) {
	response, _ := json.Marshal(envelope{Success: code < http.StatusBadRequest, Message: message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithMessage(w, code, message)
}

// respondWithServiceError maps domain errors to status codes. Unknown errors are reported as 500.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		respondWithError(w, http.StatusBadRequest, apperror.Message(err))
	case errors.Is(err, apperror.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, apperror.ErrNotFound):
		respondWithError(w, http.StatusNotFound, apperror.Message(err))
	case errors.Is(err, apperror.ErrConflict):
		respondWithError(w, http.StatusConflict, apperror.Message(err))
	default:
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %v", err))
	}
}

// decodeJSON rejects unknown fields so only allow-listed fields reach the services.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("Request body is required")
		}
		return apperror.Validation("Invalid request body: %v", err)
	}
	if dec.More() {
		return apperror.Validation("Request body must contain a single JSON object")
	}
	return nil
}
