package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"commutesurvey/internal/model"
)

// maxBodyBytes bounds request bodies; a full record is a few kilobytes
const maxBodyBytes = 1 << 20

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps a service error to its HTTP status
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrSessionNotFound), errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrRejected):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrNetwork):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] Internal error: %v", err)
	}
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
