package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the flat error envelope used for validation failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Response is the success/data envelope used by the member endpoints.
type Response struct {
	Success bool   `json:"success"`
	Code    int    `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeFailure(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, Response{Success: false, Code: code, Error: message})
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
