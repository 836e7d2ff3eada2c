package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Headers of the store API shared by the server and the client adapter.
const (
	// PeerIDHeader identifies the writing peer when the server runs without
	// token authentication.
	PeerIDHeader = "X-Peer-ID"
	// TraceIDHeader correlates a request with the server's log lines.
	TraceIDHeader = "X-Trace-ID"
)

// ErrorBody is the JSON body of every non-2xx response of the store API.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON serializes data to JSON and writes it with statusCode.
//
// If marshaling fails, it responds with 500 Internal Server Error
// and returns a wrapped error.
//
// Example usage:
//
//	WriteJSON(w, docs, http.StatusOK)
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "error writing data to JSON", http.StatusInternalServerError)
		return 0, fmt.Errorf("error writing data to JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return w.Write(jsonData)
}

// WriteError writes message as an [ErrorBody] with statusCode.
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	_, _ = WriteJSON(w, ErrorBody{Error: message}, statusCode)
}
