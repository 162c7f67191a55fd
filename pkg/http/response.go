package http

import (
	"encoding/json"
	"net/http"
)

// MessageResponse is the body of operations that only report an outcome
type MessageResponse struct {
	Message string `json:"message"`
	Note    string `json:"note,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes a MessageResponse
func WriteMessage(w http.ResponseWriter, statusCode int, message, note string) {
	WriteJSON(w, statusCode, MessageResponse{Message: message, Note: note})
}
