package api

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope the server sends back to the client. Status
// carries both the code and the status text, mirroring what TradingView
// operators see in their webhook logs.
type Response[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
}

func writeJSON[T any](w http.ResponseWriter, code int, resp Response[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
