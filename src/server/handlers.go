package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"mvagent/src/history"
)

// WebSocketMessageType represents the type of WebSocket message
type WebSocketMessageType string

const (
	// Summary requests the run summary of the buffered sample window
	Summary WebSocketMessageType = "summary"
	// Latest requests the most recent history sample
	Latest WebSocketMessageType = "latest"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	MessageType WebSocketMessageType `json:"message_type"`
	Message     []byte               `json:"message"`
}

// WebSocketResponse represents a response sent back over WebSocket
type WebSocketResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

// RegisterHealthCheck registers the health check endpoint
func (s *Server) RegisterHealthCheck() {
	s.httpMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Mvagent is healthy"))
	})
}

// RegisterWebSocketHandler registers the WebSocket endpoint
func (s *Server) RegisterWebSocketHandler() {
	s.httpMux.HandleFunc("/ws", s.handleWebSocket)
}

// RegisterSummary registers the HTTP summary endpoint
func (s *Server) RegisterSummary() {
	s.httpMux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		response := s.handleSummary()
		w.Header().Set("Content-Type", "application/json")
		if !response.Success {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("Failed to encode summary response", "error", err)
		}
	})
}

func (s *Server) handleSummary() WebSocketResponse {
	if s.recorder == nil {
		return WebSocketResponse{
			Success: false,
			Error:   "no recorder attached",
		}
	}
	summary, err := history.Summarize(s.recorder.Samples(), len(s.recorder.Trades()))
	if err != nil {
		return WebSocketResponse{
			Success: false,
			Error:   err.Error(),
		}
	}
	return WebSocketResponse{
		Success: true,
		Data:    summary,
	}
}

func (s *Server) handleLatest() WebSocketResponse {
	if s.recorder == nil {
		return WebSocketResponse{
			Success: false,
			Error:   "no recorder attached",
		}
	}
	sample, ok := s.recorder.LatestSample()
	if !ok {
		return WebSocketResponse{
			Success: false,
			Error:   "no samples recorded yet",
		}
	}
	return WebSocketResponse{
		Success: true,
		Data:    sample,
	}
}
