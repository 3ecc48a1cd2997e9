package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"mvagent/src/history"
	"mvagent/src/utils/errors"
)

// Server exposes the agent's history stream and run summary over HTTP. The
// websocket endpoint pushes every new sample to connected clients via the
// history writer's fan-out.
type Server struct {
	addr          string
	upgrader      websocket.Upgrader
	httpMux       *http.ServeMux
	historyStream *history.WebsocketHistoryWriter
	recorder      *history.Recorder
}

func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all connections (for development purposes)
			},
		},
		httpMux: http.NewServeMux(),
	}
}

func (s *Server) WithHistoryStream(historyStream *history.WebsocketHistoryWriter) *Server {
	s.historyStream = historyStream
	return s
}

func (s *Server) WithRecorder(recorder *history.Recorder) *Server {
	s.recorder = recorder
	return s
}

func (s *Server) Start(ctx context.Context) error {
	if s.historyStream == nil {
		return errors.New("history stream is nil")
	}
	s.RegisterHealthCheck()
	s.RegisterWebSocketHandler()
	s.RegisterSummary()
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.httpMux,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("Failed to close server", "error", err)
		}
	}()

	slog.Info(fmt.Sprintf("Starting server on %s", s.addr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	s.historyStream.AddClient(conn)
	defer s.historyStream.RemoveClient(conn)

	slog.Info("Client connected")

	// welcome message
	welcomeMessage := WebSocketResponse{
		Success: true,
		Data:    "Welcome to the mvagent history stream",
	}
	if err := conn.WriteJSON(welcomeMessage); err != nil {
		slog.Error("Failed to send welcome message", "error", err)
		return
	}

	for {
		// Read message from the client
		_, msg, err := conn.ReadMessage()
		if err != nil {
			slog.Error("Error reading message:", "error", err)
			break
		}

		var wsMessage WebSocketMessage
		if err := json.Unmarshal(msg, &wsMessage); err != nil {
			slog.Error("Failed to unmarshal message", "error", err)
			continue
		}

		switch wsMessage.MessageType {
		case Summary:
			summaryResponse := s.handleSummary()
			if err := conn.WriteJSON(summaryResponse); err != nil {
				slog.Error("Failed to send summary response", "error", err)
				return
			}
		case Latest:
			latestResponse := s.handleLatest()
			if err := conn.WriteJSON(latestResponse); err != nil {
				slog.Error("Failed to send latest-sample response", "error", err)
				return
			}
		default:
			slog.Info(fmt.Sprintf("Received unknown message type: %s", wsMessage.MessageType))
		}
	}
}

func StartHeartbeat(ctx context.Context) {
	seconds := 10
	timer := time.NewTicker(time.Second * time.Duration(seconds))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down heartbeat")
			return
		case <-timer.C:
			slog.Info(fmt.Sprintf("%d second heartbeat", seconds))
		}
	}
}
