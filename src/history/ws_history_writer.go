package history

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"mvagent/src/datamodels"
)

// WebsocketHistoryWriter pushes every history sample to all connected
// websocket clients as JSON.
type WebsocketHistoryWriter struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

func NewWebSocketHistoryWriter() *WebsocketHistoryWriter {
	return &WebsocketHistoryWriter{
		clients: make(map[*websocket.Conn]bool),
	}
}

// AddClient adds a new client connection
func (w *WebsocketHistoryWriter) AddClient(conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[conn] = true
}

// RemoveClient removes a client connection
func (w *WebsocketHistoryWriter) RemoveClient(conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.clients, conn)
}

func (w *WebsocketHistoryWriter) ClientCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.clients)
}

func (w *WebsocketHistoryWriter) Write(ctx context.Context, sample datamodels.HistorySample) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for client := range w.clients {
		err := client.WriteJSON(sample)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *WebsocketHistoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for client := range w.clients {
		client.Close()
	}
	return nil
}
