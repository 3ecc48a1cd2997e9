package history

import (
	"context"
	"log/slog"
	"sync"

	"mvagent/src/datamodels"
)

// MultiHistoryWriter fans one sample out to multiple destinations
type MultiHistoryWriter struct {
	writers []HistoryWriter
	mu      sync.RWMutex
}

func NewMultiHistoryWriter(writers ...HistoryWriter) *MultiHistoryWriter {
	return &MultiHistoryWriter{
		writers: writers,
	}
}

func (w *MultiHistoryWriter) AddWriter(writer HistoryWriter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writers = append(w.writers, writer)
}

func (w *MultiHistoryWriter) Write(ctx context.Context, sample datamodels.HistorySample) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var lastErr error
	for _, writer := range w.writers {
		if err := writer.Write(ctx, sample); err != nil {
			lastErr = err
			slog.Error("Failed to write history sample",
				"writer", writer,
				"error", err)
		}
	}
	return lastErr
}

func (w *MultiHistoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var lastErr error
	for _, writer := range w.writers {
		if err := writer.Close(); err != nil {
			lastErr = err
			slog.Error("Failed to close history writer",
				"writer", writer,
				"error", err)
		}
	}
	return lastErr
}
