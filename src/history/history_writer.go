package history

import (
	"context"
	"log/slog"

	"mvagent/src/database"
	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

// HistoryWriter interface defines methods for writing belief-history samples
type HistoryWriter interface {
	// Write persists one history sample
	Write(ctx context.Context, sample datamodels.HistorySample) error
	// Close cleans up any resources
	Close() error
}

// BuildHistoryWriter assembles the configured writer fan-out. The websocket
// stream is also returned on its own (nil unless enabled) so the server can
// attach clients to the same instance the fan-out writes into.
func BuildHistoryWriter(config *datamodels.HistoryWriterConfig, db database.HistoryDb) (*MultiHistoryWriter, *WebsocketHistoryWriter, error) {
	if config == nil {
		slog.Warn("HistoryWriterConfig is nil, skipping history writer")
		return nil, nil, nil
	}
	writers := []HistoryWriter{}
	var wsStream *WebsocketHistoryWriter
	if config.WsWriter {
		wsStream = NewWebSocketHistoryWriter()
		writers = append(writers, wsStream)
	}
	if config.FileWriter {
		format := FileFormat(config.FileFormat)
		if format == "" {
			format = FormatCSV
		}
		historyWriter, err := NewFileHistoryWriter(config.FilePath, format)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, historyWriter)
	}
	if config.DbWriter {
		if db == nil {
			return nil, nil, errors.New("db history writer requested without a database connection")
		}
		writers = append(writers, NewDBHistoryWriter(db))
	}
	return NewMultiHistoryWriter(writers...), wsStream, nil
}
