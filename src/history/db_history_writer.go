package history

import (
	"context"

	"mvagent/src/database"
	"mvagent/src/datamodels"
)

type DBHistoryWriter struct {
	db database.HistoryDb
}

func NewDBHistoryWriter(db database.HistoryDb) *DBHistoryWriter {
	return &DBHistoryWriter{
		db: db,
	}
}

func (w *DBHistoryWriter) Write(ctx context.Context, sample datamodels.HistorySample) error {
	return w.db.WriteHistorySample(ctx, sample)
}

func (w *DBHistoryWriter) Close() error {
	return nil
}
