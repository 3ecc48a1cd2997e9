package history

import (
	"context"
	"log/slog"

	"mvagent/src/database"
	"mvagent/src/datamodels"
	"mvagent/src/utils/general"
)

const defaultBufferSize = 100_000

// Recorder keeps a bounded in-memory window of history samples for summaries
// and plotting, and forwards everything to the configured writers. Trades and
// the terminal snapshot go straight to the database when one is connected.
type Recorder struct {
	buffer *general.TimedBuffer[datamodels.HistorySample]
	writer HistoryWriter
	db     database.HistoryDb

	trades   []datamodels.AgentTradeRecord
	terminal *datamodels.TerminalSnapshotRecord
}

func NewRecorder() *Recorder {
	return &Recorder{
		buffer: general.NewTimedBuffer[datamodels.HistorySample](defaultBufferSize),
	}
}

func (r *Recorder) WithWriter(writer HistoryWriter) *Recorder {
	r.writer = writer
	return r
}

func (r *Recorder) WithDatabase(db database.HistoryDb) *Recorder {
	r.db = db
	return r
}

func (r *Recorder) WithBufferSize(size int) *Recorder {
	r.buffer = general.NewTimedBuffer[datamodels.HistorySample](size)
	return r
}

func (r *Recorder) RecordSample(ctx context.Context, sample datamodels.HistorySample) error {
	r.buffer.AddElement(sample)
	if r.writer == nil {
		return nil
	}
	return r.writer.Write(ctx, sample)
}

func (r *Recorder) RecordTrade(ctx context.Context, trade datamodels.AgentTradeRecord) error {
	r.trades = append(r.trades, trade)
	slog.Debug("Recorded trade",
		"agent", trade.AgentID, "venue", trade.Venue, "direction", trade.Direction, "price", trade.Price)
	if r.db == nil {
		return nil
	}
	return r.db.WriteTradeRecord(ctx, trade)
}

func (r *Recorder) RecordTerminal(ctx context.Context, snapshot datamodels.TerminalSnapshotRecord) error {
	r.terminal = &snapshot
	slog.Info("Recording terminal snapshot",
		"agent", snapshot.AgentID, "cash", snapshot.Cash, "shares", snapshot.Shares)
	if r.db == nil {
		return nil
	}
	return r.db.WriteTerminalSnapshot(ctx, snapshot)
}

// Samples returns the buffered window in timestamp order.
func (r *Recorder) Samples() []datamodels.HistorySample {
	return r.buffer.GetAllElements()
}

func (r *Recorder) Trades() []datamodels.AgentTradeRecord {
	out := make([]datamodels.AgentTradeRecord, len(r.trades))
	copy(out, r.trades)
	return out
}

func (r *Recorder) Terminal() (datamodels.TerminalSnapshotRecord, bool) {
	if r.terminal == nil {
		return datamodels.TerminalSnapshotRecord{}, false
	}
	return *r.terminal, true
}

func (r *Recorder) LatestSample() (datamodels.HistorySample, bool) {
	return r.buffer.GetLatestElement()
}

func (r *Recorder) Close() error {
	if r.writer == nil {
		return nil
	}
	return r.writer.Close()
}
