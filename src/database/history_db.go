package database

import (
	"context"
	"encoding/json"
	"log/slog"

	"mvagent/src/datamodels"
)

// HistoryChannel is the pg_notify channel that carries new-sample
// announcements, payload is "<agentID>;<sampleID>".
const HistoryChannel = "belief_history"

type HistoryDb interface {
	WriteHistorySample(ctx context.Context, sample datamodels.HistorySample) error
	WriteTradeRecord(ctx context.Context, trade datamodels.AgentTradeRecord) error
	WriteTerminalSnapshot(ctx context.Context, snapshot datamodels.TerminalSnapshotRecord) error
	GetHistorySamples(ctx context.Context, agentID string, startTimestamp int64, endTimestamp int64) ([]datamodels.BeliefHistoryRecord, error)
	GetTradeRecords(ctx context.Context, agentID string) ([]datamodels.AgentTradeRecord, error)
}

func (d *databaseImplementation) WriteHistorySample(
	ctx context.Context,
	sample datamodels.HistorySample) error {

	shares, err := json.Marshal(sample.Shares)
	if err != nil {
		return err
	}
	prices, err := json.Marshal(sample.Prices)
	if err != nil {
		return err
	}

	record := datamodels.BeliefHistoryRecord{
		AgentID:           sample.AgentID,
		SimTimestamp:      sample.SimTimestamp,
		HoldingsValue:     sample.HoldingsValue,
		Cash:              sample.Cash,
		AllocatedCash:     sample.AllocatedCash,
		ExpectedReturn:    sample.ExpectedReturn,
		PortfolioVariance: sample.PortfolioVariance,
		Shares:            string(shares),
		Prices:            string(prices),
	}
	if err := d.gormDb.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}

	if err := Notify(d.gormDb, HistoryChannel, sample.AgentID, sample.SampleId); err != nil {
		slog.Warn("Failed to notify history listeners", "agent", sample.AgentID, "error", err)
	}
	return nil
}

func (d *databaseImplementation) WriteTradeRecord(
	ctx context.Context,
	trade datamodels.AgentTradeRecord) error {
	return d.gormDb.WithContext(ctx).Create(&trade).Error
}

func (d *databaseImplementation) WriteTerminalSnapshot(
	ctx context.Context,
	snapshot datamodels.TerminalSnapshotRecord) error {
	return d.gormDb.WithContext(ctx).Create(&snapshot).Error
}

func (d *databaseImplementation) GetHistorySamples(
	ctx context.Context,
	agentID string,
	startTimestamp int64,
	endTimestamp int64) ([]datamodels.BeliefHistoryRecord, error) {

	query := d.gormDb.WithContext(ctx).Model(&datamodels.BeliefHistoryRecord{}).
		Where("agent_id = ?", agentID).
		Where("sim_timestamp BETWEEN ? AND ?", startTimestamp, endTimestamp).
		Order("sim_timestamp asc")

	var records []datamodels.BeliefHistoryRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (d *databaseImplementation) GetTradeRecords(
	ctx context.Context,
	agentID string) ([]datamodels.AgentTradeRecord, error) {

	var trades []datamodels.AgentTradeRecord
	err := d.gormDb.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("sim_timestamp asc").
		Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}
