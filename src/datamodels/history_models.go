package datamodels

import (
	"time"
)

// HistorySample is one per-pass observation of the agent's belief state:
// holdings, the expected return and variance of the currently held weights,
// and any own-trade that triggered the sample.
type HistorySample struct {
	SampleId          string    `json:"sample_id"`
	AgentID           string    `json:"agent_id"`
	SimTimestamp      int64     `json:"sim_timestamp"`
	Time              time.Time `json:"time"`
	HoldingsValue     float64   `json:"holdings_value"`
	Cash              float64   `json:"cash"`
	AllocatedCash     float64   `json:"allocated_cash"`
	ExpectedReturn    float64   `json:"expected_return"`
	PortfolioVariance float64   `json:"portfolio_variance"`
	Shares            []int     `json:"shares"`
	Prices            []float64 `json:"prices"`
}

func (s HistorySample) GetId() string           { return s.SampleId }
func (s HistorySample) GetTimestamp() time.Time { return s.Time }

// BeliefHistoryRecord is the persisted form of a HistorySample. Slice fields
// are stored JSON-encoded.
type BeliefHistoryRecord struct {
	BaseModel
	AgentID           string  `gorm:"not null;index"`
	SimTimestamp      int64   `gorm:"not null;index"`
	HoldingsValue     float64 `gorm:"not null"`
	Cash              float64 `gorm:"not null"`
	AllocatedCash     float64 `gorm:"not null"`
	ExpectedReturn    float64
	PortfolioVariance float64
	Shares            string
	Prices            string
}

// AgentTradeRecord is one resolved own-fill, buy or sell.
type AgentTradeRecord struct {
	BaseModel
	AgentID      string         `gorm:"not null;index"`
	Venue        string         `gorm:"not null;index"`
	OrderID      int64          `gorm:"not null"`
	Direction    OrderDirection `gorm:"not null"`
	Price        float64        `gorm:"not null"`
	SimTimestamp int64          `gorm:"not null;index"`
}

// TerminalSnapshotRecord is the belief state captured once at simulation stop.
type TerminalSnapshotRecord struct {
	BaseModel
	AgentID       string  `gorm:"not null;index"`
	Watching      string  `gorm:"not null"`
	Prices        string  `gorm:"not null"`
	Shares        string  `gorm:"not null"`
	Cash          float64 `gorm:"not null"`
	AllocatedCash float64 `gorm:"not null"`
	SimTimestamp  int64   `gorm:"not null"`
}
