package datamodels

import (
	"time"
)

// Asset names both the instrument and the venue it trades on: the simulation
// runs one exchange per asset, so the venue string doubles as the ticker.
type Asset string

type OrderDirection string

const (
	OrderDirectionBuy  OrderDirection = "buy"
	OrderDirectionSell OrderDirection = "sell"
)

// BeliefSeed is the JSON shape of a per-agent belief file: which assets the
// agent watches, its believed prices, and its share counts, index-aligned.
type BeliefSeed struct {
	Watching []Asset   `json:"watching"`
	Prices   []float64 `json:"prices"`
	Shares   []int     `json:"shares"`
}

// BaseModel is embedded by every persisted record.
type BaseModel struct {
	Id        int64 `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
