package belief

import (
	"encoding/json"
	"os"

	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
	"mvagent/src/utils/general"
)

const cashTolerance = 1e-9

// State is the agent's private view of the world: believed prices, share
// counts, and the two cash buckets. Free cash backs the risk-free side of the
// target; allocated cash is earmarked for resting buy orders. The state is
// owned by exactly one agent and mutated only from its event handler.
type State struct {
	agentID       string
	watching      []datamodels.Asset
	prices        []float64
	shares        []int
	cash          float64
	allocatedCash float64
	riskAversion  float64
	riskFreeRate  float64

	// epoch is the last simulated timestamp a full rebalancing pass ran for.
	epoch int64
}

// Snapshot is a deep copy of a State, used to roll a pass back atomically.
type Snapshot struct {
	prices        []float64
	shares        []int
	cash          float64
	allocatedCash float64
	epoch         int64
}

func NewStateFromConfig(cfg *datamodels.AgentConfig) (*State, error) {
	watching := cfg.WatchedAssets
	prices := cfg.InitialPrices
	shares := cfg.InitialShares

	if cfg.BeliefFile != "" {
		seed, err := LoadSeed(cfg.BeliefFile)
		if err != nil {
			return nil, err
		}
		watching = seed.Watching
		prices = seed.Prices
		shares = seed.Shares
	}

	if len(watching) == 0 {
		return nil, errors.Wrap(errors.ErrBadData, "no watched assets")
	}
	if !general.NoDuplicateItemsInSlice(watching) {
		return nil, errors.Wrap(errors.ErrBadData, "duplicate watched assets")
	}
	if len(prices) != len(watching) || len(shares) != len(watching) {
		return nil, errors.Wrapf(errors.ErrBadData,
			"watched assets, prices, and shares must align: %d/%d/%d",
			len(watching), len(prices), len(shares))
	}
	for i, p := range prices {
		if p <= 0 {
			return nil, errors.Wrapf(errors.ErrBadData, "non-positive initial price %f for %s", p, watching[i])
		}
		if shares[i] < 0 {
			return nil, errors.Wrapf(errors.ErrBadData, "negative initial shares %d for %s", shares[i], watching[i])
		}
	}
	if cfg.Capital < 0 {
		return nil, errors.Wrapf(errors.ErrBadData, "negative capital %f", cfg.Capital)
	}
	if cfg.RiskAversion <= 0 {
		return nil, errors.Wrapf(errors.ErrBadData, "risk aversion must be positive, got %f", cfg.RiskAversion)
	}
	if cfg.RiskFreeRate <= 0 {
		return nil, errors.Wrapf(errors.ErrBadData, "risk-free rate must be positive, got %f", cfg.RiskFreeRate)
	}

	state := &State{
		agentID:       cfg.AgentID,
		watching:      make([]datamodels.Asset, len(watching)),
		prices:        make([]float64, len(prices)),
		shares:        make([]int, len(shares)),
		cash:          cfg.Capital,
		allocatedCash: 0,
		riskAversion:  cfg.RiskAversion,
		riskFreeRate:  cfg.RiskFreeRate,
		epoch:         -1,
	}
	copy(state.watching, watching)
	copy(state.prices, prices)
	copy(state.shares, shares)
	return state, nil
}

// LoadSeed reads a belief seed file: {"watching": [...], "prices": [...], "shares": [...]}.
func LoadSeed(filePath string) (*datamodels.BeliefSeed, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.WrapE(errors.ErrBadData, err)
	}
	var seed datamodels.BeliefSeed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, errors.WrapE(errors.ErrBadData, err)
	}
	return &seed, nil
}

func (s *State) AgentID() string { return s.agentID }

func (s *State) Watching() []datamodels.Asset {
	out := make([]datamodels.Asset, len(s.watching))
	copy(out, s.watching)
	return out
}

func (s *State) NumAssets() int { return len(s.watching) }

func (s *State) IndexOf(asset datamodels.Asset) int {
	return general.IndexOfItem(s.watching, asset)
}

func (s *State) Price(i int) float64 { return s.prices[i] }

func (s *State) Prices() []float64 {
	out := make([]float64, len(s.prices))
	copy(out, s.prices)
	return out
}

func (s *State) SetPrice(i int, price float64) error {
	if price <= 0 {
		return errors.Wrapf(errors.ErrStateInvariant, "refusing non-positive price %f for %s", price, s.watching[i])
	}
	s.prices[i] = price
	return nil
}

func (s *State) Shares(i int) int { return s.shares[i] }

func (s *State) ShareCounts() []int {
	out := make([]int, len(s.shares))
	copy(out, s.shares)
	return out
}

func (s *State) Cash() float64          { return s.cash }
func (s *State) AllocatedCash() float64 { return s.allocatedCash }
func (s *State) RiskAversion() float64  { return s.riskAversion }
func (s *State) RiskFreeRate() float64  { return s.riskFreeRate }

func (s *State) Epoch() int64 { return s.epoch }

// BeginEpoch claims the given timestamp for a rebalancing pass. It returns
// false when a pass already ran at or after this timestamp, which makes
// duplicate triggers at the same simulated time no-ops.
func (s *State) BeginEpoch(timestamp int64) bool {
	if timestamp <= s.epoch {
		return false
	}
	s.epoch = timestamp
	return true
}

// CurrentWeights is the per-asset fraction of risky holdings by believed
// value. An asset with no shares contributes weight zero; the agent does not
// model short positions.
func (s *State) CurrentWeights() []float64 {
	weights := make([]float64, len(s.watching))
	totalValue := 0.0
	for i := range s.watching {
		if s.shares[i] > 0 {
			totalValue += s.prices[i] * float64(s.shares[i])
		}
	}
	if totalValue == 0 {
		return weights
	}
	for i := range s.watching {
		if s.shares[i] > 0 {
			weights[i] = s.prices[i] * float64(s.shares[i]) / totalValue
		}
	}
	return weights
}

// HoldingsValue is the agent's total wealth by its own beliefs: share value
// plus both cash buckets. Every sizing decision keys off this number.
func (s *State) HoldingsValue() float64 {
	value := s.cash + s.allocatedCash
	for i := range s.watching {
		value += s.prices[i] * float64(s.shares[i])
	}
	return value
}

// RebalanceCashBuckets reconciles free and allocated cash against the
// risk-free complement of the target. Free cash above the floor moves into
// the allocated bucket; a shortfall pulls allocated slack back; when even
// that cannot cover the floor the allocated bucket collapses into free cash
// and the agent funds what it can. Best effort, never fails.
func (s *State) RebalanceCashBuckets(targetRiskyFraction, totalValue float64) {
	riskFreeFloor := (1 - targetRiskyFraction) * totalValue

	switch {
	case s.cash > riskFreeFloor:
		s.allocatedCash += s.cash - riskFreeFloor
		s.cash = riskFreeFloor
	case s.cash < riskFreeFloor && s.allocatedCash > riskFreeFloor-s.cash:
		s.allocatedCash -= riskFreeFloor - s.cash
		s.cash = riskFreeFloor
	case s.cash < riskFreeFloor:
		s.cash += s.allocatedCash
		s.allocatedCash = 0
	}
}

// ReserveOneUnit debits one unit's price from allocated cash ahead of a buy
// submission.
func (s *State) ReserveOneUnit(i int) error {
	price := s.prices[i]
	if s.allocatedCash-price < -cashTolerance {
		return errors.Wrapf(errors.ErrStateInvariant,
			"cannot reserve %f for %s with allocated cash %f", price, s.watching[i], s.allocatedCash)
	}
	s.allocatedCash -= price
	return nil
}

// ReleaseCash returns previously reserved capital to the allocated bucket,
// e.g. when a resting buy is cancelled.
func (s *State) ReleaseCash(amount float64) {
	s.allocatedCash += amount
}

// ApplyBuyFill records a confirmed one-unit buy. Cash is untouched: the price
// was already debited from the allocated bucket at submission.
func (s *State) ApplyBuyFill(i int) {
	s.shares[i]++
}

// ApplySellFill records a confirmed one-unit sell at the submitted price.
func (s *State) ApplySellFill(i int, price float64) error {
	if s.shares[i] <= 0 {
		return errors.Wrapf(errors.ErrStateInvariant, "sell fill for %s with %d shares", s.watching[i], s.shares[i])
	}
	s.shares[i]--
	s.allocatedCash += price
	return nil
}

// CheckInvariants verifies non-negativity of both cash buckets and every
// share count. The original reconciliation could leave balances transiently
// negative under some fill orderings; here that surfaces loudly.
func (s *State) CheckInvariants() error {
	if s.cash < -cashTolerance {
		return errors.Wrapf(errors.ErrStateInvariant, "negative cash %f", s.cash)
	}
	if s.allocatedCash < -cashTolerance {
		return errors.Wrapf(errors.ErrStateInvariant, "negative allocated cash %f", s.allocatedCash)
	}
	for i, count := range s.shares {
		if count < 0 {
			return errors.Wrapf(errors.ErrStateInvariant, "negative share count %d for %s", count, s.watching[i])
		}
	}
	return nil
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		prices:        make([]float64, len(s.prices)),
		shares:        make([]int, len(s.shares)),
		cash:          s.cash,
		allocatedCash: s.allocatedCash,
		epoch:         s.epoch,
	}
	copy(snap.prices, s.prices)
	copy(snap.shares, s.shares)
	return snap
}

func (s *State) Restore(snap Snapshot) {
	copy(s.prices, snap.prices)
	copy(s.shares, snap.shares)
	s.cash = snap.cash
	s.allocatedCash = snap.allocatedCash
	s.epoch = snap.epoch
}
