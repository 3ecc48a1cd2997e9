package belief

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

func testConfig() datamodels.AgentConfig {
	return datamodels.AgentConfig{
		AgentID:       "0",
		Capital:       1000,
		RiskFreeRate:  1.01,
		RiskAversion:  5,
		WatchedAssets: []datamodels.Asset{"ASSET0", "ASSET1"},
		InitialShares: []int{5, 0},
		InitialPrices: []float64{100, 100},
	}
}

func newTestState(t *testing.T) *State {
	cfg := testConfig()
	state, err := NewStateFromConfig(&cfg)
	require.NoError(t, err)
	return state
}

func TestNewStateValidation(t *testing.T) {
	cfg := testConfig()
	cfg.InitialShares = []int{5}
	_, err := NewStateFromConfig(&cfg)
	assert.True(t, errors.Is(err, errors.ErrBadData))

	cfg = testConfig()
	cfg.RiskAversion = 0
	_, err = NewStateFromConfig(&cfg)
	assert.True(t, errors.Is(err, errors.ErrBadData))

	cfg = testConfig()
	cfg.WatchedAssets = []datamodels.Asset{"ASSET0", "ASSET0"}
	cfg.InitialShares = []int{1, 1}
	cfg.InitialPrices = []float64{1, 1}
	_, err = NewStateFromConfig(&cfg)
	assert.True(t, errors.Is(err, errors.ErrBadData))
}

func TestSeedFileOverridesConfig(t *testing.T) {
	seed := datamodels.BeliefSeed{
		Watching: []datamodels.Asset{"ASSET7"},
		Prices:   []float64{42},
		Shares:   []int{3},
	}
	raw, err := json.Marshal(seed)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "agent0.json")
	require.NoError(t, os.WriteFile(path, raw, 0644))

	cfg := testConfig()
	cfg.BeliefFile = path
	state, err := NewStateFromConfig(&cfg)
	require.NoError(t, err)

	assert.Equal(t, []datamodels.Asset{"ASSET7"}, state.Watching())
	assert.Equal(t, 3, state.Shares(0))
	assert.Equal(t, 42.0, state.Price(0))
}

func TestCurrentWeights(t *testing.T) {
	state := newTestState(t)
	weights := state.CurrentWeights()

	// asset with zero shares contributes zero, never negative
	assert.Equal(t, []float64{1, 0}, weights)

	sum := 0.0
	for _, w := range weights {
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.LessOrEqual(t, sum, 1.0+1e-12)
}

func TestCurrentWeightsNoHoldings(t *testing.T) {
	cfg := testConfig()
	cfg.InitialShares = []int{0, 0}
	state, err := NewStateFromConfig(&cfg)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, state.CurrentWeights())
}

func TestHoldingsValue(t *testing.T) {
	state := newTestState(t)
	// 5 shares at 100, plus 1000 cash
	assert.InDelta(t, 1500, state.HoldingsValue(), 1e-12)

	state.ReleaseCash(50)
	assert.InDelta(t, 1550, state.HoldingsValue(), 1e-12)
}

func TestRebalanceCashBucketsMovesExcessIntoAllocated(t *testing.T) {
	state := newTestState(t)
	total := state.HoldingsValue() // 1500

	// risky fraction 0.8: free-cash floor is 300
	state.RebalanceCashBuckets(0.8, total)
	assert.InDelta(t, 300, state.Cash(), 1e-9)
	assert.InDelta(t, 700, state.AllocatedCash(), 1e-9)
}

func TestRebalanceCashBucketsPullsSlackBack(t *testing.T) {
	state := newTestState(t)
	state.RebalanceCashBuckets(0.8, state.HoldingsValue()) // cash=300, allocated=700

	// target flips conservative: floor 1200, allocated has the 900 slack
	state.RebalanceCashBuckets(0.2, state.HoldingsValue())
	assert.InDelta(t, 1200, state.Cash(), 1e-9)
	assert.InDelta(t, 100, state.AllocatedCash(), 1e-9)
}

func TestRebalanceCashBucketsCollapsesWhenUnderfunded(t *testing.T) {
	state := newTestState(t)
	state.RebalanceCashBuckets(0.8, state.HoldingsValue()) // cash=300, allocated=700

	// floor 1500 exceeds cash+allocated: collapse allocated entirely
	state.RebalanceCashBuckets(0.0, state.HoldingsValue())
	assert.InDelta(t, 1000, state.Cash(), 1e-9)
	assert.InDelta(t, 0, state.AllocatedCash(), 1e-9)
}

func TestReserveAndFillRoundTrip(t *testing.T) {
	state := newTestState(t)
	state.RebalanceCashBuckets(0.8, state.HoldingsValue())
	cashBefore := state.Cash()
	allocatedBefore := state.AllocatedCash()

	require.NoError(t, state.ReserveOneUnit(1))
	assert.InDelta(t, allocatedBefore-100, state.AllocatedCash(), 1e-9)

	state.ApplyBuyFill(1)
	assert.Equal(t, 1, state.Shares(1))
	// free cash never moves on a buy: it was spent at reservation time
	assert.InDelta(t, cashBefore, state.Cash(), 1e-12)
}

func TestReserveOneUnitUnderflow(t *testing.T) {
	state := newTestState(t)
	// nothing allocated yet
	err := state.ReserveOneUnit(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStateInvariant))
}

func TestApplySellFill(t *testing.T) {
	state := newTestState(t)
	require.NoError(t, state.ApplySellFill(0, 100))
	assert.Equal(t, 4, state.Shares(0))
	assert.InDelta(t, 100, state.AllocatedCash(), 1e-12)

	err := state.ApplySellFill(1, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStateInvariant))
}

func TestBeginEpoch(t *testing.T) {
	state := newTestState(t)
	assert.True(t, state.BeginEpoch(0))
	assert.False(t, state.BeginEpoch(0))
	assert.True(t, state.BeginEpoch(5))
	assert.False(t, state.BeginEpoch(3))
}

func TestSnapshotRestore(t *testing.T) {
	state := newTestState(t)
	snap := state.Snapshot()

	require.NoError(t, state.SetPrice(0, 123))
	state.ApplyBuyFill(1)
	state.ReleaseCash(500)
	state.BeginEpoch(9)

	state.Restore(snap)
	assert.Equal(t, 100.0, state.Price(0))
	assert.Equal(t, 0, state.Shares(1))
	assert.InDelta(t, 0, state.AllocatedCash(), 1e-12)
	assert.Equal(t, int64(-1), state.Epoch())
}

func TestCheckInvariants(t *testing.T) {
	state := newTestState(t)
	require.NoError(t, state.CheckInvariants())

	state.allocatedCash = -1
	err := state.CheckInvariants()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStateInvariant))
}
