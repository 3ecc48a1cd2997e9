package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

const asset0 = datamodels.Asset("ASSET0")
const asset1 = datamodels.Asset("ASSET1")

func TestSubmitThenAccept(t *testing.T) {
	l := NewLedger()
	l.Submit(asset0, datamodels.OrderDirectionBuy, 100, 7)
	assert.Equal(t, 1, l.PendingCount())
	assert.Equal(t, 0, l.OutstandingCount())

	l.MarkAccepted(42, asset0, datamodels.OrderDirectionBuy, 100, 7)
	assert.Equal(t, 0, l.PendingCount())
	assert.Equal(t, 1, l.OutstandingCount())
}

func TestDuplicateAcceptIsIgnored(t *testing.T) {
	l := NewLedger()
	l.Submit(asset0, datamodels.OrderDirectionBuy, 100, 7)
	l.MarkAccepted(42, asset0, datamodels.OrderDirectionBuy, 100, 7)
	l.MarkAccepted(42, asset0, datamodels.OrderDirectionBuy, 100, 8)
	assert.Equal(t, 1, l.OutstandingCount())
}

func TestStaleAcceptanceIsRefused(t *testing.T) {
	l := NewLedger()
	accepted := l.MarkAccepted(9, asset1, datamodels.OrderDirectionSell, 50, 3)
	assert.False(t, accepted)
	assert.Equal(t, 0, l.OutstandingCount())
}

func TestSweptBuyReserveReleasedExactlyOnce(t *testing.T) {
	l := NewLedger()
	l.Submit(asset0, datamodels.OrderDirectionBuy, 100, 1)

	// the sweep beats the venue's confirmation and releases the reserve
	sweep := l.CancelAllStale(1.05)
	assert.InDelta(t, 100, sweep.ReleasedCash, 1e-12)

	// the late acceptance must not resurrect the order
	accepted := l.MarkAccepted(7, asset0, datamodels.OrderDirectionBuy, 100, 2)
	assert.False(t, accepted)
	assert.Equal(t, 0, l.OutstandingCount())

	// so the next sweep has nothing to release for it
	sweep = l.CancelAllStale(1.05)
	assert.InDelta(t, 0, sweep.ReleasedCash, 1e-12)
	assert.Empty(t, sweep.Cancels)
}

func TestStaleAcceptanceDoesNotMatchRepricedResubmission(t *testing.T) {
	l := NewLedger()
	l.Submit(asset0, datamodels.OrderDirectionBuy, 100, 1)
	l.CancelAllStale(1.05)
	l.Submit(asset0, datamodels.OrderDirectionBuy, 105, 2)

	// the confirmation of the swept 100 bid must not claim the live 105 bid
	accepted := l.MarkAccepted(7, asset0, datamodels.OrderDirectionBuy, 100, 2)
	assert.False(t, accepted)
	assert.Equal(t, 1, l.PendingCount())
	assert.Equal(t, 0, l.OutstandingCount())
}

func TestResolveByEitherSide(t *testing.T) {
	l := NewLedger()
	l.Submit(asset0, datamodels.OrderDirectionBuy, 100, 1)
	l.MarkAccepted(11, asset0, datamodels.OrderDirectionBuy, 100, 1)

	// resting side match
	order, err := l.Resolve(999, 11, asset0)
	require.NoError(t, err)
	assert.Equal(t, int64(11), order.Key.OrderID)
	assert.Equal(t, 0, l.OutstandingCount())

	// an identity is removed exactly once
	_, err = l.Resolve(999, 11, asset0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownOrder))
}

func TestResolveUnknownOrder(t *testing.T) {
	l := NewLedger()
	_, err := l.Resolve(1, 2, asset0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownOrder))
}

func TestResolveWrongVenue(t *testing.T) {
	l := NewLedger()
	l.Submit(asset0, datamodels.OrderDirectionBuy, 100, 1)
	l.MarkAccepted(11, asset0, datamodels.OrderDirectionBuy, 100, 1)

	_, err := l.Resolve(11, 0, asset1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownOrder))
}

func TestCancelAllStaleEmptiesAndReprices(t *testing.T) {
	l := NewLedger()
	l.Submit(asset0, datamodels.OrderDirectionBuy, 100, 1)
	l.MarkAccepted(1, asset0, datamodels.OrderDirectionBuy, 100, 1)
	l.Submit(asset1, datamodels.OrderDirectionSell, 200, 1)
	l.MarkAccepted(2, asset1, datamodels.OrderDirectionSell, 200, 1)

	sweep := l.CancelAllStale(1.05)

	assert.Equal(t, 0, l.OutstandingCount())
	assert.Equal(t, 0, l.PendingCount())

	require.Len(t, sweep.Cancels[asset0], 1)
	require.Len(t, sweep.Cancels[asset1], 1)
	assert.Equal(t, int64(1), sweep.Cancels[asset0][0].OrderID)

	// buy releases its reserved price and bids up
	assert.InDelta(t, 100, sweep.ReleasedCash, 1e-12)
	assert.InDelta(t, 105, sweep.Reprices[asset0], 1e-9)
	// sell asks down by the complementary multiplier
	assert.InDelta(t, 190, sweep.Reprices[asset1], 1e-9)
}

func TestCancelAllStaleSweepsPendingToo(t *testing.T) {
	l := NewLedger()
	l.Submit(asset0, datamodels.OrderDirectionBuy, 80, 1)

	sweep := l.CancelAllStale(1.05)

	// no venue id, so no cancel intent, but the reserved cash comes back
	assert.Empty(t, sweep.Cancels)
	assert.InDelta(t, 80, sweep.ReleasedCash, 1e-12)
	assert.Equal(t, 0, l.PendingCount())
}

func TestSellRepriceFloorsAtPositive(t *testing.T) {
	l := NewLedger()
	l.Submit(asset0, datamodels.OrderDirectionSell, 10, 1)
	l.MarkAccepted(3, asset0, datamodels.OrderDirectionSell, 10, 1)

	// step rate 2 would drive the ask to zero; the reprice is skipped
	sweep := l.CancelAllStale(2.0)
	_, repriced := sweep.Reprices[asset0]
	assert.False(t, repriced)
}

func TestSnapshotRestore(t *testing.T) {
	l := NewLedger()
	l.Submit(asset0, datamodels.OrderDirectionBuy, 100, 1)
	l.MarkAccepted(1, asset0, datamodels.OrderDirectionBuy, 100, 1)
	snap := l.Snapshot()

	l.CancelAllStale(1.05)
	assert.Equal(t, 0, l.OutstandingCount())

	l.Restore(snap)
	assert.Equal(t, 1, l.OutstandingCount())
	order, err := l.Resolve(1, 0, asset0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, order.Price)
}
