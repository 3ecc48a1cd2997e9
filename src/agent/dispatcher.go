package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mvagent/src/assetstats"
	"mvagent/src/belief"
	"mvagent/src/datamodels"
	"mvagent/src/ledger"
	"mvagent/src/optimizer"
	"mvagent/src/utils/errors"
	"mvagent/src/utils/general"
)

// HistoryRecorder receives belief-history observations as the agent trades.
// Recording is best effort: a failing recorder never stops the agent.
type HistoryRecorder interface {
	RecordSample(ctx context.Context, sample datamodels.HistorySample) error
	RecordTrade(ctx context.Context, trade datamodels.AgentTradeRecord) error
	RecordTerminal(ctx context.Context, snapshot datamodels.TerminalSnapshotRecord) error
}

// EventDispatcher maps inbound simulation events onto the engine and the
// ledger. The host delivers events for one agent sequentially and in
// non-decreasing timestamp order; nothing here is safe for concurrent use.
type EventDispatcher struct {
	beliefState     *belief.State
	orders          *ledger.Ledger
	engine          *RebalancingEngine
	venue           VenueGateway
	stats           assetstats.Provider
	recorder        HistoryRecorder
	refreshInterval int64

	wakeUpSet bool
	stopped   bool
	sampleSeq int64
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{}
}

func (d *EventDispatcher) WithBeliefState(state *belief.State) *EventDispatcher {
	d.beliefState = state
	return d
}

func (d *EventDispatcher) WithLedger(orders *ledger.Ledger) *EventDispatcher {
	d.orders = orders
	return d
}

func (d *EventDispatcher) WithEngine(engine *RebalancingEngine) *EventDispatcher {
	d.engine = engine
	return d
}

func (d *EventDispatcher) WithVenue(venue VenueGateway) *EventDispatcher {
	d.venue = venue
	return d
}

func (d *EventDispatcher) WithStatsProvider(stats assetstats.Provider) *EventDispatcher {
	d.stats = stats
	return d
}

func (d *EventDispatcher) WithRecorder(recorder HistoryRecorder) *EventDispatcher {
	d.recorder = recorder
	return d
}

func (d *EventDispatcher) WithRefreshInterval(interval int64) *EventDispatcher {
	d.refreshInterval = interval
	return d
}

func (d *EventDispatcher) Build() (*EventDispatcher, error) {
	if d.beliefState == nil || d.orders == nil || d.engine == nil || d.venue == nil || d.stats == nil {
		return nil, errors.New("dispatcher needs belief state, ledger, engine, venue, and stats provider")
	}
	if d.refreshInterval <= 0 {
		return nil, errors.Newf("refresh interval must be positive, got %d", d.refreshInterval)
	}
	return d, nil
}

// Stopped reports whether the terminal event has been processed.
func (d *EventDispatcher) Stopped() bool { return d.stopped }

// HandleEvent processes one inbound event. After every event except Stop the
// dispatcher guarantees exactly one self wake-up is scheduled, so the agent
// re-evaluates periodically even on a silent market.
func (d *EventDispatcher) HandleEvent(ctx context.Context, event datamodels.Event) error {
	if d.stopped {
		slog.Warn("Event after simulation stop ignored", "agent", d.beliefState.AgentID(), "event", fmt.Sprintf("%T", event))
		return nil
	}

	switch ev := event.(type) {
	case datamodels.SimulationStartEvent:
		for _, asset := range d.beliefState.Watching() {
			if err := d.venue.SubscribeToTrades(ctx, asset); err != nil {
				return errors.Wrapf(err, "failed to subscribe to trades on %s", asset)
			}
		}
		if err := d.engine.RunPass(ctx, ev.Timestamp); err != nil {
			return err
		}

	case datamodels.OrderAcceptedEvent:
		if !d.orders.MarkAccepted(ev.OrderID, ev.Venue, ev.Direction, ev.Price, ev.Timestamp) {
			// the submission was swept before the venue confirmed it; the
			// order is live at the venue only, so cancel it there
			cancellations := []datamodels.OrderCancellation{{OrderID: ev.OrderID, Quantity: 1}}
			if err := d.venue.CancelOrders(ctx, ev.Venue, cancellations); err != nil {
				return errors.Wrapf(err, "failed to cancel orphaned order %d on %s", ev.OrderID, ev.Venue)
			}
		}

	case datamodels.WakeUpEvent:
		d.wakeUpSet = false
		if err := d.engine.RunPass(ctx, ev.Timestamp); err != nil {
			return err
		}

	case datamodels.TradeEvent:
		if err := d.handleTrade(ctx, ev); err != nil {
			return err
		}

	case datamodels.SimulationStopEvent:
		d.stopped = true
		d.emitTerminalSnapshot(ctx, ev.Timestamp)
		return nil

	default:
		return errors.Newf("unhandled event type %T", event)
	}

	if !d.wakeUpSet {
		if err := d.venue.ScheduleWakeUp(ctx, d.refreshInterval); err != nil {
			return errors.WrapE(errors.New("failed to schedule wake-up"), err)
		}
		d.wakeUpSet = true
	}
	return nil
}

// handleTrade distinguishes own fills from other agents' trades. An own fill
// updates shares and cash and is recorded; a foreign trade only moves the
// believed price. Either way a rebalancing pass follows.
func (d *EventDispatcher) handleTrade(ctx context.Context, ev datamodels.TradeEvent) error {
	order, err := d.orders.Resolve(ev.AggressingOrderID, ev.RestingOrderID, ev.Venue)
	if err != nil {
		if !errors.Is(err, errors.ErrUnknownOrder) {
			return err
		}
		idx := d.beliefState.IndexOf(ev.Venue)
		if idx < 0 {
			slog.Warn("Trade for unwatched venue ignored", "agent", d.beliefState.AgentID(), "venue", ev.Venue)
			return nil
		}
		if err := d.beliefState.SetPrice(idx, ev.Price); err != nil {
			return err
		}
		return d.engine.RunPass(ctx, ev.Timestamp)
	}

	idx := d.beliefState.IndexOf(ev.Venue)
	if idx < 0 {
		return errors.Wrapf(errors.ErrStateInvariant, "own order on unwatched venue %s", ev.Venue)
	}

	switch order.Direction {
	case datamodels.OrderDirectionBuy:
		d.beliefState.ApplyBuyFill(idx)
	case datamodels.OrderDirectionSell:
		if err := d.beliefState.ApplySellFill(idx, order.Price); err != nil {
			return err
		}
	}

	d.recordTrade(ctx, order, ev.Timestamp)
	d.recordSample(ctx, ev.Timestamp)

	return d.engine.RunPass(ctx, ev.Timestamp)
}

func (d *EventDispatcher) recordTrade(ctx context.Context, order ledger.Order, timestamp int64) {
	if d.recorder == nil {
		return
	}
	record := datamodels.AgentTradeRecord{
		AgentID:      d.beliefState.AgentID(),
		Venue:        string(order.Key.Venue),
		OrderID:      order.Key.OrderID,
		Direction:    order.Direction,
		Price:        order.Price,
		SimTimestamp: timestamp,
	}
	if err := d.recorder.RecordTrade(ctx, record); err != nil {
		slog.Warn("Failed to record trade", "agent", d.beliefState.AgentID(), "error", err)
	}
}

// recordSample captures the belief state after an own fill: holdings plus the
// expected return and variance of the weights actually held right now.
func (d *EventDispatcher) recordSample(ctx context.Context, timestamp int64) {
	if d.recorder == nil {
		return
	}

	watching := d.beliefState.Watching()
	stats, err := d.stats.Get(watching)
	if err != nil {
		slog.Warn("Skipping history sample, no statistics", "agent", d.beliefState.AgentID(), "error", err)
		return
	}

	currentWeights := d.beliefState.CurrentWeights()
	currentPrices := d.beliefState.Prices()
	expectedReturn, err := optimizer.PortfolioExpectedReturn(currentWeights, &stats, currentPrices)
	if err != nil {
		slog.Warn("Skipping history sample", "agent", d.beliefState.AgentID(), "error", err)
		return
	}
	variance, err := optimizer.PortfolioVariance(currentWeights, &stats)
	if err != nil {
		slog.Warn("Skipping history sample", "agent", d.beliefState.AgentID(), "error", err)
		return
	}

	d.sampleSeq++
	sample := datamodels.HistorySample{
		SampleId: general.GenerateUUID5StringFromByteArray(
			[]byte(fmt.Sprintf("%s-%d-%d", d.beliefState.AgentID(), timestamp, d.sampleSeq))),
		AgentID:           d.beliefState.AgentID(),
		SimTimestamp:      timestamp,
		Time:              time.Now(),
		HoldingsValue:     d.beliefState.HoldingsValue(),
		Cash:              d.beliefState.Cash(),
		AllocatedCash:     d.beliefState.AllocatedCash(),
		ExpectedReturn:    expectedReturn,
		PortfolioVariance: variance,
		Shares:            d.beliefState.ShareCounts(),
		Prices:            currentPrices,
	}
	if err := d.recorder.RecordSample(ctx, sample); err != nil {
		slog.Warn("Failed to record history sample", "agent", d.beliefState.AgentID(), "error", err)
	}
}

func (d *EventDispatcher) emitTerminalSnapshot(ctx context.Context, timestamp int64) {
	if d.recorder == nil {
		return
	}

	watching, _ := json.Marshal(d.beliefState.Watching())
	prices, _ := json.Marshal(d.beliefState.Prices())
	shares, _ := json.Marshal(d.beliefState.ShareCounts())

	snapshot := datamodels.TerminalSnapshotRecord{
		AgentID:       d.beliefState.AgentID(),
		Watching:      string(watching),
		Prices:        string(prices),
		Shares:        string(shares),
		Cash:          d.beliefState.Cash(),
		AllocatedCash: d.beliefState.AllocatedCash(),
		SimTimestamp:  timestamp,
	}
	if err := d.recorder.RecordTerminal(ctx, snapshot); err != nil {
		slog.Error("Failed to persist terminal snapshot", "agent", d.beliefState.AgentID(), "error", err)
	}
}
