package agent

import (
	"context"
	"log/slog"
	"sort"

	"mvagent/src/assetstats"
	"mvagent/src/belief"
	"mvagent/src/datamodels"
	"mvagent/src/ledger"
	"mvagent/src/optimizer"
	"mvagent/src/utils/errors"
)

// RebalancingEngine runs one evaluation pass: sweep stale orders, recompute
// the mean-variance target, reconcile the cash buckets, and emit at most one
// single-unit buy or sell intent per watched asset.
//
// A pass is atomic with respect to abort: belief state and ledger are
// snapshotted on entry and restored if any step fails, and no intent reaches
// the venue from an aborted pass. Data and numerical errors degrade to "no
// trade action this pass"; invariant violations propagate.
type RebalancingEngine struct {
	beliefState *belief.State
	orders      *ledger.Ledger
	stats       assetstats.Provider
	venue       VenueGateway
	stepRate    float64
}

func NewRebalancingEngine() *RebalancingEngine {
	return &RebalancingEngine{}
}

func (e *RebalancingEngine) WithBeliefState(state *belief.State) *RebalancingEngine {
	e.beliefState = state
	return e
}

func (e *RebalancingEngine) WithLedger(orders *ledger.Ledger) *RebalancingEngine {
	e.orders = orders
	return e
}

func (e *RebalancingEngine) WithStatsProvider(stats assetstats.Provider) *RebalancingEngine {
	e.stats = stats
	return e
}

func (e *RebalancingEngine) WithVenue(venue VenueGateway) *RebalancingEngine {
	e.venue = venue
	return e
}

func (e *RebalancingEngine) WithStepRate(stepRate float64) *RebalancingEngine {
	e.stepRate = stepRate
	return e
}

func (e *RebalancingEngine) Build() (*RebalancingEngine, error) {
	if e.beliefState == nil {
		return nil, errors.New("belief state is required")
	}
	if e.orders == nil {
		return nil, errors.New("order ledger is required")
	}
	if e.stats == nil {
		return nil, errors.New("stats provider is required")
	}
	if e.venue == nil {
		return nil, errors.New("venue gateway is required")
	}
	if e.stepRate <= 1 {
		return nil, errors.Newf("step rate must exceed 1, got %f", e.stepRate)
	}
	return e, nil
}

// RunPass executes one rebalancing pass for the given simulated timestamp.
// A second trigger for an already-claimed timestamp is a no-op.
func (e *RebalancingEngine) RunPass(ctx context.Context, timestamp int64) error {
	if !e.beliefState.BeginEpoch(timestamp) {
		slog.Debug("Rebalancing already ran for timestamp", "agent", e.beliefState.AgentID(), "timestamp", timestamp)
		return nil
	}

	beliefSnap := e.beliefState.Snapshot()
	ledgerSnap := e.orders.Snapshot()

	var intents intentBuffer
	if err := e.evaluate(timestamp, &intents); err != nil {
		e.beliefState.Restore(beliefSnap)
		e.orders.Restore(ledgerSnap)
		e.beliefState.BeginEpoch(timestamp)

		if errors.Is(err, errors.ErrStateInvariant) {
			return err
		}
		slog.Warn("Rebalancing pass aborted, no trade action",
			"agent", e.beliefState.AgentID(), "timestamp", timestamp, "error", err)
		return nil
	}

	if err := intents.flush(ctx, e.venue); err != nil {
		return errors.WrapE(errors.New("failed to deliver order intents"), err)
	}
	return nil
}

func (e *RebalancingEngine) evaluate(timestamp int64, intents *intentBuffer) error {
	// 1. Cancel and reprice everything still resting from earlier passes.
	sweep := e.orders.CancelAllStale(e.stepRate)
	e.beliefState.ReleaseCash(sweep.ReleasedCash)

	venues := make([]datamodels.Asset, 0, len(sweep.Cancels))
	for venue := range sweep.Cancels {
		venues = append(venues, venue)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })
	for _, venue := range venues {
		intents.addCancel(venue, sweep.Cancels[venue])
	}
	for i, asset := range e.beliefState.Watching() {
		if newPrice, ok := sweep.Reprices[asset]; ok {
			if err := e.beliefState.SetPrice(i, newPrice); err != nil {
				return err
			}
		}
	}

	// 2–4. Solve for the tangency target and the risky fraction.
	watching := e.beliefState.Watching()
	currentPrices := e.beliefState.Prices()

	stats, err := e.stats.Get(watching)
	if err != nil {
		return err
	}
	optimalWeights, err := optimizer.OptimalWeights(&stats, e.beliefState.RiskFreeRate(), currentPrices)
	if err != nil {
		return err
	}
	portfolioReturn, err := optimizer.PortfolioExpectedReturn(optimalWeights, &stats, currentPrices)
	if err != nil {
		return err
	}
	portfolioVariance, err := optimizer.PortfolioVariance(optimalWeights, &stats)
	if err != nil {
		return err
	}
	riskyFraction, err := optimizer.OptimalRiskyFraction(
		portfolioReturn, e.beliefState.RiskFreeRate(), portfolioVariance, e.beliefState.RiskAversion())
	if err != nil {
		return err
	}

	// 5. Reconcile the cash buckets against the risk-free complement.
	e.beliefState.RebalanceCashBuckets(riskyFraction, e.beliefState.HoldingsValue())

	// 6. Size each asset independently, one unit at a time. Holdings value is
	// re-read every iteration because each buy reservation shrinks it.
	for i, asset := range watching {
		price := e.beliefState.Price(i)
		idealValue := optimalWeights[i] * riskyFraction * e.beliefState.HoldingsValue()
		currentValue := float64(e.beliefState.Shares(i)) * price

		switch {
		case currentValue-idealValue > price && e.beliefState.Shares(i) > 0:
			e.orders.Submit(asset, datamodels.OrderDirectionSell, price, timestamp)
			intents.addPlace(asset, datamodels.OrderDirectionSell, price)
		case idealValue-currentValue > price && e.beliefState.AllocatedCash() > price:
			if err := e.beliefState.ReserveOneUnit(i); err != nil {
				return err
			}
			e.orders.Submit(asset, datamodels.OrderDirectionBuy, price, timestamp)
			intents.addPlace(asset, datamodels.OrderDirectionBuy, price)
		default:
			// inside the dead-band: deviation is worth less than one share
		}
	}

	return e.beliefState.CheckInvariants()
}
