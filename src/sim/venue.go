package sim

import (
	"context"
	"log/slog"
	"sort"

	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

type restingOrder struct {
	id        int64
	venue     datamodels.Asset
	direction datamodels.OrderDirection
	price     float64
}

// SimulatedVenue is the in-process exchange the agent trades against. Order
// acknowledgements arrive one tick after submission; resting orders fill when
// the simulated market price crosses them.
type SimulatedVenue struct {
	sim *Simulation

	nextOrderID  int64
	nextMarketID int64
	resting      map[int64]restingOrder
	subscribed   map[datamodels.Asset]bool
}

func newSimulatedVenue(sim *Simulation) *SimulatedVenue {
	return &SimulatedVenue{
		sim:          sim,
		nextMarketID: 1_000_000, // keep market order ids clear of agent ids
		resting:      make(map[int64]restingOrder),
		subscribed:   make(map[datamodels.Asset]bool),
	}
}

func (v *SimulatedVenue) PlaceLimitOrder(ctx context.Context, venue datamodels.Asset, direction datamodels.OrderDirection, quantity int, price float64) error {
	if quantity != 1 {
		return errors.Newf("venue only supports single-unit orders, got %d", quantity)
	}
	if _, ok := v.sim.marketPrices[venue]; !ok {
		return errors.Newf("no market for venue %s", venue)
	}

	v.nextOrderID++
	orderID := v.nextOrderID
	acceptAt := v.sim.now + v.sim.latency

	v.sim.scheduler.schedule(acceptAt, func(ctx context.Context) error {
		v.resting[orderID] = restingOrder{id: orderID, venue: venue, direction: direction, price: price}
		return v.sim.dispatcher.HandleEvent(ctx, datamodels.OrderAcceptedEvent{
			Timestamp: acceptAt,
			Venue:     venue,
			OrderID:   orderID,
			Direction: direction,
			Price:     price,
		})
	})
	return nil
}

func (v *SimulatedVenue) CancelOrders(ctx context.Context, venue datamodels.Asset, cancellations []datamodels.OrderCancellation) error {
	for _, cancellation := range cancellations {
		order, ok := v.resting[cancellation.OrderID]
		if !ok {
			slog.Warn("Cancel for unknown order ignored", "orderID", cancellation.OrderID, "venue", venue)
			continue
		}
		if order.venue != venue {
			return errors.Newf("cancel for order %d names venue %s, resting on %s", cancellation.OrderID, venue, order.venue)
		}
		delete(v.resting, cancellation.OrderID)
	}
	return nil
}

func (v *SimulatedVenue) ScheduleWakeUp(ctx context.Context, delay int64) error {
	if delay <= 0 {
		return errors.Newf("wake-up delay must be positive, got %d", delay)
	}
	wakeAt := v.sim.now + delay
	v.sim.scheduler.schedule(wakeAt, func(ctx context.Context) error {
		return v.sim.dispatcher.HandleEvent(ctx, datamodels.WakeUpEvent{Timestamp: wakeAt})
	})
	return nil
}

func (v *SimulatedVenue) SubscribeToTrades(ctx context.Context, venue datamodels.Asset) error {
	if _, ok := v.sim.marketPrices[venue]; !ok {
		return errors.Newf("no market for venue %s", venue)
	}
	v.subscribed[venue] = true
	return nil
}

// matchRestingOrders fills every agent order the current market price
// crosses: bids at or above the market, asks at or below it. Fills execute at
// the order's limit price.
func (v *SimulatedVenue) matchRestingOrders(ctx context.Context, venue datamodels.Asset, marketPrice float64, timestamp int64) error {
	for _, orderID := range sortedOrderIDs(v.resting) {
		order := v.resting[orderID]
		if order.venue != venue {
			continue
		}

		crossed := (order.direction == datamodels.OrderDirectionBuy && marketPrice <= order.price) ||
			(order.direction == datamodels.OrderDirectionSell && marketPrice >= order.price)
		if !crossed {
			continue
		}

		delete(v.resting, orderID)
		v.nextMarketID++
		err := v.sim.dispatcher.HandleEvent(ctx, datamodels.TradeEvent{
			Timestamp:         timestamp,
			Venue:             venue,
			AggressingOrderID: v.nextMarketID,
			RestingOrderID:    orderID,
			Price:             order.price,
			Quantity:          1,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func sortedOrderIDs(resting map[int64]restingOrder) []int64 {
	ids := make([]int64, 0, len(resting))
	for id := range resting {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
