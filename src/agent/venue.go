package agent

import (
	"context"

	"mvagent/src/datamodels"
)

// VenueGateway is the agent's only outward surface: order placement and
// cancellation intents toward the exchanges, plus the scheduler services the
// simulation host provides. Quantity is always one in this design.
type VenueGateway interface {
	PlaceLimitOrder(ctx context.Context, venue datamodels.Asset, direction datamodels.OrderDirection, quantity int, price float64) error
	CancelOrders(ctx context.Context, venue datamodels.Asset, cancellations []datamodels.OrderCancellation) error
	ScheduleWakeUp(ctx context.Context, delay int64) error
	SubscribeToTrades(ctx context.Context, venue datamodels.Asset) error
}

type placeIntent struct {
	venue     datamodels.Asset
	direction datamodels.OrderDirection
	price     float64
}

type cancelIntent struct {
	venue         datamodels.Asset
	cancellations []datamodels.OrderCancellation
}

// intentBuffer holds the outbound intents of one rebalancing pass so that
// nothing reaches the venue until the pass has committed. An aborted pass
// drops the buffer along with the state rollback.
type intentBuffer struct {
	cancels []cancelIntent
	places  []placeIntent
}

func (b *intentBuffer) addCancel(venue datamodels.Asset, cancellations []datamodels.OrderCancellation) {
	b.cancels = append(b.cancels, cancelIntent{venue: venue, cancellations: cancellations})
}

func (b *intentBuffer) addPlace(venue datamodels.Asset, direction datamodels.OrderDirection, price float64) {
	b.places = append(b.places, placeIntent{venue: venue, direction: direction, price: price})
}

func (b *intentBuffer) flush(ctx context.Context, venue VenueGateway) error {
	for _, c := range b.cancels {
		if err := venue.CancelOrders(ctx, c.venue, c.cancellations); err != nil {
			return err
		}
	}
	for _, p := range b.places {
		if err := venue.PlaceLimitOrder(ctx, p.venue, p.direction, 1, p.price); err != nil {
			return err
		}
	}
	return nil
}
