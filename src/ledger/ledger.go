package ledger

import (
	"log/slog"
	"sort"

	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

// OrderKey is the identity of an order at a venue.
type OrderKey struct {
	OrderID int64
	Venue   datamodels.Asset
}

// Order is one outstanding single-unit limit order. Orders are owned by the
// Ledger from submission until fill or cancellation; nothing else mutates
// them.
type Order struct {
	Key         OrderKey
	Direction   datamodels.OrderDirection
	Price       float64
	SubmittedAt int64
}

// Ledger tracks every order the agent believes is live at a venue. An entry
// leaves exactly once: on fill resolution or on the stale sweep, never both.
// Orders placed but not yet id-confirmed by the venue sit in the pending list
// until their acceptance arrives.
type Ledger struct {
	outstanding map[OrderKey]Order
	pending     []Order
}

// SweepResult is what a stale sweep hands back to the caller: cancel intents
// for the venues, the buy-side capital to put back in the allocated bucket,
// and the per-venue believed-price adjustments.
type SweepResult struct {
	Cancels      map[datamodels.Asset][]datamodels.OrderCancellation
	ReleasedCash float64
	Reprices     map[datamodels.Asset]float64
}

func NewLedger() *Ledger {
	return &Ledger{
		outstanding: make(map[OrderKey]Order),
	}
}

// Submit records a freshly placed order that has no venue id yet.
func (l *Ledger) Submit(venue datamodels.Asset, direction datamodels.OrderDirection, price float64, timestamp int64) {
	l.pending = append(l.pending, Order{
		Key:         OrderKey{Venue: venue},
		Direction:   direction,
		Price:       price,
		SubmittedAt: timestamp,
	})
}

// MarkAccepted attaches the venue-assigned id to a pending submission and
// promotes it to outstanding. A duplicate acceptance for a known identity is
// an anomaly worth logging but not a failure. An acceptance with no matching
// live submission is stale: the submission was swept (and its buy reserve
// released) before the venue confirmed it. Tracking it again would hand the
// next sweep the same reserve a second time, so the ledger refuses it and
// returns false; the caller owns cancelling the orphaned order at the venue.
// The price is part of the match so a repriced resubmission on the same venue
// cannot absorb a stale acceptance.
func (l *Ledger) MarkAccepted(orderID int64, venue datamodels.Asset, direction datamodels.OrderDirection, price float64, timestamp int64) bool {
	key := OrderKey{OrderID: orderID, Venue: venue}
	if _, exists := l.outstanding[key]; exists {
		slog.Warn("Duplicate order acceptance ignored", "order_id", orderID, "venue", venue)
		return true
	}

	for i, p := range l.pending {
		if p.Key.Venue == venue && p.Direction == direction && p.Price == price {
			p.Key = key
			l.outstanding[key] = p
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			return true
		}
	}

	slog.Warn("Stale order acceptance, submission already swept",
		"order_id", orderID, "venue", venue, "timestamp", timestamp)
	return false
}

// Resolve matches a trade against the ledger by either the aggressing or the
// resting identity and removes the matched order. ErrUnknownOrder means the
// trade belongs to another agent and is only a price observation.
func (l *Ledger) Resolve(aggressingID, restingID int64, venue datamodels.Asset) (Order, error) {
	for _, id := range []int64{aggressingID, restingID} {
		key := OrderKey{OrderID: id, Venue: venue}
		if order, ok := l.outstanding[key]; ok {
			delete(l.outstanding, key)
			return order, nil
		}
	}
	return Order{}, errors.Wrapf(errors.ErrUnknownOrder,
		"trade (%d/%d) on %s matches no outstanding order", aggressingID, restingID, venue)
}

// OutstandingCount counts id-confirmed orders.
func (l *Ledger) OutstandingCount() int { return len(l.outstanding) }

// PendingCount counts submissions awaiting venue confirmation.
func (l *Ledger) PendingCount() int { return len(l.pending) }

// CancelAllStale empties the ledger. Every outstanding order gets a cancel
// intent; every buy releases its reserved price; prices are nudged by the
// step rate — bids upward ("no one took my bid, raise it"), asks downward,
// floored at a positive price. The sweep deliberately cancels everything each
// pass instead of tracking per-order expiry.
func (l *Ledger) CancelAllStale(stepRate float64) SweepResult {
	result := SweepResult{
		Cancels:  make(map[datamodels.Asset][]datamodels.OrderCancellation),
		Reprices: make(map[datamodels.Asset]float64),
	}

	keys := make([]OrderKey, 0, len(l.outstanding))
	for key := range l.outstanding {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Venue != keys[j].Venue {
			return keys[i].Venue < keys[j].Venue
		}
		return keys[i].OrderID < keys[j].OrderID
	})

	for _, key := range keys {
		order := l.outstanding[key]
		result.Cancels[key.Venue] = append(result.Cancels[key.Venue],
			datamodels.OrderCancellation{OrderID: key.OrderID, Quantity: 1})
		l.applyReprice(order, stepRate, &result)
	}
	for _, order := range l.pending {
		// never confirmed, so nothing to cancel at the venue
		l.applyReprice(order, stepRate, &result)
	}

	l.outstanding = make(map[OrderKey]Order)
	l.pending = nil
	return result
}

func (l *Ledger) applyReprice(order Order, stepRate float64, result *SweepResult) {
	switch order.Direction {
	case datamodels.OrderDirectionBuy:
		result.ReleasedCash += order.Price
		result.Reprices[order.Key.Venue] = stepRate * order.Price
	case datamodels.OrderDirectionSell:
		newPrice := (2 - stepRate) * order.Price
		if newPrice > 0 {
			result.Reprices[order.Key.Venue] = newPrice
		}
	}
}

// Snapshot deep-copies the ledger for pass-level rollback.
func (l *Ledger) Snapshot() *Ledger {
	snap := NewLedger()
	for key, order := range l.outstanding {
		snap.outstanding[key] = order
	}
	snap.pending = make([]Order, len(l.pending))
	copy(snap.pending, l.pending)
	return snap
}

// Restore replaces the ledger contents with a snapshot's.
func (l *Ledger) Restore(snap *Ledger) {
	l.outstanding = make(map[OrderKey]Order, len(snap.outstanding))
	for key, order := range snap.outstanding {
		l.outstanding[key] = order
	}
	l.pending = make([]Order, len(snap.pending))
	copy(l.pending, snap.pending)
}
