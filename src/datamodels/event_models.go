package datamodels

/*
Inbound events form a small closed set per simulation message kind. Handlers
switch on the concrete type; anything else is a contract violation from the
host scheduler. Timestamps are the scheduler's discrete simulation clock, not
wall time.
*/

// Event is implemented by every inbound simulation event.
type Event interface {
	EventTimestamp() int64
}

// SimulationStartEvent is delivered exactly once, before any other event.
type SimulationStartEvent struct {
	Timestamp int64
}

func (e SimulationStartEvent) EventTimestamp() int64 { return e.Timestamp }

// OrderAcceptedEvent confirms a previously placed limit order: the venue has
// assigned it an id and is resting it on the book.
type OrderAcceptedEvent struct {
	Timestamp int64
	Venue     Asset
	OrderID   int64
	Direction OrderDirection
	Price     float64
}

func (e OrderAcceptedEvent) EventTimestamp() int64 { return e.Timestamp }

// TradeEvent is broadcast to every subscriber of the venue whenever two orders
// cross there. The receiving agent may own either side, or neither.
type TradeEvent struct {
	Timestamp         int64
	Venue             Asset
	AggressingOrderID int64
	RestingOrderID    int64
	Price             float64
	Quantity          int
}

func (e TradeEvent) EventTimestamp() int64 { return e.Timestamp }

// WakeUpEvent is the agent's own refresh timer coming due.
type WakeUpEvent struct {
	Timestamp int64
}

func (e WakeUpEvent) EventTimestamp() int64 { return e.Timestamp }

// SimulationStopEvent is delivered exactly once; no event follows it.
type SimulationStopEvent struct {
	Timestamp int64
}

func (e SimulationStopEvent) EventTimestamp() int64 { return e.Timestamp }

// OrderCancellation identifies one resting order to pull from a venue.
type OrderCancellation struct {
	OrderID  int64
	Quantity int
}
