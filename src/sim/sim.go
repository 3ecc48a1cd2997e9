package sim

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"mvagent/src/agent"
	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

// Simulation drives one agent through a seeded discrete-event market run.
// Each market tick moves every asset's price by a log-normal step, publishes
// a trade for subscribed venues, and fills any agent orders the new price
// crossed. Everything is delivered on one goroutine in timestamp order, so a
// given seed always replays the same run.
type Simulation struct {
	scheduler  *scheduler
	venue      *SimulatedVenue
	dispatcher *agent.EventDispatcher

	marketPrices map[datamodels.Asset]float64
	duration     int64
	seed         int64
	tickInterval int64
	latency      int64
	volatility   float64

	rng *rand.Rand
	now int64
}

func NewSimulation() *Simulation {
	return &Simulation{
		marketPrices: make(map[datamodels.Asset]float64),
		tickInterval: 1,
		latency:      1,
		volatility:   0.01,
	}
}

func (s *Simulation) WithDispatcher(dispatcher *agent.EventDispatcher) *Simulation {
	s.dispatcher = dispatcher
	return s
}

func (s *Simulation) WithMarket(venue datamodels.Asset, initialPrice float64) *Simulation {
	s.marketPrices[venue] = initialPrice
	return s
}

func (s *Simulation) WithDuration(duration int64) *Simulation {
	s.duration = duration
	return s
}

func (s *Simulation) WithSeed(seed int64) *Simulation {
	s.seed = seed
	return s
}

func (s *Simulation) WithTickInterval(tickInterval int64) *Simulation {
	s.tickInterval = tickInterval
	return s
}

func (s *Simulation) WithVolatility(volatility float64) *Simulation {
	s.volatility = volatility
	return s
}

// Build validates the market setup. The dispatcher may be attached after
// Build, since the agent itself needs the venue gateway to construct.
func (s *Simulation) Build() (*Simulation, error) {
	if len(s.marketPrices) == 0 {
		return nil, errors.New("simulation needs at least one market")
	}
	for venue, price := range s.marketPrices {
		if price <= 0 {
			return nil, errors.Newf("non-positive initial market price %f for %s", price, venue)
		}
	}
	if s.duration <= 0 {
		return nil, errors.Newf("duration must be positive, got %d", s.duration)
	}
	if s.tickInterval <= 0 {
		return nil, errors.Newf("tick interval must be positive, got %d", s.tickInterval)
	}
	s.scheduler = newScheduler()
	s.venue = newSimulatedVenue(s)
	s.rng = rand.New(rand.NewSource(s.seed))
	return s, nil
}

// Venue is the gateway to hand to the agent before running.
func (s *Simulation) Venue() agent.VenueGateway {
	return s.venue
}

// Run plays the simulation from time zero through the configured duration and
// delivers the terminal stop event.
func (s *Simulation) Run(ctx context.Context) error {
	if s.dispatcher == nil {
		return errors.New("simulation needs an event dispatcher before running")
	}
	slog.Info("Starting simulation",
		"duration", s.duration, "seed", s.seed, "markets", len(s.marketPrices))

	s.scheduler.schedule(s.tickInterval, s.marketTick)

	if err := s.dispatcher.HandleEvent(ctx, datamodels.SimulationStartEvent{Timestamp: 0}); err != nil {
		return errors.WrapE(errors.New("agent failed on simulation start"), err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, ok := s.scheduler.next()
		if !ok || item.timestamp > s.duration {
			break
		}
		s.now = item.timestamp
		if err := item.deliver(ctx); err != nil {
			return errors.Wrapf(err, "simulation halted at t=%d", s.now)
		}
	}

	s.now = s.duration
	if err := s.dispatcher.HandleEvent(ctx, datamodels.SimulationStopEvent{Timestamp: s.duration}); err != nil {
		return errors.WrapE(errors.New("agent failed on simulation stop"), err)
	}

	slog.Info("Simulation complete", "duration", s.duration)
	return nil
}

// marketTick advances every market one step and reschedules itself.
func (s *Simulation) marketTick(ctx context.Context) error {
	tickTime := s.now

	for _, venue := range s.sortedVenues() {
		price := s.marketPrices[venue]
		newPrice := price * math.Exp(s.volatility*s.rng.NormFloat64())
		s.marketPrices[venue] = newPrice

		if s.venue.subscribed[venue] {
			s.venue.nextMarketID += 2
			err := s.dispatcher.HandleEvent(ctx, datamodels.TradeEvent{
				Timestamp:         tickTime,
				Venue:             venue,
				AggressingOrderID: s.venue.nextMarketID - 1,
				RestingOrderID:    s.venue.nextMarketID,
				Price:             newPrice,
				Quantity:          1,
			})
			if err != nil {
				return err
			}
		}

		if err := s.venue.matchRestingOrders(ctx, venue, newPrice, tickTime); err != nil {
			return err
		}
	}

	nextTick := tickTime + s.tickInterval
	if nextTick <= s.duration {
		s.scheduler.schedule(nextTick, s.marketTick)
	}
	return nil
}

func (s *Simulation) sortedVenues() []datamodels.Asset {
	venues := make([]datamodels.Asset, 0, len(s.marketPrices))
	for venue := range s.marketPrices {
		venues = append(venues, venue)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })
	return venues
}
