package dispatch

import (
	"errors"
	"fmt"
	"time"

	"zulaBack/internal/taxi/fleet"
	"zulaBack/internal/taxi/fsm"
	"zulaBack/internal/taxi/geo"
	"zulaBack/internal/taxi/ledger"
	"zulaBack/internal/taxi/pricing"
	"zulaBack/internal/taxi/timeutil"
	"zulaBack/internal/taxi/users"
)

// ErrNoCabAvailable is returned when no eligible cab waits at the pickup location.
var ErrNoCabAvailable = errors.New("no cab available")

// Logger is a minimal logger interface required by the engine.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Config holds required configuration subset.
type Config interface {
	GetFareRate() int
	GetCommissionPercent() int
	GetRebalanceThreshold() int
	GetTickInterval() time.Duration
	GetHailWaitMax() time.Duration
}

// Router computes paths over the location graph.
type Router interface {
	Has(key geo.Key) bool
	ShortestPath(src, dst string) ([]geo.Key, error)
	PathDistance(path []geo.Key) (int, error)
}

// RideNotifier is told about every committed ride.
type RideNotifier interface {
	RideAssigned(ride ledger.Ride)
}

// Quote is a priced route between two locations.
type Quote struct {
	Path       []geo.Key
	Distance   int
	Fare       int
	Commission int
}

// Engine matches hail requests to cabs.
type Engine struct {
	router    Router
	fleet     *fleet.Registry
	customers *users.Customers
	rides     *ledger.Log
	notifier  RideNotifier
	logger    Logger
	cfg       Config
	now       func() time.Time
}

// New creates an engine instance. notifier may be nil.
func New(router Router, fleetReg *fleet.Registry, customers *users.Customers, rides *ledger.Log, notifier RideNotifier, logger Logger, cfg Config) *Engine {
	return &Engine{
		router:    router,
		fleet:     fleetReg,
		customers: customers,
		rides:     rides,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
		now:       timeutil.Now,
	}
}

// Quote prices the shortest route from src to dst without touching fleet state.
func (e *Engine) Quote(src, dst string) (Quote, error) {
	from, to := geo.Normalize(src), geo.Normalize(dst)
	if !e.router.Has(from) {
		return Quote{}, fmt.Errorf("%w: %s", geo.ErrUnknownLocation, from)
	}
	if !e.router.Has(to) {
		return Quote{}, fmt.Errorf("%w: %s", geo.ErrUnknownLocation, to)
	}
	path, err := e.router.ShortestPath(src, dst)
	if err != nil {
		return Quote{}, err
	}
	distance, err := e.router.PathDistance(path)
	if err != nil {
		e.logger.Errorf("dispatch: shortest path %v failed its own distance check: %v", path, err)
		return Quote{}, fmt.Errorf("dispatch: internal route defect: %w", err)
	}
	fare := pricing.Fare(distance, e.cfg.GetFareRate())
	return Quote{
		Path:       path,
		Distance:   distance,
		Fare:       fare,
		Commission: pricing.Commission(fare, e.cfg.GetCommissionPercent()),
	}, nil
}

// HailCab assigns the first eligible cab waiting at src to customerID and drives it to dst.
// Either every piece of state is updated or none is.
func (e *Engine) HailCab(customerID int64, src, dst string) (ledger.Ride, error) {
	if _, err := e.customers.Get(customerID); err != nil {
		return ledger.Ride{}, err
	}
	q, err := e.Quote(src, dst)
	if err != nil {
		return ledger.Ride{}, err
	}
	from, to := q.Path[0], q.Path[len(q.Path)-1]

	cab, driver, ok := e.pick(from)
	if !ok {
		return ledger.Ride{}, fmt.Errorf("%w at %s", ErrNoCabAvailable, from)
	}

	// Relocate validates before it mutates, so it goes first.
	if err := e.fleet.Relocate(cab.ID, string(to)); err != nil {
		return ledger.Ride{}, err
	}
	ride := e.rides.Append(ledger.Ride{
		Source:      from,
		Destination: to,
		CabID:       cab.ID,
		DriverID:    driver.ID,
		CustomerID:  customerID,
		Distance:    q.Distance,
		Fare:        q.Fare,
		Commission:  q.Commission,
		Path:        q.Path,
		CreatedAt:   e.now(),
	})
	if err := e.fleet.RecordRide(cab.ID, ride.ID); err != nil {
		return ledger.Ride{}, err
	}
	if err := e.customers.RecordRide(customerID, ride.ID); err != nil {
		return ledger.Ride{}, err
	}
	if err := e.fleet.Transition(driver.ID, fsm.StatusBusy); err != nil {
		return ledger.Ride{}, err
	}

	e.logger.Infof("dispatch: ride %d cab=%d driver=%d customer=%d %s->%s distance=%d fare=%d",
		ride.ID, cab.ID, driver.ID, customerID, from, to, q.Distance, q.Fare)
	if e.notifier != nil {
		e.notifier.RideAssigned(ride)
	}
	return ride, nil
}

func (e *Engine) pick(at geo.Key) (*fleet.Cab, *fleet.Driver, bool) {
	for _, id := range e.fleet.CabsAt(at) {
		cab, err := e.fleet.Cab(id)
		if err != nil {
			continue
		}
		driver, err := e.fleet.Driver(cab.DriverID)
		if err != nil {
			continue
		}
		if driver.Eligible() {
			return cab, driver, true
		}
	}
	return nil, nil, false
}

// ResetRestFlags returns every resting driver to idle.
func (e *Engine) ResetRestFlags() int {
	n := e.fleet.ResetRestFlags()
	if n > 0 {
		e.logger.Infof("dispatch: %d drivers back from rest", n)
	}
	return n
}

// ConfigAdapter allows TaxiConfig to satisfy Config interface.
type ConfigAdapter struct {
	FareRate           int
	CommissionPercent  int
	RebalanceThreshold int
	TickInterval       time.Duration
	HailWaitMax        time.Duration
}

func (c ConfigAdapter) GetFareRate() int               { return c.FareRate }
func (c ConfigAdapter) GetCommissionPercent() int      { return c.CommissionPercent }
func (c ConfigAdapter) GetRebalanceThreshold() int     { return c.RebalanceThreshold }
func (c ConfigAdapter) GetTickInterval() time.Duration { return c.TickInterval }
func (c ConfigAdapter) GetHailWaitMax() time.Duration  { return c.HailWaitMax }
