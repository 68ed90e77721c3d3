package system

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"zulaBack/internal/taxi/dispatch"
	"zulaBack/internal/taxi/fleet"
	"zulaBack/internal/taxi/fsm"
	"zulaBack/internal/taxi/geo"
	"zulaBack/internal/taxi/ledger"
	"zulaBack/internal/taxi/rebalance"
	"zulaBack/internal/taxi/report"
	"zulaBack/internal/taxi/users"
)

// Maintenance kinds passed to Notifier.FleetMaintained.
const (
	MaintenanceRestReset  = "rest_reset"
	MaintenanceRebalanced = "rebalanced"
)

// Notifier receives ride and maintenance events.
type Notifier interface {
	dispatch.RideNotifier
	FleetMaintained(kind string, count int)
}

// Options configures a System.
type Options struct {
	Config   dispatch.Config
	Logger   dispatch.Logger
	Notifier Notifier
	Observer fleet.PositionObserver
}

// TickResult reports one maintenance pass.
type TickResult struct {
	Reset int              `json:"reset"`
	Moves []rebalance.Move `json:"moves"`
}

// System wires the dispatch components together and serialises access to them.
// Every exported method takes the same lock. Notifications are delivered after it
// is released.
type System struct {
	mu sync.Mutex

	graph     *geo.Graph
	fleet     *fleet.Registry
	customers *users.Customers
	admins    *users.Admins
	rides     *ledger.Log
	engine    *dispatch.Engine
	policy    *rebalance.Policy
	reporter  *report.Reporter
	outbox    *outbox
	logger    dispatch.Logger
	cfg       dispatch.Config

	// changed is closed and replaced whenever cabs may have become available.
	changed chan struct{}
}

// New creates an empty system.
func New(opts Options) *System {
	g := geo.NewGraph()
	reg := fleet.NewRegistry(g)
	if opts.Observer != nil {
		reg.SetObserver(opts.Observer)
	}
	customers := users.NewCustomers()
	admins := users.NewAdmins()
	rides := ledger.NewLog()
	out := &outbox{target: opts.Notifier}

	return &System{
		graph:     g,
		fleet:     reg,
		customers: customers,
		admins:    admins,
		rides:     rides,
		engine:    dispatch.New(g, reg, customers, rides, out, opts.Logger, opts.Config),
		policy:    rebalance.New(reg, g, opts.Logger, opts.Config.GetRebalanceThreshold()),
		reporter:  report.New(reg, customers, admins, rides, opts.Config.GetCommissionPercent()),
		outbox:    out,
		logger:    opts.Logger,
		cfg:       opts.Config,
		changed:   make(chan struct{}),
	}
}

// unlock releases s.mu, then delivers the events raised while it was held.
func (s *System) unlock() {
	events := s.outbox.take()
	s.mu.Unlock()
	for _, deliver := range events {
		deliver()
	}
}

// signal wakes every waiting HailWithin. Callers hold s.mu.
func (s *System) signal() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// SetTargetSelector replaces the rebalance target policy.
func (s *System) SetTargetSelector(sel rebalance.TargetSelector) {
	s.mu.Lock()
	defer s.unlock()
	s.policy.Selector = sel
}

// AddLocation registers a location.
func (s *System) AddLocation(name string, distance int) (geo.Key, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.graph.AddLocation(name, distance)
}

// ConnectLocations adds a symmetric road.
func (s *System) ConnectLocations(a, b string, weight int) error {
	s.mu.Lock()
	defer s.unlock()
	return s.graph.Connect(a, b, weight)
}

// Locations lists registered locations with their current cab counts.
func (s *System) Locations() []LocationView {
	s.mu.Lock()
	defer s.unlock()
	occ := s.fleet.Occupancy()
	keys := s.graph.Locations()
	out := make([]LocationView, 0, len(keys))
	for _, k := range keys {
		loc, _ := s.graph.Location(string(k))
		out = append(out, LocationView{Name: k, Distance: loc.Distance, Cabs: occ[k]})
	}
	return out
}

// Route quotes the shortest path between two locations without booking anything.
func (s *System) Route(src, dst string) (dispatch.Quote, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.engine.Quote(src, dst)
}

// Signup registers an account for role. Drivers that give a location also get a cab there.
func (s *System) Signup(req SignupRequest) (Account, error) {
	s.mu.Lock()
	defer s.unlock()

	switch req.Role {
	case users.RoleCustomer:
		c, err := s.customers.Register(req.Profile)
		if err != nil {
			return Account{}, err
		}
		return customerAccount(c), nil
	case users.RoleAdmin:
		a, err := s.admins.Register(req.Profile)
		if err != nil {
			return Account{}, err
		}
		return adminAccount(a), nil
	case users.RoleDriver:
		if req.Location == "" {
			return Account{}, fmt.Errorf("%w: drivers need a starting location", geo.ErrUnknownLocation)
		}
		// Validate before allocating so a bad location leaves no driver behind.
		if !s.graph.Has(geo.Normalize(req.Location)) {
			return Account{}, fmt.Errorf("%w: %s", geo.ErrUnknownLocation, geo.Normalize(req.Location))
		}
		d, err := s.fleet.RegisterDriver(req.Profile, req.Location)
		if err != nil {
			return Account{}, err
		}
		if !req.SkipCab {
			if _, err := s.fleet.OnboardCab(d.ID, req.Location); err != nil {
				return Account{}, err
			}
			s.signal()
		}
		return driverAccount(d), nil
	}
	return Account{}, fmt.Errorf("%w: %q", users.ErrUnknownRole, req.Role)
}

// OnboardCab gives an existing driver a cab at location.
func (s *System) OnboardCab(driverID int64, location string) (CabView, error) {
	s.mu.Lock()
	defer s.unlock()
	c, err := s.fleet.OnboardCab(driverID, location)
	if err != nil {
		return CabView{}, err
	}
	s.signal()
	return cabView(c), nil
}

// HailCab books the first eligible cab at src for a trip to dst.
func (s *System) HailCab(customerID int64, src, dst string) (ledger.Ride, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.engine.HailCab(customerID, src, dst)
}

// HailWithin retries HailCab while no cab is available, waking only when the fleet
// changes, until ctx is done. Any error other than ErrNoCabAvailable returns at once.
func (s *System) HailWithin(ctx context.Context, customerID int64, src, dst string) (ledger.Ride, error) {
	for {
		s.mu.Lock()
		ride, err := s.engine.HailCab(customerID, src, dst)
		wake := s.changed
		s.unlock()

		if err == nil || !isNoCab(err) {
			return ride, err
		}
		select {
		case <-ctx.Done():
			s.logger.Infof("system: customer %d gave up waiting at %s: %v", customerID, geo.Normalize(src), ctx.Err())
			return ledger.Ride{}, fmt.Errorf("%w (gave up: %v)", err, ctx.Err())
		case <-wake:
		}
	}
}

// ResetRestFlags returns every resting driver to idle.
func (s *System) ResetRestFlags() int {
	s.mu.Lock()
	defer s.unlock()
	return s.resetLocked()
}

func (s *System) resetLocked() int {
	n := s.engine.ResetRestFlags()
	if n > 0 {
		s.signal()
		s.outbox.FleetMaintained(MaintenanceRestReset, n)
	}
	return n
}

// Rebalance moves excess cabs away from crowded locations.
func (s *System) Rebalance() ([]rebalance.Move, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.rebalanceLocked()
}

func (s *System) rebalanceLocked() ([]rebalance.Move, error) {
	moves, err := s.policy.Rebalance()
	if len(moves) > 0 {
		s.signal()
		s.outbox.FleetMaintained(MaintenanceRebalanced, len(moves))
	}
	return moves, err
}

// Tick runs one maintenance round: rest reset, then rebalancing.
func (s *System) Tick() (TickResult, error) {
	s.mu.Lock()
	defer s.unlock()
	res := TickResult{Reset: s.resetLocked()}
	moves, err := s.rebalanceLocked()
	res.Moves = moves
	return res, err
}

// SetDriverAvailability takes a driver offline or brings them back to idle.
func (s *System) SetDriverAvailability(driverID int64, available bool) (DriverView, error) {
	s.mu.Lock()
	defer s.unlock()
	target := fsm.StatusOffline
	if available {
		target = fsm.StatusIdle
	}
	if err := s.fleet.Transition(driverID, target); err != nil {
		return DriverView{}, err
	}
	d, err := s.fleet.Driver(driverID)
	if err != nil {
		return DriverView{}, err
	}
	if available {
		s.signal()
	}
	return driverView(d), nil
}

// Driver returns a driver snapshot.
func (s *System) Driver(id int64) (DriverView, error) {
	s.mu.Lock()
	defer s.unlock()
	d, err := s.fleet.Driver(id)
	if err != nil {
		return DriverView{}, err
	}
	return driverView(d), nil
}

// Cabs returns every cab in id order.
func (s *System) Cabs() []CabView {
	s.mu.Lock()
	defer s.unlock()
	cabs := s.fleet.Cabs()
	out := make([]CabView, 0, len(cabs))
	for _, c := range cabs {
		out = append(out, cabView(c))
	}
	return out
}

// Positions maps cab ids onto their current location.
func (s *System) Positions() ([]geo.Key, map[int64]geo.Key) {
	s.mu.Lock()
	defer s.unlock()
	out := make(map[int64]geo.Key)
	for _, c := range s.fleet.Cabs() {
		out[c.ID] = c.Location()
	}
	return s.graph.Locations(), out
}

// CustomerHistory returns a customer's rides.
func (s *System) CustomerHistory(customerID int64) ([]ledger.Ride, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.reporter.CustomerHistory(customerID)
}

// RidesWithCommission returns the commission view for an admin or driver.
func (s *System) RidesWithCommission(role users.Role, id int64) ([]ledger.Ride, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.reporter.RidesWithCommission(role, id)
}

// FleetSummary aggregates every cab's history.
func (s *System) FleetSummary() (report.FleetSummary, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.reporter.FleetSummary()
}

// DriverEarnings sums a driver's share of their fares.
func (s *System) DriverEarnings(driverID int64) (report.Earnings, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.reporter.DriverEarnings(driverID)
}

func isNoCab(err error) bool {
	return errors.Is(err, dispatch.ErrNoCabAvailable)
}
