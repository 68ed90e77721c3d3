package fleet

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"zulaBack/internal/taxi/fsm"
	"zulaBack/internal/taxi/geo"
	"zulaBack/internal/taxi/ledger"
	"zulaBack/internal/taxi/users"
)

var (
	ErrUnknownCab    = errors.New("unknown cab")
	ErrUnknownDriver = errors.New("unknown driver")
	ErrDriverHasCab  = errors.New("driver already operates a cab")
	ErrNoCab         = errors.New("driver has no cab")
)

// LocationSet is the subset of the location graph the registry validates against.
type LocationSet interface {
	Has(key geo.Key) bool
}

// PositionObserver is told about every cab placement and move.
type PositionObserver interface {
	CabPlaced(cabID int64, at geo.Key)
	CabMoved(cabID int64, from, to geo.Key)
}

// Driver operates exactly one cab once onboarded.
type Driver struct {
	ID int64
	users.Profile

	location geo.Key
	flags    fsm.Flags
	cabID    int64
	rides    []ledger.RideID
}

// Location returns where the driver, and their cab, currently is.
func (d *Driver) Location() geo.Key { return d.location }

// Flags returns the driver's availability and rest flags.
func (d *Driver) Flags() fsm.Flags { return d.flags }

// Status names the state the flags describe.
func (d *Driver) Status() string { return fsm.StatusOf(d.flags) }

// Eligible reports whether the driver can take a hail.
func (d *Driver) Eligible() bool { return fsm.Eligible(d.flags) }

// CabID returns the operated cab, or 0 before onboarding.
func (d *Driver) CabID() int64 { return d.cabID }

// Rides returns a copy of the driver's ride ids in order.
func (d *Driver) Rides() []ledger.RideID { return slices.Clone(d.rides) }

// Cab is a vehicle parked at, or last dropped off at, a location.
type Cab struct {
	ID       int64
	DriverID int64

	location geo.Key
	rides    []ledger.RideID
}

// Location returns the cab's current location.
func (c *Cab) Location() geo.Key { return c.location }

// Rides returns a copy of the cab's ride ids in order.
func (c *Cab) Rides() []ledger.RideID { return slices.Clone(c.rides) }

// TotalTrips counts the cab's rides.
func (c *Cab) TotalTrips() int { return len(c.rides) }

// Registry tracks drivers, cabs and the per-location cab index.
//
// A cab id is present in exactly one index list, the one for its location.
// Relocate is the only code path that changes a cab's location.
type Registry struct {
	locations LocationSet
	observer  PositionObserver

	drivers map[int64]*Driver
	cabs    map[int64]*Cab
	index   map[geo.Key][]int64

	nextDriverID int64
	nextCabID    int64
}

// NewRegistry creates a registry validating locations against locs.
func NewRegistry(locs LocationSet) *Registry {
	return &Registry{
		locations: locs,
		drivers:   make(map[int64]*Driver),
		cabs:      make(map[int64]*Cab),
		index:     make(map[geo.Key][]int64),
	}
}

// SetObserver installs a position observer. Nil disables notifications.
func (r *Registry) SetObserver(o PositionObserver) {
	r.observer = o
}

func (r *Registry) resolve(location string) (geo.Key, error) {
	key := geo.Normalize(location)
	if !r.locations.Has(key) {
		return "", fmt.Errorf("%w: %s", geo.ErrUnknownLocation, key)
	}
	return key, nil
}

// RegisterDriver creates an idle driver at location without a cab.
func (r *Registry) RegisterDriver(p users.Profile, location string) (*Driver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key, err := r.resolve(location)
	if err != nil {
		return nil, err
	}
	r.nextDriverID++
	d := &Driver{
		ID:       r.nextDriverID,
		Profile:  p,
		location: key,
		flags:    fsm.Flags{Available: true},
	}
	r.drivers[d.ID] = d
	return d, nil
}

// OnboardCab creates a cab for driverID and parks it at location.
func (r *Registry) OnboardCab(driverID int64, location string) (*Cab, error) {
	key, err := r.resolve(location)
	if err != nil {
		return nil, err
	}
	d, err := r.Driver(driverID)
	if err != nil {
		return nil, err
	}
	if d.cabID != 0 {
		return nil, fmt.Errorf("%w: driver %d has cab %d", ErrDriverHasCab, d.ID, d.cabID)
	}
	r.nextCabID++
	c := &Cab{ID: r.nextCabID, DriverID: d.ID, location: key}
	r.cabs[c.ID] = c
	d.cabID = c.ID
	d.location = key
	r.index[key] = append(r.index[key], c.ID)
	if r.observer != nil {
		r.observer.CabPlaced(c.ID, key)
	}
	return c, nil
}

// CabsAt returns the ids of cabs at location in index order.
func (r *Registry) CabsAt(location geo.Key) []int64 {
	return slices.Clone(r.index[location])
}

// Relocate moves a cab, and its driver, to location.
func (r *Registry) Relocate(cabID int64, location string) error {
	key, err := r.resolve(location)
	if err != nil {
		return err
	}
	c, err := r.Cab(cabID)
	if err != nil {
		return err
	}
	from := c.location
	if from == key {
		return nil
	}
	ids := r.index[from]
	if i := slices.Index(ids, cabID); i >= 0 {
		r.index[from] = slices.Delete(ids, i, i+1)
	}
	c.location = key
	if d, ok := r.drivers[c.DriverID]; ok {
		d.location = key
	}
	r.index[key] = append(r.index[key], cabID)
	if r.observer != nil {
		r.observer.CabMoved(cabID, from, key)
	}
	return nil
}

// Cab returns the cab with id.
func (r *Registry) Cab(id int64) (*Cab, error) {
	c, ok := r.cabs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCab, id)
	}
	return c, nil
}

// Driver returns the driver with id.
func (r *Registry) Driver(id int64) (*Driver, error) {
	d, ok := r.drivers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDriver, id)
	}
	return d, nil
}

// CabOf returns the cab operated by driverID.
func (r *Registry) CabOf(driverID int64) (*Cab, error) {
	d, err := r.Driver(driverID)
	if err != nil {
		return nil, err
	}
	if d.cabID == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoCab, driverID)
	}
	return r.Cab(d.cabID)
}

// Cabs returns every cab ordered by id.
func (r *Registry) Cabs() []*Cab {
	out := make([]*Cab, 0, len(r.cabs))
	for _, c := range r.cabs {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Cab) int { return int(a.ID - b.ID) })
	return out
}

// Drivers returns every driver ordered by id.
func (r *Registry) Drivers() []*Driver {
	out := make([]*Driver, 0, len(r.drivers))
	for _, d := range r.drivers {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *Driver) int { return int(a.ID - b.ID) })
	return out
}

// Occupancy returns a snapshot of cab counts per location. Empty locations are omitted.
func (r *Registry) Occupancy() map[geo.Key]int {
	out := make(map[geo.Key]int, len(r.index))
	for k, ids := range r.index {
		if len(ids) > 0 {
			out[k] = len(ids)
		}
	}
	return out
}

// RecordRide appends ride to the cab's and its driver's history.
func (r *Registry) RecordRide(cabID int64, ride ledger.RideID) error {
	c, err := r.Cab(cabID)
	if err != nil {
		return err
	}
	c.rides = append(c.rides, ride)
	if d, ok := r.drivers[c.DriverID]; ok {
		d.rides = append(d.rides, ride)
	}
	return nil
}

// Transition moves a driver to status using the driver state machine.
func (r *Registry) Transition(driverID int64, status string) error {
	d, err := r.Driver(driverID)
	if err != nil {
		return err
	}
	return fsm.Apply(&d.flags, status)
}

// ResetRestFlags returns every resting driver to idle and reports how many changed.
func (r *Registry) ResetRestFlags() int {
	n := 0
	for _, d := range r.drivers {
		if fsm.Reset(&d.flags) {
			n++
		}
	}
	return n
}
