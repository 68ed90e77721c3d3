package report

import (
	"errors"
	"fmt"

	"zulaBack/internal/taxi/fleet"
	"zulaBack/internal/taxi/ledger"
	"zulaBack/internal/taxi/pricing"
	"zulaBack/internal/taxi/users"
)

// ErrForbidden is returned when a role asks for a view it may not see.
var ErrForbidden = errors.New("forbidden")

// CabSummary aggregates one cab's rides.
type CabSummary struct {
	CabID      int64         `json:"cab_id"`
	DriverID   int64         `json:"driver_id"`
	DriverName string        `json:"driver_name"`
	Location   string        `json:"location"`
	Trips      int           `json:"total_trips"`
	TotalFare  int           `json:"total_fare"`
	Commission int           `json:"commission"`
	Rides      []SummaryRide `json:"rides"`
}

// SummaryRide is a ride itemised under its cab.
type SummaryRide struct {
	ledger.Ride
	CustomerName string `json:"customer_name"`
}

// FleetSummary is the admin view of every cab.
type FleetSummary struct {
	Cabs       []CabSummary `json:"cabs"`
	TotalTrips int          `json:"total_trips"`
	TotalFare  int          `json:"total_fare"`
	Commission int          `json:"commission"`
}

// Earnings is a driver's own summary.
type Earnings struct {
	DriverID   int64 `json:"driver_id"`
	Trips      int   `json:"total_trips"`
	TotalFare  int   `json:"total_fare"`
	Commission int   `json:"commission"`
	Earned     int   `json:"earned"`
}

// Reporter builds read-only projections over the ride log. Nothing here mutates state.
type Reporter struct {
	fleet             *fleet.Registry
	customers         *users.Customers
	admins            *users.Admins
	rides             *ledger.Log
	commissionPercent int
}

// New creates a reporter. commissionPercent is used for the implied per-cab commission.
func New(fleetReg *fleet.Registry, customers *users.Customers, admins *users.Admins, rides *ledger.Log, commissionPercent int) *Reporter {
	return &Reporter{
		fleet:             fleetReg,
		customers:         customers,
		admins:            admins,
		rides:             rides,
		commissionPercent: commissionPercent,
	}
}

// CustomerHistory returns the customer's rides in booking order.
func (r *Reporter) CustomerHistory(customerID int64) ([]ledger.Ride, error) {
	c, err := r.customers.Get(customerID)
	if err != nil {
		return nil, err
	}
	return r.rides.Resolve(c.Rides())
}

// RidesWithCommission returns the commission view for role. Admins see every cab's
// rides in cab id order, drivers see their own, customers are refused.
func (r *Reporter) RidesWithCommission(role users.Role, id int64) ([]ledger.Ride, error) {
	switch role {
	case users.RoleAdmin:
		if _, err := r.admins.Get(id); err != nil {
			return nil, err
		}
		var out []ledger.Ride
		for _, cab := range r.fleet.Cabs() {
			rides, err := r.rides.Resolve(cab.Rides())
			if err != nil {
				return nil, err
			}
			out = append(out, rides...)
		}
		return out, nil
	case users.RoleDriver:
		d, err := r.fleet.Driver(id)
		if err != nil {
			return nil, err
		}
		return r.rides.Resolve(d.Rides())
	case users.RoleCustomer:
		return nil, fmt.Errorf("%w: customers cannot view commission", ErrForbidden)
	}
	return nil, fmt.Errorf("%w: %q", users.ErrUnknownRole, role)
}

// FleetSummary folds every cab's history. Commission is implied from the total fare.
func (r *Reporter) FleetSummary() (FleetSummary, error) {
	var out FleetSummary
	for _, cab := range r.fleet.Cabs() {
		rides, err := r.rides.Resolve(cab.Rides())
		if err != nil {
			return FleetSummary{}, err
		}
		cs := CabSummary{
			CabID:     cab.ID,
			DriverID:  cab.DriverID,
			Location:  string(cab.Location()),
			Trips:     len(rides),
			TotalFare: ledger.TotalFare(rides),
			Rides:     make([]SummaryRide, 0, len(rides)),
		}
		if d, err := r.fleet.Driver(cab.DriverID); err == nil {
			cs.DriverName = d.Name
		}
		cs.Commission = pricing.Commission(cs.TotalFare, r.commissionPercent)
		for _, ride := range rides {
			sr := SummaryRide{Ride: ride}
			if c, err := r.customers.Get(ride.CustomerID); err == nil {
				sr.CustomerName = c.Name
			}
			cs.Rides = append(cs.Rides, sr)
		}
		out.Cabs = append(out.Cabs, cs)
		out.TotalTrips += cs.Trips
		out.TotalFare += cs.TotalFare
		out.Commission += cs.Commission
	}
	return out, nil
}

// DriverEarnings sums what a driver kept after commission.
func (r *Reporter) DriverEarnings(driverID int64) (Earnings, error) {
	d, err := r.fleet.Driver(driverID)
	if err != nil {
		return Earnings{}, err
	}
	rides, err := r.rides.Resolve(d.Rides())
	if err != nil {
		return Earnings{}, err
	}
	e := Earnings{
		DriverID:  d.ID,
		Trips:     len(rides),
		TotalFare: ledger.TotalFare(rides),
		Earned:    ledger.TotalDriverShare(rides),
	}
	e.Commission = e.TotalFare - e.Earned
	return e, nil
}
