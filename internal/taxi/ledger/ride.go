package ledger

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	"zulaBack/internal/taxi/geo"
)

// ErrUnknownRide is returned for ride ids that were never appended.
var ErrUnknownRide = errors.New("unknown ride")

// RideID identifies a ride within a Log.
type RideID int64

// Ride is an immutable record of a completed hail.
type Ride struct {
	ID          RideID    `json:"id"`
	Source      geo.Key   `json:"source"`
	Destination geo.Key   `json:"destination"`
	CabID       int64     `json:"cab_id"`
	DriverID    int64     `json:"driver_id"`
	CustomerID  int64     `json:"customer_id"`
	Distance    int       `json:"distance"`
	Fare        int       `json:"fare"`
	Commission  int       `json:"commission"`
	Path        []geo.Key `json:"path"`
	CreatedAt   time.Time `json:"created_at"`
}

// DriverShare is the part of the fare kept by the driver.
func (r Ride) DriverShare() int {
	return r.Fare - r.Commission
}

func (r Ride) clone() Ride {
	r.Path = slices.Clone(r.Path)
	return r
}

// Log is the append-only audit trail of rides. Cabs, drivers and customers
// keep RideIDs pointing into it.
type Log struct {
	rides []Ride
}

// NewLog creates an empty ride log.
func NewLog() *Log {
	return &Log{}
}

// Append stores r under the next id and returns the stored copy.
func (l *Log) Append(r Ride) Ride {
	r.ID = RideID(len(l.rides) + 1)
	r = r.clone()
	l.rides = append(l.rides, r)
	return r.clone()
}

// Get returns a copy of the ride with the given id.
func (l *Log) Get(id RideID) (Ride, error) {
	if id < 1 || int(id) > len(l.rides) {
		return Ride{}, fmt.Errorf("%w: %d", ErrUnknownRide, id)
	}
	return l.rides[id-1].clone(), nil
}

// Resolve maps ids onto rides, preserving order.
func (l *Log) Resolve(ids []RideID) ([]Ride, error) {
	out := make([]Ride, 0, len(ids))
	for _, id := range ids {
		r, err := l.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Len returns the number of rides recorded.
func (l *Log) Len() int { return len(l.rides) }

// All returns every ride in creation order.
func (l *Log) All() []Ride {
	out := make([]Ride, 0, len(l.rides))
	for _, r := range l.rides {
		out = append(out, r.clone())
	}
	return out
}

// TotalFare folds fares over rides.
func TotalFare(rides []Ride) int {
	total := 0
	for _, r := range rides {
		total += r.Fare
	}
	return total
}

// TotalDriverShare folds driver shares over rides.
func TotalDriverShare(rides []Ride) int {
	total := 0
	for _, r := range rides {
		total += r.DriverShare()
	}
	return total
}
