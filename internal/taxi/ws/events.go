package ws

import (
	"zulaBack/internal/taxi/ledger"
)

// Event types pushed to clients.
const (
	EventRideAssigned = "ride_assigned"
	EventRestReset    = "rest_reset"
	EventRebalanced   = "rebalanced"
)

// RideEvent tells a customer or a driver about a committed ride.
type RideEvent struct {
	Type string      `json:"type"`
	Ride ledger.Ride `json:"ride"`
}

// FleetEvent tells drivers about a maintenance pass.
type FleetEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Notifier fans ride and maintenance events out to the customer and driver hubs.
type Notifier struct {
	Customers *Hub
	Drivers   *Hub
}

// RideAssigned pushes the ride to its customer and its driver.
func (n *Notifier) RideAssigned(ride ledger.Ride) {
	ev := RideEvent{Type: EventRideAssigned, Ride: ride}
	if n.Customers != nil {
		n.Customers.Push(ride.CustomerID, ev)
	}
	if n.Drivers != nil {
		n.Drivers.Push(ride.DriverID, ev)
	}
}

// FleetMaintained broadcasts a maintenance result to all drivers.
func (n *Notifier) FleetMaintained(kind string, count int) {
	if n.Drivers == nil || count == 0 {
		return
	}
	n.Drivers.Broadcast(FleetEvent{Type: kind, Count: count})
}
