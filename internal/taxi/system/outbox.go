package system

import "zulaBack/internal/taxi/ledger"

// outbox queues events raised while System.mu is held. System.unlock drains it.
type outbox struct {
	target Notifier
	events []func()
}

func (o *outbox) RideAssigned(ride ledger.Ride) {
	if o.target == nil {
		return
	}
	o.events = append(o.events, func() { o.target.RideAssigned(ride) })
}

func (o *outbox) FleetMaintained(kind string, count int) {
	if o.target == nil {
		return
	}
	o.events = append(o.events, func() { o.target.FleetMaintained(kind, count) })
}

func (o *outbox) take() []func() {
	events := o.events
	o.events = nil
	return events
}
