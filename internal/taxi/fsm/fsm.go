package fsm

import (
	"errors"
	"fmt"
)

// Driver states derived from the available/resting flag pair.
const (
	StatusIdle    = "idle"    // available, not resting
	StatusBusy    = "busy"    // unavailable, resting after a ride
	StatusOffline = "offline" // unavailable, not resting
	StatusCooling = "cooling" // available but still flagged resting
)

// ErrInvalidTransition is returned when a driver cannot move to the requested state.
var ErrInvalidTransition = errors.New("invalid driver state transition")

var transitions = map[string]map[string]struct{}{
	StatusIdle: {
		StatusBusy:    {},
		StatusOffline: {},
	},
	StatusBusy: {
		StatusIdle: {},
	},
	StatusOffline: {
		StatusIdle: {},
	},
	StatusCooling: {
		StatusIdle: {},
	},
}

// Flags is the pair of driver flags the state machine operates on.
type Flags struct {
	Available bool
	Resting   bool
}

// StatusOf maps a flag pair onto its state name.
func StatusOf(f Flags) string {
	switch {
	case f.Available && !f.Resting:
		return StatusIdle
	case !f.Available && f.Resting:
		return StatusBusy
	case !f.Available && !f.Resting:
		return StatusOffline
	default:
		return StatusCooling
	}
}

// FlagsFor returns the flags representing status.
func FlagsFor(status string) (Flags, bool) {
	switch status {
	case StatusIdle:
		return Flags{Available: true}, true
	case StatusBusy:
		return Flags{Resting: true}, true
	case StatusOffline:
		return Flags{}, true
	case StatusCooling:
		return Flags{Available: true, Resting: true}, true
	}
	return Flags{}, false
}

// Eligible reports whether a driver with these flags may be matched to a ride.
func Eligible(f Flags) bool {
	return StatusOf(f) == StatusIdle
}

// CanTransition returns whether a driver can move from the current status to the target status.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Apply validates the transition and writes the target flags.
func Apply(f *Flags, to string) error {
	from := StatusOf(*f)
	next, ok := FlagsFor(to)
	if !ok || !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	*f = next
	return nil
}

// Reset clears the resting flag and makes the driver available again.
// Drivers that are not resting are left untouched; it reports whether anything changed.
func Reset(f *Flags) bool {
	if !f.Resting {
		return false
	}
	f.Resting = false
	f.Available = true
	return true
}
