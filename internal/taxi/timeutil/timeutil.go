package timeutil

import (
	"sync"
	"time"
)

var (
	mu       sync.RWMutex
	location = time.UTC
)

// SetLocation switches the zone used for ride timestamps. Unknown zone names
// fall back to UTC and return the load error.
func SetLocation(name string) error {
	loc := time.UTC
	var err error
	if name != "" {
		loc, err = time.LoadLocation(name)
		if err != nil {
			loc = time.UTC
		}
	}
	mu.Lock()
	location = loc
	mu.Unlock()
	return err
}

// Now returns the current time in the configured zone.
func Now() time.Time {
	return time.Now().In(Location())
}

// In converts t to the configured zone.
func In(t time.Time) time.Time {
	return t.In(Location())
}

// Location returns the configured zone.
func Location() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return location
}
