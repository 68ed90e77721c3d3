package rebalance

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"zulaBack/internal/taxi/fleet"
	"zulaBack/internal/taxi/geo"
)

// DefaultThreshold is the number of cabs a location keeps before the excess is moved.
const DefaultThreshold = 2

// ErrNoTarget is returned by a selector that cannot find a location to move cabs to.
// Rebalance skips the source location when it sees it.
var ErrNoTarget = errors.New("no rebalance target")

// Logger is a minimal logger interface required by the policy.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Fleet is the part of the registry the policy reads and relocates through.
type Fleet interface {
	Occupancy() map[geo.Key]int
	CabsAt(location geo.Key) []int64
	Relocate(cabID int64, location string) error
}

// Locations lists registered locations.
type Locations interface {
	Locations() []geo.Key
}

// TargetSelector picks the location an excess cab at from should move to.
type TargetSelector interface {
	Target(from geo.Key, locations []geo.Key, occupancy map[geo.Key]int) (geo.Key, error)
}

// TargetFunc adapts a function to TargetSelector.
type TargetFunc func(from geo.Key, locations []geo.Key, occupancy map[geo.Key]int) (geo.Key, error)

// Target calls f.
func (f TargetFunc) Target(from geo.Key, locations []geo.Key, occupancy map[geo.Key]int) (geo.Key, error) {
	return f(from, locations, occupancy)
}

// LexicographicTarget picks the smallest registered key other than the source.
type LexicographicTarget struct{}

// Target implements TargetSelector.
func (LexicographicTarget) Target(from geo.Key, locations []geo.Key, _ map[geo.Key]int) (geo.Key, error) {
	var best geo.Key
	for _, k := range locations {
		if k == from {
			continue
		}
		if best == "" || k < best {
			best = k
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: only %s is registered", ErrNoTarget, from)
	}
	return best, nil
}

// Move records one cab relocation performed by a pass.
type Move struct {
	CabID int64   `json:"cab_id"`
	From  geo.Key `json:"from"`
	To    geo.Key `json:"to"`
}

// Policy moves cabs away from locations holding more than Threshold of them.
type Policy struct {
	Threshold int
	Selector  TargetSelector

	fleet     Fleet
	locations Locations
	logger    Logger
}

// New creates a policy with the default selector. threshold < 0 falls back to DefaultThreshold.
func New(f Fleet, locs Locations, logger Logger, threshold int) *Policy {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &Policy{
		Threshold: threshold,
		Selector:  LexicographicTarget{},
		fleet:     f,
		locations: locs,
		logger:    logger,
	}
}

// Rebalance runs one pass. Locations are visited in key order against the occupancy
// observed before the first move. Cabs that arrive at a location during the pass are
// neither counted against its threshold nor moved again. A location with no target is
// skipped. Driver flags are left untouched.
func (p *Policy) Rebalance() ([]Move, error) {
	snapshot := p.fleet.Occupancy()
	crowded := make([]geo.Key, 0, len(snapshot))
	for k, n := range snapshot {
		if n > p.Threshold {
			crowded = append(crowded, k)
		}
	}
	if len(crowded) == 0 {
		return nil, nil
	}
	slices.Sort(crowded)
	all := p.locations.Locations()

	var moves []Move
	arrived := make(map[int64]struct{})
	for _, from := range crowded {
		var resident []int64
		for _, id := range p.fleet.CabsAt(from) {
			if _, ok := arrived[id]; !ok {
				resident = append(resident, id)
			}
		}
		if len(resident) <= p.Threshold {
			continue
		}
	excess:
		for _, cabID := range resident[p.Threshold:] {
			to, err := p.Selector.Target(from, all, p.fleet.Occupancy())
			if err == nil && to == from {
				err = fmt.Errorf("%w: selector returned source %s", ErrNoTarget, from)
			}
			switch {
			case errors.Is(err, ErrNoTarget):
				if p.logger != nil {
					p.logger.Infof("rebalance: skipping %s: %v", from, err)
				}
				break excess
			case err != nil:
				return moves, err
			}
			if err := p.fleet.Relocate(cabID, string(to)); err != nil {
				return moves, fmt.Errorf("rebalance cab %d: %w", cabID, err)
			}
			arrived[cabID] = struct{}{}
			moves = append(moves, Move{CabID: cabID, From: from, To: to})
		}
	}
	if p.logger != nil {
		p.logger.Infof("rebalance: moved %d cabs", len(moves))
	}
	return moves, nil
}

var _ Fleet = (*fleet.Registry)(nil)
