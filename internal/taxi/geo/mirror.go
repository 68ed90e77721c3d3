package geo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	mirrorPrefix       = "zula:cabs:"
	mirrorLocationsKey = "zula:cab_locations"
	defaultMirrorTTL   = 2 * time.Second
	mirrorQueueSize    = 256
)

// MirrorLogger is the logging subset used by PositionMirror.
type MirrorLogger interface {
	Errorf(format string, args ...interface{})
}

// PositionMirror copies cab positions into redis for external readers.
// The in-memory fleet index stays authoritative; redis failures are logged only.
// Updates are queued and written by Run, so callers never wait on redis.
type PositionMirror struct {
	rdb     redis.Cmdable
	timeout time.Duration
	logger  MirrorLogger
	queue   chan mirrorOp
}

type mirrorOp struct {
	what string
	fn   func(ctx context.Context, pipe redis.Pipeliner)
}

// NewPositionMirror creates a mirror. A nil client disables it.
func NewPositionMirror(rdb redis.Cmdable, timeout time.Duration, logger MirrorLogger) *PositionMirror {
	if timeout <= 0 {
		timeout = defaultMirrorTTL
	}
	return &PositionMirror{rdb: rdb, timeout: timeout, logger: logger, queue: make(chan mirrorOp, mirrorQueueSize)}
}

func mirrorKey(location Key) string {
	return mirrorPrefix + string(location)
}

func mirrorMember(cabID int64) string {
	return strconv.FormatInt(cabID, 10)
}

// CabPlaced records a newly onboarded cab.
func (m *PositionMirror) CabPlaced(cabID int64, at Key) {
	m.enqueue(fmt.Sprintf("place cab %d at %s", cabID, at), func(ctx context.Context, pipe redis.Pipeliner) {
		pipe.SAdd(ctx, mirrorKey(at), mirrorMember(cabID))
		pipe.HSet(ctx, mirrorLocationsKey, mirrorMember(cabID), string(at))
	})
}

// CabMoved moves a cab between location sets.
func (m *PositionMirror) CabMoved(cabID int64, from, to Key) {
	m.enqueue(fmt.Sprintf("move cab %d %s->%s", cabID, from, to), func(ctx context.Context, pipe redis.Pipeliner) {
		pipe.SRem(ctx, mirrorKey(from), mirrorMember(cabID))
		pipe.SAdd(ctx, mirrorKey(to), mirrorMember(cabID))
		pipe.HSet(ctx, mirrorLocationsKey, mirrorMember(cabID), string(to))
	})
}

// Resync replaces the mirrored state with positions, keyed by cab id.
func (m *PositionMirror) Resync(ctx context.Context, locations []Key, positions map[int64]Key) error {
	if m == nil || m.rdb == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, err := m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		keys := []string{mirrorLocationsKey}
		for _, loc := range locations {
			keys = append(keys, mirrorKey(loc))
		}
		pipe.Del(ctx, keys...)
		for cabID, at := range positions {
			pipe.SAdd(ctx, mirrorKey(at), mirrorMember(cabID))
			pipe.HSet(ctx, mirrorLocationsKey, mirrorMember(cabID), string(at))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror resync: %w", err)
	}
	return nil
}

// Run writes queued updates in order until ctx is done.
func (m *PositionMirror) Run(ctx context.Context) {
	if m == nil || m.rdb == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-m.queue:
			m.apply(op.what, op.fn)
		}
	}
}

// enqueue never blocks. A full queue drops the update; the next Resync repairs it.
func (m *PositionMirror) enqueue(what string, fn func(ctx context.Context, pipe redis.Pipeliner)) {
	if m == nil || m.rdb == nil {
		return
	}
	select {
	case m.queue <- mirrorOp{what: what, fn: fn}:
	default:
		if m.logger != nil {
			m.logger.Errorf("mirror: queue full, dropped %s", what)
		}
	}
}

func (m *PositionMirror) apply(what string, fn func(ctx context.Context, pipe redis.Pipeliner)) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	_, err := m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(ctx, pipe)
		return nil
	})
	if err != nil && m.logger != nil {
		m.logger.Errorf("mirror: %s: %v", what, err)
	}
}
