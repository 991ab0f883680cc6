package clock

import (
	"sync/atomic"
	"time"
)

// Source provides the sequencing tick and wall time consumed by the governance
// engine. Two mutations observing the same tick are treated as simultaneous by
// the too-recently guards.
type Source interface {
	CurrentTick() uint64
	Now() uint64 // unix seconds
}

// IntervalSource derives block-like ticks from wall time: tick n covers
// [genesis + n*interval, genesis + (n+1)*interval).
type IntervalSource struct {
	genesis  int64
	interval int64
}

// NewIntervalSource creates a tick source anchored at the given genesis unix
// timestamp with the given interval. Intervals below one second are clamped.
func NewIntervalSource(genesisUnix int64, interval time.Duration) *IntervalSource {
	secs := int64(interval / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &IntervalSource{genesis: genesisUnix, interval: secs}
}

func (s *IntervalSource) CurrentTick() uint64 {
	elapsed := time.Now().Unix() - s.genesis
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / s.interval)
}

func (s *IntervalSource) Now() uint64 {
	now := time.Now().Unix()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

// Manual is a test clock whose tick and time are set explicitly
type Manual struct {
	tick atomic.Uint64
	now  atomic.Uint64
}

func NewManual(tick, now uint64) *Manual {
	m := &Manual{}
	m.tick.Store(tick)
	m.now.Store(now)
	return m
}

func (m *Manual) CurrentTick() uint64 { return m.tick.Load() }

func (m *Manual) Now() uint64 { return m.now.Load() }

func (m *Manual) SetTick(t uint64) { m.tick.Store(t) }

func (m *Manual) SetNow(n uint64) { m.now.Store(n) }

func (m *Manual) AdvanceTick() { m.tick.Add(1) }

func (m *Manual) AdvanceNow(seconds uint64) { m.now.Add(seconds) }
