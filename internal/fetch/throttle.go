package fetch

import (
	"sync"
	"time"
)

// Progress is one snapshot of a running download.
type Progress struct {
	Downloaded int64
	Total      int64
	// Speed is the instantaneous rate in bytes per second.
	Speed float64
	// ETA is the estimated seconds remaining; 0 when unknown.
	ETA int
}

// Percent returns download completion in percent, 0 when the total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Downloaded) / float64(p.Total) * 100
}

// Sink receives progress snapshots. Implementations typically edit a chat
// status message, which has its own rate limits.
type Sink func(Progress)

// Throttle forwards progress to a sink at most once per interval. It also
// serializes sink invocations: the mutex is held across the call, so two
// overlapping progress lines can never race on the same status message.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		now:      time.Now,
	}
}

// Forward delivers p to sink unless the previous delivery was less than one
// interval ago. Suppressed snapshots are dropped, not queued; the next line
// from the downloader supersedes them anyway.
func (t *Throttle) Forward(sink Sink, p Progress) {
	if sink == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return
	}
	t.last = now
	sink(p)
}
