package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Pacer spaces calls to a rate-limited API at a fixed interval. The first
// Wait returns immediately; each later Wait blocks until interval has passed
// since the previous one returned.
type Pacer struct {
	clock    clockwork.Clock
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewPacer creates a Pacer. A nil clock uses the real clock.
func NewPacer(clock clockwork.Clock, interval time.Duration) *Pacer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pacer{clock: clock, interval: interval}
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if remaining := p.interval - p.clock.Since(p.last); remaining > 0 {
			timer := p.clock.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.Chan():
			}
		}
	}

	p.last = p.clock.Now()
	return nil
}
