package board

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// PollInterval is the default spacing between quiet background refreshes.
const PollInterval = 7 * time.Second

// Poller drives the quiet refresh loop. Ticks only do work while a session
// is active; a tick that fires while the previous refresh is still in
// flight is skipped, not queued. A failed refresh is logged; the next
// tick proceeds independently and there is no retry.
type Poller struct {
	board    *Board
	interval time.Duration
	log      zerolog.Logger
	inflight atomic.Bool
}

func NewPoller(b *Board, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = PollInterval
	}
	return &Poller{
		board:    b,
		interval: interval,
		log:      log.With().Str("component", "poller").Logger(),
	}
}

// Run blocks until ctx is cancelled. Cancel the context on logout or
// component teardown; no tick runs afterwards.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.board.Session().Active() {
		return
	}
	if !p.inflight.CompareAndSwap(false, true) {
		p.log.Debug().Msg("previous refresh still in flight, skipping tick")
		return
	}
	defer p.inflight.Store(false)

	// A slow fetch must not outlive the slot the interval gives it.
	tctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	if err := p.board.Refresh(tctx); err != nil {
		p.log.Error().Err(err).Msg("background refresh failed")
	}
}
