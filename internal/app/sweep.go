package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper runs the manager's garbage pass on a fixed cadence,
// independent of the per-room timers.
type Sweeper struct {
	Mgr      *Manager
	Interval time.Duration
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.sweep").Dur("interval", s.Interval).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.sweep").Msg("sweeper stopped")
			return
		case <-ticker.C:
			s.Mgr.Sweep()
		}
	}
}
