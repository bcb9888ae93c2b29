package main

import (
	"context"
	"time"
)

// Reaper periodically removes rooms that have seen no activity for
// longer than the idle threshold. The threshold sits well above the
// client timeout, so a genuinely active room never triggers it; it only
// catches rooms that accumulated stale state despite per-client
// eviction.
type Reaper struct {
	reg       *Registry
	interval  time.Duration
	idleAfter time.Duration
}

func NewReaper(reg *Registry, cfg *Config) *Reaper {
	return &Reaper{
		reg:       reg,
		interval:  cfg.ReapInterval,
		idleAfter: cfg.RoomIdleTimeout,
	}
}

func (rp *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rp.reg.ReapIdle(rp.idleAfter)
		}
	}
}
