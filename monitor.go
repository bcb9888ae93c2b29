package main

import (
	"context"
	"log"
	"time"
)

// Monitor probes every client with application-level pings and evicts
// the ones that stop answering. Liveness is derived purely from
// lastSeen against wall-clock time — there is no per-client state
// machine — so any inbound traffic (update or pong) keeps a client
// alive.
type Monitor struct {
	reg *Registry

	heartbeatInterval time.Duration
	clientTimeout     time.Duration
	cleanupInterval   time.Duration
}

func NewMonitor(reg *Registry, cfg *Config) *Monitor {
	return &Monitor{
		reg:               reg,
		heartbeatInterval: cfg.HeartbeatInterval,
		clientTimeout:     cfg.ClientTimeout,
		cleanupInterval:   cfg.CleanupInterval,
	}
}

func (m *Monitor) Run(ctx context.Context) {
	heartbeat := time.NewTicker(m.heartbeatInterval)
	defer heartbeat.Stop()
	cleanup := time.NewTicker(m.cleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			m.Probe()
		case <-cleanup.C:
			m.Sweep()
		}
	}
}

// Probe sends one ping to every client in every room. A failed send is
// treated as a disconnect and evicts the client immediately; it is
// never retried.
func (m *Monitor) Probe() {
	data := pingMessage().encode()
	for _, room := range m.reg.snapshotRooms() {
		sent, failed := room.broadcast("", data)
		metricMessagesOut.WithLabelValues(TypePing).Add(float64(sent))
		m.reg.evictFailed(room.id, failed)
	}
}

// Sweep evicts every client whose lastSeen exceeds the timeout,
// regardless of connection health: a peer that never answers a probe is
// indistinguishable from a dead connection. A room swept less than the
// cleanup interval ago is skipped, bounding sweep frequency
// independently of how often the timer fires.
func (m *Monitor) Sweep() {
	now := time.Now()
	for _, room := range m.reg.snapshotRooms() {
		if !room.beginSweep(now, m.cleanupInterval) {
			continue
		}
		for _, c := range room.staleMembers(now.Add(-m.clientTimeout)) {
			metricEvictions.WithLabelValues("timeout").Inc()
			log.Printf("user %s in room %s timed out, evicting", c.userID, room.id)
			m.reg.leave(room.id, c.userID, c.conn)
		}
	}
}
