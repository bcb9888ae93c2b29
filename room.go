package main

import (
	"sync"
	"time"
)

// Room is one isolated broadcast domain: a set of clients keyed by
// userID plus the activity timestamps that gate the liveness sweep and
// the idle reaper. Rooms never outlive their last member; the registry
// drops a room in the same step that removes its final client.
type Room struct {
	id string

	mu           sync.RWMutex
	members      map[string]*Client
	lastActivity time.Time
	lastCleanup  time.Time
}

func NewRoom(id string) *Room {
	now := time.Now()
	return &Room{
		id:           id,
		members:      make(map[string]*Client),
		lastActivity: now,
		lastCleanup:  now,
	}
}

// add inserts c, displacing any client already registered under the
// same userID. The displaced client is returned so the caller can close
// its connection; the map never holds two entries for one user.
func (r *Room) add(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	displaced := r.members[c.userID]
	if displaced != nil {
		delete(r.members, c.userID)
	}
	r.members[c.userID] = c
	r.lastActivity = time.Now()
	return displaced
}

// remove deletes the client registered under userID. If conn is
// non-nil, removal only happens while the client is still bound to that
// connection — a reconnect may already have replaced it with a new
// session, which must not be torn down by the old one's teardown path.
func (r *Room) remove(userID string, conn Conn) (removed *Client, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.members[userID]
	if !ok || (conn != nil && c.conn != conn) {
		return nil, false
	}
	delete(r.members, userID)
	r.lastActivity = time.Now()
	return c, len(r.members) == 0
}

// updateState records a client's latest particle snapshot and refreshes
// its liveness timestamp. Returns false if the user is not a member
// (e.g. an in-flight message from an already-evicted session).
func (r *Room) updateState(userID string, particles []Particle, color *uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.members[userID]
	if !ok {
		return false
	}
	now := time.Now()
	c.particles = particles
	if color != nil {
		c.color = color
	}
	c.lastSeen = now
	r.lastActivity = now
	return true
}

// markAlive refreshes a client's liveness timestamp (pong handling).
func (r *Room) markAlive(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.members[userID]
	if !ok {
		return false
	}
	now := time.Now()
	c.lastSeen = now
	r.lastActivity = now
	return true
}

// broadcast sends data to every member except excludeUserID. Members
// whose connection rejects the frame are reported back, not retried;
// one bad peer never blocks delivery to the rest. Failures are reported
// as client records, not bare userIDs: by the time the caller evicts
// them the user may have reconnected, and eviction must only hit the
// session the failure was observed on.
func (r *Room) broadcast(excludeUserID string, data []byte) (sent int, failed []*Client) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, c := range r.members {
		if id == excludeUserID {
			continue
		}
		if err := c.conn.Send(data); err != nil {
			failed = append(failed, c)
			continue
		}
		sent++
	}
	return sent, failed
}

// staleMembers returns the clients whose lastSeen predates cutoff.
func (r *Room) staleMembers(cutoff time.Time) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stale []*Client
	for _, c := range r.members {
		if c.lastSeen.Before(cutoff) {
			stale = append(stale, c)
		}
	}
	return stale
}

// beginSweep gates sweep frequency: it reports whether at least
// interval has passed since the previous sweep of this room, and if so
// stamps the room as swept now.
func (r *Room) beginSweep(now time.Time, interval time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastCleanup) < interval {
		return false
	}
	r.lastCleanup = now
	return true
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// MemberIDs lists current members. Order is unspecified.
func (r *Room) MemberIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	return ids
}

func (r *Room) LastActivity() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActivity
}

// closeAll closes every member connection. Used on wholesale teardown
// (reaper, shutdown); no per-member notifications are sent.
func (r *Room) closeAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.members)
	for _, c := range r.members {
		_ = c.conn.Close()
	}
	r.members = make(map[string]*Client)
	return n
}
