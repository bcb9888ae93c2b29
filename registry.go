package main

import (
	"log"
	"sync"
	"time"
)

// Registry owns the roomID → Room map and is the only mutation surface
// for membership state. The session layer and the periodic tasks all go
// through Join / Leave / RecordUpdate / Broadcast; nothing outside this
// file mutates rooms directly.
//
// Membership mutations take the registry write lock, so joins and
// leaves are serialized and an empty room can never survive the
// operation that emptied it. Broadcast fan-out only takes the read
// lock, so rooms deliver in parallel.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the room, creating and registering an empty one
// on first reference.
func (reg *Registry) GetOrCreate(roomID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.getOrCreateLocked(roomID)
}

func (reg *Registry) getOrCreateLocked(roomID string) *Room {
	room, ok := reg.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		reg.rooms[roomID] = room
		metricRooms.Inc()
		log.Printf("room %s created", roomID)
	}
	return room
}

// Join registers a client for userID in roomID. A client already
// registered under the same userID is treated as stale: its connection
// is closed best-effort and it is replaced, so a reconnect by the same
// logical user deterministically evicts the previous session. Existing
// members are notified with a user_joined broadcast.
func (reg *Registry) Join(roomID, userID string, conn Conn) *Client {
	c := newClient(userID, conn)

	reg.mu.Lock()
	room := reg.getOrCreateLocked(roomID)
	displaced := room.add(c)
	reg.mu.Unlock()

	if displaced != nil {
		_ = displaced.conn.Close()
		metricEvictions.WithLabelValues("superseded").Inc()
		log.Printf("user %s rejoined room %s, stale session evicted", userID, roomID)
		// Peers see the supersede as a departure and a fresh arrival.
		reg.Broadcast(roomID, userLeftMessage(userID), userID)
	} else {
		metricClients.Inc()
	}
	log.Printf("user %s joined room %s (%d members)", userID, roomID, room.MemberCount())

	reg.Broadcast(roomID, userJoinedMessage(userID), userID)
	return c
}

// Leave removes userID from roomID, closing its connection and
// notifying the remaining members with a user_left broadcast. If that
// empties the room, the room is dropped from the registry in the same
// step. No-op if the room or user is unknown, so a race between a
// timeout eviction and a client-driven disconnect never double-reports.
func (reg *Registry) Leave(roomID, userID string) {
	reg.leave(roomID, userID, nil)
}

// LeaveSession is Leave guarded by connection identity: it only removes
// the user while it is still bound to conn. The session teardown path
// uses it so an old connection's exit cannot tear down the reconnected
// session that displaced it.
func (reg *Registry) LeaveSession(roomID, userID string, conn Conn) {
	reg.leave(roomID, userID, conn)
}

func (reg *Registry) leave(roomID, userID string, conn Conn) {
	reg.mu.Lock()
	room, ok := reg.rooms[roomID]
	if !ok {
		reg.mu.Unlock()
		return
	}
	removed, empty := room.remove(userID, conn)
	if removed != nil && empty {
		delete(reg.rooms, roomID)
		metricRooms.Dec()
	}
	reg.mu.Unlock()

	if removed == nil {
		return
	}
	_ = removed.conn.Close()
	metricClients.Dec()
	log.Printf("user %s left room %s", userID, roomID)

	if empty {
		log.Printf("room %s destroyed (no members)", roomID)
		return
	}
	reg.Broadcast(roomID, userLeftMessage(userID), userID)
}

// RecordUpdate stores a member's latest particle snapshot and
// re-broadcasts it to the other members, stamped with server receipt
// time. Updates for unknown rooms or users are dropped silently; a
// stale session may still have a message in flight after eviction.
func (reg *Registry) RecordUpdate(roomID, userID string, particles []Particle, color *uint32) {
	room := reg.lookup(roomID)
	if room == nil || !room.updateState(userID, particles, color) {
		return
	}
	reg.Broadcast(roomID, updateMessage(userID, particles, color), userID)
}

// MarkAlive refreshes a member's liveness timestamp (pong handling).
func (reg *Registry) MarkAlive(roomID, userID string) {
	if room := reg.lookup(roomID); room != nil {
		room.markAlive(userID)
	}
}

// Broadcast serializes msg once and sends the identical bytes to every
// member of the room except excludeUserID. A member whose send fails is
// evicted via Leave — membership shrinks as dead peers are discovered —
// but delivery to the remaining members is never aborted and no error
// reaches the caller.
func (reg *Registry) Broadcast(roomID string, msg ServerMessage, excludeUserID string) {
	room := reg.lookup(roomID)
	if room == nil {
		return
	}

	sent, failed := room.broadcast(excludeUserID, msg.encode())
	metricMessagesOut.WithLabelValues(msg.Type).Add(float64(sent))
	reg.evictFailed(roomID, failed)
}

// evictFailed removes clients whose send failed, guarded by connection
// identity: the user may have reconnected since the failure was
// observed, and the replacement session must survive its predecessor's
// eviction.
func (reg *Registry) evictFailed(roomID string, failed []*Client) {
	for _, c := range failed {
		metricEvictions.WithLabelValues("send_failed").Inc()
		log.Printf("send to user %s in room %s failed, evicting", c.userID, roomID)
		reg.leave(roomID, c.userID, c.conn)
	}
}

// ReapIdle removes every room whose last activity predates the idle
// threshold, residual members included. This is a backstop behind
// per-client eviction; members of a reaped room get no notification.
// Returns the number of rooms removed.
func (reg *Registry) ReapIdle(idleAfter time.Duration) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	now := time.Now()
	reaped := 0
	for id, room := range reg.rooms {
		idle := now.Sub(room.LastActivity())
		if idle <= idleAfter {
			continue
		}
		n := room.closeAll()
		delete(reg.rooms, id)
		metricRooms.Dec()
		metricClients.Sub(float64(n))
		metricEvictions.WithLabelValues("room_reaped").Add(float64(n))
		reaped++
		log.Printf("room %s reaped (idle %s, %d residual members)", id, idle.Round(time.Second), n)
	}
	return reaped
}

func (reg *Registry) lookup(roomID string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[roomID]
}

// snapshotRooms returns the current rooms for the periodic tasks to
// iterate without holding the registry lock.
func (reg *Registry) snapshotRooms() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (reg *Registry) HasRoom(roomID string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.rooms[roomID]
	return ok
}

func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

func (reg *Registry) ClientCount(roomID string) int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if room, ok := reg.rooms[roomID]; ok {
		return room.MemberCount()
	}
	return 0
}

// Close tears the registry down: every connection is closed and all
// room state dropped. Used on process shutdown.
func (reg *Registry) Close() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, room := range reg.rooms {
		n := room.closeAll()
		metricClients.Sub(float64(n))
	}
	metricRooms.Sub(float64(len(reg.rooms)))
	reg.rooms = make(map[string]*Room)
}
