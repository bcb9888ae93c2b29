package main

import "time"

// Conn is the transport-level handle the core pushes bytes through.
// The session layer implements it over a WebSocket; tests substitute an
// in-memory fake. Send must not block: a connection that cannot accept
// the frame reports an error instead, and the registry treats that as a
// disconnect.
type Conn interface {
	Send(data []byte) error
	Close() error
}

// Client is the registry's record of one joined user: the connection it
// owns, its liveness timestamp and its last-announced presentation
// state. Fields are guarded by the owning Room's lock.
type Client struct {
	userID    string
	conn      Conn
	lastSeen  time.Time
	particles []Particle
	color     *uint32
}

func newClient(userID string, conn Conn) *Client {
	return &Client{
		userID:   userID,
		conn:     conn,
		lastSeen: time.Now(),
	}
}
