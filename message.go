package main

import (
	"encoding/json"
	"time"
)

// Wire message types. Clients send update and pong; the relay emits
// everything else. pong is never emitted by the server.
const (
	TypeUserJoined = "user_joined"
	TypeUserLeft   = "user_left"
	TypeUpdate     = "update"
	TypePing       = "ping"
	TypePong       = "pong"
)

// serverUserID marks server-originated messages (heartbeat probes).
const serverUserID = "server"

// Particle is one element of a client's motion snapshot. The relay never
// interprets these values; they pass through verbatim.
type Particle struct {
	Position [3]float64 `json:"position"`
	Rotation float64    `json:"rotation"`
	Scale    float64    `json:"scale"`
	Velocity [3]float64 `json:"velocity"`
}

// ServerMessage is the envelope for everything the relay emits. Type
// discriminates which optional fields are present; the constructors
// below are the only way messages are built, so each type carries
// exactly the fields it needs. Timestamp is server receipt time in
// milliseconds, never client-reported time.
type ServerMessage struct {
	Type      string     `json:"type"`
	UserID    string     `json:"userId"`
	Timestamp int64      `json:"timestamp"`
	Particles []Particle `json:"particles,omitempty"`
	Color     *uint32    `json:"color,omitempty"`
}

// ClientMessage is the envelope for inbound frames. Only update and
// pong are accepted; anything else is logged and discarded.
type ClientMessage struct {
	Type      string     `json:"type"`
	Particles []Particle `json:"particles"`
	Color     *uint32    `json:"color"`
}

func userJoinedMessage(userID string) ServerMessage {
	return ServerMessage{Type: TypeUserJoined, UserID: userID, Timestamp: nowMillis()}
}

func userLeftMessage(userID string) ServerMessage {
	return ServerMessage{Type: TypeUserLeft, UserID: userID, Timestamp: nowMillis()}
}

func updateMessage(userID string, particles []Particle, color *uint32) ServerMessage {
	return ServerMessage{
		Type:      TypeUpdate,
		UserID:    userID,
		Timestamp: nowMillis(),
		Particles: particles,
		Color:     color,
	}
}

func pingMessage() ServerMessage {
	return ServerMessage{Type: TypePing, UserID: serverUserID, Timestamp: nowMillis()}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// encode serializes the envelope once; broadcast fan-out reuses the
// identical bytes for every recipient.
func (m ServerMessage) encode() []byte {
	data, _ := json.Marshal(m)
	return data
}
