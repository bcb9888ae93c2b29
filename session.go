package main

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 256
)

var (
	errSessionClosed  = errors.New("session closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Session adapts one WebSocket connection to the Conn handle the core
// pushes through. Send never blocks: frames queue into a buffered
// channel drained by the write pump, and a full buffer is reported as a
// send failure so the core evicts the peer instead of stalling the
// room's fan-out.
type Session struct {
	id     string
	conn   *websocket.Conn
	reg    *Registry
	roomID string
	userID string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(reg *Registry, conn *websocket.Conn, roomID, userID string) *Session {
	return &Session{
		id:     uuid.NewString(),
		conn:   conn,
		reg:    reg,
		roomID: roomID,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

func (s *Session) Send(data []byte) error {
	select {
	case <-s.done:
		return errSessionClosed
	default:
	}
	select {
	case s.send <- data:
		return nil
	case <-s.done:
		return errSessionClosed
	default:
		return errSendBufferFull
	}
}

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
	return nil
}

// ReadPump decodes inbound frames and hands them to the registry. It
// runs as the connection's only reader; updates therefore reach peers
// in the order this client sent them. Exit — clean close, read error or
// eviction — triggers leave for this session only: if a reconnect has
// already replaced it, the replacement is left untouched.
func (s *Session) ReadPump() {
	defer func() {
		s.reg.LeaveSession(s.roomID, s.userID, s)
		_ = s.Close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("read error user=%s room=%s conn=%s: %v", s.userID, s.roomID, s.id[:8], err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("malformed frame from user %s in room %s: %v", s.userID, s.roomID, err)
			continue
		}

		switch msg.Type {
		case TypeUpdate:
			s.reg.RecordUpdate(s.roomID, s.userID, msg.Particles, msg.Color)
		case TypePong:
			s.reg.MarkAlive(s.roomID, s.userID)
		default:
			log.Printf("unknown message type %q from user %s in room %s", msg.Type, s.userID, s.roomID)
		}
	}
}

// WritePump drains the send buffer onto the wire. A write error or a
// closed session ends the pump; the read pump's teardown handles the
// registry side.
func (s *Session) WritePump() {
	defer func() {
		_ = s.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
