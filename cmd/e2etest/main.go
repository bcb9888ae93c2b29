// E2E test: joins two WebSocket clients to one room through a live relay
// and checks the presence protocol end to end.
// Usage: go run ./cmd/e2etest -relay ws://localhost:8080/ws
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

var relayURL = flag.String("relay", "ws://localhost:8080/ws", "relay WebSocket URL")

type envelope struct {
	Type      string          `json:"type"`
	UserID    string          `json:"userId"`
	Timestamp int64           `json:"timestamp"`
	Particles json.RawMessage `json:"particles"`
	Color     *uint32         `json:"color"`
}

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	roomID := "e2e-test-room"

	// --- Connect alice ---
	log.Println(">> Connecting alice...")
	aliceConn, err := dial(*relayURL, roomID, "alice")
	if err != nil {
		log.Fatal("alice connect:", err)
	}
	defer aliceConn.Close()
	log.Println("   Alice connected ✓")

	// --- Connect bob; alice must see his user_joined ---
	log.Println(">> Connecting bob...")
	bobConn, err := dial(*relayURL, roomID, "bob")
	if err != nil {
		log.Fatal("bob connect:", err)
	}
	defer bobConn.Close()
	log.Println("   Bob connected ✓")

	log.Println(">> Alice waiting for user_joined...")
	joined := expect(aliceConn, "user_joined")
	if joined.UserID != "bob" {
		log.Fatalf("user_joined for %q, want bob", joined.UserID)
	}
	log.Println("   Alice saw bob join ✓")

	// --- Alice sends an update; bob receives the re-broadcast ---
	update := `{"type":"update","particles":[{"position":[1,2,3],"rotation":0.5,"scale":1,"velocity":[0,0.1,0]}],"color":16711680}`
	log.Println(">> Alice sending update...")
	if err := aliceConn.WriteMessage(websocket.TextMessage, []byte(update)); err != nil {
		log.Fatal("alice send:", err)
	}

	log.Println(">> Bob waiting for update...")
	got := expect(bobConn, "update")
	if got.UserID != "alice" {
		log.Fatalf("update from %q, want alice", got.UserID)
	}
	if len(got.Particles) == 0 || got.Timestamp == 0 {
		log.Fatal("update missing particles or timestamp")
	}
	log.Println("   Bob received alice's update ✓")

	// --- Bob disconnects; alice must see user_left ---
	log.Println(">> Bob disconnecting...")
	bobConn.Close()

	log.Println(">> Alice waiting for user_left...")
	left := expect(aliceConn, "user_left")
	if left.UserID != "bob" {
		log.Fatalf("user_left for %q, want bob", left.UserID)
	}
	log.Println("   Alice saw bob leave ✓")

	fmt.Println()
	log.Println("═══════════════════════════════")
	log.Println("  E2E TEST PASSED ✓")
	log.Println("═══════════════════════════════")
	os.Exit(0)
}

// expect reads frames until one of the wanted type arrives, answering
// heartbeat pings along the way.
func expect(conn *websocket.Conn, wantType string) *envelope {
	deadline := time.Now().Add(10 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("read while waiting for %s: %v", wantType, err)
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Fatalf("bad frame %q: %v", data, err)
		}
		if env.Type == "ping" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pong"}`))
			continue
		}
		if env.Type == wantType {
			return &env
		}
		log.Printf("   (skipping %s)", env.Type)
	}
}

func dial(baseURL, roomID, userID string) (*websocket.Conn, error) {
	params := url.Values{"room": {roomID}, "user": {userID}}
	u := baseURL + "?" + params.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	return conn, err
}
