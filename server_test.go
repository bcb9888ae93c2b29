package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, cfg *Config) (*httptest.Server, *Registry) {
	t.Helper()
	reg := NewRegistry()
	srv := NewServer(cfg, reg)
	ts := httptest.NewServer(srv.srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.limiter.Stop()
		reg.Close()
	})
	return ts, reg
}

func wsURL(ts *httptest.Server, roomID, userID string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?room=" + roomID + "&user=" + userID
}

func dialWS(t *testing.T, ts *httptest.Server, roomID, userID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, roomID, userID), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEnvelope reads frames until one of the wanted type arrives,
// skipping heartbeat pings.
func readEnvelope(t *testing.T, conn *websocket.Conn, wantType string) ServerMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", wantType)
		var msg ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == TypePing {
			continue
		}
		require.Equal(t, wantType, msg.Type)
		return msg
	}
}

func TestServer_Health(t *testing.T) {
	ts, _ := startTestServer(t, testConfig())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServer_WS_RequiresRoomAndUser(t *testing.T) {
	ts, reg := startTestServer(t, testConfig())

	for _, query := range []string{"", "?room=r1", "?user=alice"} {
		resp, err := http.Get(ts.URL + "/ws" + query)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %q", query)
	}
	assert.Equal(t, 0, reg.RoomCount(), "rejected connects must create no room state")
}

func TestServer_WS_RoomFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxClientsPerRoom = 1
	ts, reg := startTestServer(t, cfg)

	dialWS(t, ts, "r1", "alice")
	require.Eventually(t, func() bool { return reg.ClientCount("r1") == 1 },
		2*time.Second, 10*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "r1", "bob"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_WS_EndToEnd(t *testing.T) {
	ts, reg := startTestServer(t, testConfig())

	alice := dialWS(t, ts, "R1", "alice")
	require.Eventually(t, func() bool { return reg.ClientCount("R1") == 1 },
		2*time.Second, 10*time.Millisecond)

	bob := dialWS(t, ts, "R1", "bob")

	joined := readEnvelope(t, alice, TypeUserJoined)
	assert.Equal(t, "bob", joined.UserID)

	update := `{"type":"update","particles":[{"position":[1,2,3],"rotation":0.5,"scale":1,"velocity":[0,0.1,0]}],"color":255}`
	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte(update)))

	got := readEnvelope(t, alice, TypeUpdate)
	assert.Equal(t, "bob", got.UserID)
	require.Len(t, got.Particles, 1)
	assert.Equal(t, [3]float64{1, 2, 3}, got.Particles[0].Position)
	require.NotNil(t, got.Color)
	assert.Equal(t, uint32(255), *got.Color)
	assert.Greater(t, got.Timestamp, int64(0))

	require.NoError(t, bob.Close())

	left := readEnvelope(t, alice, TypeUserLeft)
	assert.Equal(t, "bob", left.UserID)

	require.Eventually(t, func() bool { return reg.ClientCount("R1") == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestServer_WS_MalformedFrameIsDiscarded(t *testing.T) {
	ts, reg := startTestServer(t, testConfig())

	alice := dialWS(t, ts, "r1", "alice")
	require.Eventually(t, func() bool { return reg.ClientCount("r1") == 1 },
		2*time.Second, 10*time.Millisecond)
	bob := dialWS(t, ts, "r1", "bob")
	readEnvelope(t, alice, TypeUserJoined)

	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte("{not json")))

	// The connection survives and the next frame still goes through.
	update := `{"type":"update","particles":[]}`
	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte(update)))
	got := readEnvelope(t, alice, TypeUpdate)
	assert.Equal(t, "bob", got.UserID)
	assert.Equal(t, 2, reg.ClientCount("r1"))
}

func TestServer_WS_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerIP = 1 // burst of 2
	ts, _ := startTestServer(t, cfg)

	limited := false
	for i := 0; i < 5; i++ {
		resp, err := http.Get(ts.URL + "/ws")
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
		}
	}
	assert.True(t, limited, "expected at least one request to be throttled")
}
