package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Each message type must carry exactly the fields its case needs:
// presence events have no payload, updates carry it, pings come from
// the synthetic server user.
func TestMessage_EnvelopeShapePerType(t *testing.T) {
	color := uint32(0x00FF00)

	cases := []struct {
		name string
		msg  ServerMessage
		want map[string]bool // field presence in the encoded JSON
	}{
		{
			name: "user_joined has no payload fields",
			msg:  userJoinedMessage("alice"),
			want: map[string]bool{"particles": false, "color": false},
		},
		{
			name: "user_left has no payload fields",
			msg:  userLeftMessage("bob"),
			want: map[string]bool{"particles": false, "color": false},
		},
		{
			name: "update carries particles and color",
			msg:  updateMessage("alice", []Particle{{Scale: 1}}, &color),
			want: map[string]bool{"particles": true, "color": true},
		},
		{
			name: "update without color omits it",
			msg:  updateMessage("alice", []Particle{{Scale: 1}}, nil),
			want: map[string]bool{"particles": true, "color": false},
		},
		{
			name: "ping has no payload fields",
			msg:  pingMessage(),
			want: map[string]bool{"particles": false, "color": false},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var fields map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(tc.msg.encode(), &fields))

			assert.Contains(t, fields, "type")
			assert.Contains(t, fields, "userId")
			assert.Contains(t, fields, "timestamp")
			for field, present := range tc.want {
				_, ok := fields[field]
				assert.Equal(t, present, ok, "field %q", field)
			}
		})
	}
}

func TestMessage_PingIsFromServer(t *testing.T) {
	msg := pingMessage()
	assert.Equal(t, TypePing, msg.Type)
	assert.Equal(t, serverUserID, msg.UserID)
	assert.Greater(t, msg.Timestamp, int64(0))
}

func TestMessage_ParticleRoundTrip(t *testing.T) {
	in := Particle{
		Position: [3]float64{1.5, -2, 3.25},
		Rotation: 0.75,
		Scale:    2,
		Velocity: [3]float64{0, 9.8, 0},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Particle
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
