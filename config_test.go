package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 1000, cfg.MaxRooms)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RELAY_ADDR", ":9999")
	t.Setenv("RELAY_HEARTBEAT_INTERVAL", "5")
	t.Setenv("RELAY_CLIENT_TIMEOUT", "15")
	t.Setenv("RELAY_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := LoadConfig()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 15*time.Second, cfg.ClientTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

// The liveness design needs heartbeat < client timeout < idle timeout;
// configurations that break the ordering are corrected, not rejected.
func TestConfig_ValidateEnforcesIntervalOrdering(t *testing.T) {
	cfg := &Config{
		HeartbeatInterval: 60 * time.Second,
		ClientTimeout:     10 * time.Second,
		RoomIdleTimeout:   5 * time.Second,
		CleanupInterval:   30 * time.Second,
		ReapInterval:      30 * time.Second,
	}
	cfg.validate()

	assert.Greater(t, cfg.ClientTimeout, cfg.HeartbeatInterval)
	assert.Greater(t, cfg.RoomIdleTimeout, cfg.ClientTimeout)
}
