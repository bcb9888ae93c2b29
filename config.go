package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	TLSCert           string
	TLSKey            string
	MaxRooms          int
	MaxClientsPerRoom int
	MaxMessageSize    int64
	HeartbeatInterval time.Duration
	ClientTimeout     time.Duration
	CleanupInterval   time.Duration
	RoomIdleTimeout   time.Duration
	ReapInterval      time.Duration
	RateLimitPerIP    float64
	MetricsAddr       string
	CORSOrigins       []string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              envStr("RELAY_ADDR", ":8080"),
		TLSCert:           envStr("RELAY_TLS_CERT", ""),
		TLSKey:            envStr("RELAY_TLS_KEY", ""),
		MaxRooms:          envInt("RELAY_MAX_ROOMS", 1000),
		MaxClientsPerRoom: envInt("RELAY_MAX_CLIENTS_PER_ROOM", 50),
		MaxMessageSize:    int64(envInt("RELAY_MAX_MESSAGE_SIZE", 1048576)),
		HeartbeatInterval: envSeconds("RELAY_HEARTBEAT_INTERVAL", 30),
		ClientTimeout:     envSeconds("RELAY_CLIENT_TIMEOUT", 90),
		CleanupInterval:   envSeconds("RELAY_CLEANUP_INTERVAL", 60),
		RoomIdleTimeout:   envSeconds("RELAY_ROOM_IDLE_TIMEOUT", 600),
		ReapInterval:      envSeconds("RELAY_REAP_INTERVAL", 120),
		RateLimitPerIP:    float64(envInt("RELAY_RATE_LIMIT_PER_IP", 100)),
		MetricsAddr:       envStr("RELAY_METRICS_ADDR", ""),
		CORSOrigins:       splitCSV(envStr("RELAY_CORS_ORIGINS", "*")),
	}
	cfg.validate()
	return cfg
}

// validate enforces the interval ordering liveness detection relies on:
// a client must survive at least one probe/response cycle before it can
// time out, and the idle-room threshold must exceed the client timeout
// so per-client eviction always runs first.
func (c *Config) validate() {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 60 * time.Second
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = 120 * time.Second
	}
	if c.ClientTimeout <= c.HeartbeatInterval {
		c.ClientTimeout = 3 * c.HeartbeatInterval
		log.Printf("client timeout must exceed heartbeat interval, raised to %s", c.ClientTimeout)
	}
	if c.RoomIdleTimeout <= c.ClientTimeout {
		c.RoomIdleTimeout = 4 * c.ClientTimeout
		log.Printf("room idle timeout must exceed client timeout, raised to %s", c.RoomIdleTimeout)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
