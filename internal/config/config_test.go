package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig("botd")

	assert.Equal(t, "botd", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"127.0.0.1:9092"}, cfg.Brokers())
	assert.Equal(t, "venue.orders", cfg.OrdersTopic)
	assert.Equal(t, "venue.events", cfg.EventsTopic)
	assert.Equal(t, uint64(1), cfg.ClientID)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, cfg.Symbols)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	t.Setenv("PORT_HTTP", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("CLIENT_ID", "42")
	t.Setenv("TICK_INTERVAL_MS", "250")
	t.Setenv("SYMBOLS", "TSLA")

	cfg := LoadConfig("botd")

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
	assert.Equal(t, uint64(42), cfg.ClientID)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, []string{"TSLA"}, cfg.Symbols)
}

func TestLoadConfig_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PORT_HTTP", "not-a-port")
	t.Setenv("CLIENT_ID", "-3")

	cfg := LoadConfig("botd")
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, uint64(1), cfg.ClientID)
}
