package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for all services
type Config struct {
	// Service name
	ServiceName string

	// HTTP server port (health endpoint)
	HTTPPort int

	// Log level: debug, info, warn, error
	LogLevel string

	// Kafka brokers (comma-separated)
	KafkaBrokers string

	// Kafka topic carrying order requests toward the venue
	OrdersTopic string

	// Kafka topic carrying execution events back from the venue
	EventsTopic string

	// Numeric client identity stamped on every outbound message
	ClientID uint64

	// Strategy tick interval
	TickInterval time.Duration

	// Path of the sqlite trade journal
	JournalPath string

	// Symbols traded by the default strategies (comma-separated)
	Symbols []string
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig(serviceName string) *Config {
	cfg := &Config{
		ServiceName:  serviceName,
		HTTPPort:     getEnvAsInt("PORT_HTTP", 8080),
		LogLevel:     getEnvAsString("LOG_LEVEL", "info"),
		KafkaBrokers: getEnvAsString("KAFKA_BROKERS", "127.0.0.1:9092"),
		OrdersTopic:  getEnvAsString("ORDERS_TOPIC", "venue.orders"),
		EventsTopic:  getEnvAsString("EVENTS_TOPIC", "venue.events"),
		ClientID:     getEnvAsUint64("CLIENT_ID", 1),
		TickInterval: time.Duration(getEnvAsInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		JournalPath:  getEnvAsString("JOURNAL_PATH", "./data/trades.db"),
		Symbols:      splitCSV(getEnvAsString("SYMBOLS", "AAPL,MSFT,GOOGL")),
	}

	return cfg
}

// Brokers returns the Kafka broker list split out of the
// comma-separated env value.
func (c *Config) Brokers() []string {
	return splitCSV(c.KafkaBrokers)
}

// HTTPAddr returns the HTTP server address
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
