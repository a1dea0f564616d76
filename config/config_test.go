package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaults(t *testing.T) *Config {
	t.Helper()
	v, err := LoadConfig()
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := loadDefaults(t)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "log", cfg.Notifier.Transport)
	assert.Equal(t, 3, cfg.Booking.MaxTxRetries)
	assert.Equal(t, 20*time.Millisecond, cfg.Booking.RetryBackoff)
	assert.Equal(t, 100, cfg.Worker.BatchSize)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "host=localhost port=5432 user=ticketbooker password=password dbname=ticketbooker sslmode=disable", cfg.Database.DSN())
	assert.False(t, cfg.IsProduction())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TB_SERVER_PORT", "9090")
	t.Setenv("TB_DATABASE_DRIVER", "memory")
	t.Setenv("TB_BOOKING_MAX_TX_RETRIES", "7")
	t.Setenv("TB_SERVER_ENVIRONMENT", "production")

	cfg := loadDefaults(t)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Booking.MaxTxRetries)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "Driver"},
		{"unknown transport", func(c *Config) { c.Notifier.Transport = "smtp" }, "Transport"},
		{"rabbitmq without url", func(c *Config) {
			c.Notifier.Transport = "rabbitmq"
			c.RabbitMQ.URL = ""
		}, "rabbitmq.url"},
		{"kafka without brokers", func(c *Config) {
			c.Notifier.Transport = "kafka"
			c.Kafka.Brokers = nil
		}, "kafka.brokers"},
		{"negative retries", func(c *Config) { c.Booking.MaxTxRetries = -1 }, "MaxTxRetries"},
		{"zero batch", func(c *Config) { c.Worker.BatchSize = 0 }, "BatchSize"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadDefaults(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateMemoryDriverNeedsNoHost(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Database.Driver = "memory"
	cfg.Database.Host = ""
	cfg.Database.DBName = ""
	assert.NoError(t, cfg.Validate())
}
