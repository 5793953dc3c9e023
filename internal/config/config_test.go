package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "log", cfg.Events.Broker)
	assert.Equal(t, 5*time.Second, cfg.Events.PollInterval)
	assert.Equal(t, 50, cfg.Events.BatchSize)
	assert.Equal(t, "", cfg.Redis.Addr())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("EVENT_BROKER", "nsq")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "nsq", cfg.Events.Broker)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, 250*time.Millisecond, cfg.Events.PollInterval)
}

func TestLoad_RejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownBroker(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("EVENT_BROKER", "kafka")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "escrow", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=escrow sslmode=disable TimeZone=UTC", d.DSN())
}
