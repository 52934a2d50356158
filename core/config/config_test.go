package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "mqtt", cfg.Broker.Driver)
	assert.Equal(t, 4*time.Second, cfg.Broker.ConnectTimeout)
	assert.Equal(t, 72*time.Hour, cfg.Rental.GracePeriod)
	assert.Equal(t, 1, cfg.Rental.OccupiedValue)
	assert.True(t, cfg.Rental.TrackUnauthenticated)
	assert.Equal(t, "withdraw-borrows", cfg.Rental.TransitionPolicy)
	assert.Equal(t, "0x23 0x24 0x24 0xC6", cfg.Identity.LegacyPattern)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "umbrella-journal", cfg.Storage.Bucket)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("RENTAL_GRACE_PERIOD", "48h")
	t.Setenv("BROKER_DRIVER", "amqp")
	t.Setenv("SERVER_API_KEY", "kiosk")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.Rental.GracePeriod)
	assert.Equal(t, "amqp", cfg.Broker.Driver)
	assert.Equal(t, "kiosk", cfg.Server.ApiKey)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RENTAL_OCCUPIED_VALUE=0\nIDENTITY_TAGS=0x01=a@bssm.hs.kr\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("RENTAL_OCCUPIED_VALUE")
		os.Unsetenv("IDENTITY_TAGS")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Rental.OccupiedValue)
	assert.Equal(t, "0x01=a@bssm.hs.kr", cfg.Identity.Tags)
}

func TestConfig_Validate(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	cfg.Broker.Driver = "serial"
	assert.ErrorContains(t, cfg.Validate(), "broker")

	cfg.Broker.Driver = "mqtt"
	cfg.Rental.TransitionPolicy = "sideways"
	assert.ErrorContains(t, cfg.Validate(), "rental")

	cfg.Rental.TransitionPolicy = "withdraw-borrows"
	cfg.Database.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "database")
}
