package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {

	os.Clearenv()
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "test")

	cfg, err := LoadConfig()
	assert.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Env)
	assert.Equal(t, 300, cfg.Sync.IntervalSeconds)
	assert.Equal(t, 30, cfg.Sync.MinIntervalSeconds)
	assert.Equal(t, 4, cfg.Sync.Workers)
	assert.False(t, cfg.Redis.Enabled)
}

func TestValidateInterval(t *testing.T) {
	cfg := &Config{Sync: SyncConfig{MinIntervalSeconds: 30}}

	// zero disables scheduling, always allowed
	assert.NoError(t, cfg.ValidateInterval(0))

	assert.NoError(t, cfg.ValidateInterval(30))
	assert.NoError(t, cfg.ValidateInterval(3600))

	err := cfg.ValidateInterval(5)
	assert.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "sync.interval_seconds", cfgErr.Field)
}

func TestValidate_RejectsIntervalBelowFloor(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{DSN: "file:test.db"},
		Sync: SyncConfig{
			IntervalSeconds:     10,
			MinIntervalSeconds:  30,
			Workers:             4,
			FetchTimeoutSeconds: 30,
			PushTimeoutSeconds:  30,
			PushRPS:             10,
			PushBurst:           20,
		},
	}

	err := cfg.Validate()
	assert.Error(t, err)

	// raising the interval to the floor fixes it
	cfg.Sync.IntervalSeconds = 30
	assert.NoError(t, cfg.Validate())
}
