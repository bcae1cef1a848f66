package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "test-nonexistent")

	cfg, err := Load()
	require.NoError(t, err, "a missing config file must fall back to defaults, never fail")
	require.NotNil(t, cfg)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 20, cfg.RateLimit)
	assert.Equal(t, time.Second, cfg.RateWindow)

	assert.Equal(t, 30*time.Minute, cfg.Rooms.RoomDuration)
	assert.Equal(t, 5*time.Minute, cfg.Rooms.TurnDuration)
	assert.Equal(t, 2, cfg.Rooms.MaxUsers)
	assert.Equal(t, 5*time.Minute, cfg.Rooms.SweepInterval)
}
