package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 18, cfg.Booking.MaxParticipantAge)
	assert.True(t, cfg.Booking.EnforceCapacity)
	assert.Equal(t, 5*time.Second, cfg.Booking.LockTimeout)
	assert.Equal(t, 52, cfg.Lessons.MaxOccurrences)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Empty(t, cfg.CORS.AllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOOKING_ENFORCE_CAPACITY", "false")
	t.Setenv("BOOKING_LOCK_TIMEOUT", "750ms")
	t.Setenv("LESSONS_MAX_OCCURRENCES", "12")
	t.Setenv("TIMEZONE", "Asia/Jakarta")
	t.Setenv("SCHEDULE_CACHE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Booking.EnforceCapacity)
	assert.Equal(t, 750*time.Millisecond, cfg.Booking.LockTimeout)
	assert.Equal(t, 12, cfg.Lessons.MaxOccurrences)
	assert.Equal(t, 2*time.Minute, cfg.Schedule.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	if _, err := time.LoadLocation("Asia/Jakarta"); err == nil {
		assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Invalid"}
	assert.Equal(t, time.UTC, cfg.Location())
}
