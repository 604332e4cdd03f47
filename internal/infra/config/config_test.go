package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 366, cfg.CalendarMaxDays)
	assert.Equal(t, 3*time.Second, cfg.SelectionClearDelay)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoadReadsEnvFileWithoutOverriding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("KAFKA_BROKERS=a:9092, b:9092\nCALENDAR_MAX_DAYS=90\nHTTP_ADDR=:1\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("HTTP_ADDR", ":9999")
	// godotenv sets variables process-wide; t.Setenv restores them afterwards.
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("CALENDAR_MAX_DAYS", "")
	require.NoError(t, os.Unsetenv("KAFKA_BROKERS"))
	require.NoError(t, os.Unsetenv("CALENDAR_MAX_DAYS"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90, cfg.CalendarMaxDays)
	assert.True(t, cfg.KafkaEnabled())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	cases := map[string]string{
		"STORAGE":           "postgres",
		"CALENDAR_MAX_DAYS": "zero",
		"RETRY_BACKOFF":     "1s,soon",
		"IDEMP_TTL":         "forever",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("mongo without uri", func(t *testing.T) {
		t.Setenv("STORAGE", "mongo")
		t.Setenv("MONGO_URI", "")
		_, err := Load()
		assert.Error(t, err)
	})
}
