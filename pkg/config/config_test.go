package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMissingFileGivesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3001, c.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, c.Server.CORSOrigins)
	assert.Equal(t, 60*time.Second, c.RateLimit.Window)
	assert.Equal(t, 60, c.RateLimit.Capacity)
	assert.Equal(t, 90, c.History.MaxEntries)
	assert.False(t, c.Redis.Enabled)
	assert.False(t, c.ClickHouse.Enabled)
	assert.False(t, c.Kafka.Enabled)
}

func TestFileOverridesDefaults(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 8088
  cors_origins: ["https://dash.example"]
rate_limit:
  window: 30s
  capacity: 10
refresh:
  interval: 1m
kafka:
  enabled: true
  topic: stress
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, c.Server.Port)
	assert.Equal(t, []string{"https://dash.example"}, c.Server.CORSOrigins)
	assert.Equal(t, 30*time.Second, c.RateLimit.Window)
	assert.Equal(t, 10, c.RateLimit.Capacity)
	assert.Equal(t, time.Minute, c.Refresh.Interval)
	assert.Equal(t, "stress", c.Kafka.Topic)
	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
}

func TestInvalidFileIsRejected(t *testing.T) {
	tests := map[string]string{
		"port":     "server:\n  port: 70000\n",
		"capacity": "rate_limit:\n  capacity: 0\n",
		"duration": "refresh:\n  interval: -1s\n",
		"kafka":    "kafka:\n  enabled: true\n  topic: \"\"\n",
		"syntax":   "server: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			assert.Error(t, err)
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FRED_API_KEY", "fred-key")
	t.Setenv("FX_API_KEY", "fx-key")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "DEBUG")

	c, err := LoadWithEnv("")
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Server.CORSOrigins)
	assert.Equal(t, "fred-key", c.Providers.FRED.APIKey)
	assert.Equal(t, "fx-key", c.Providers.FXRates.APIKey)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.False(t, c.Redis.Enabled)
}

func TestDotEnvIsLoaded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REDIS_ADDR=cache:6379\n"), 0o600))
	t.Chdir(dir)
	// registers cleanup that restores the unset state after godotenv sets it
	t.Setenv("REDIS_ADDR", "")
	require.NoError(t, os.Unsetenv("REDIS_ADDR"))

	c, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", c.Redis.Addr)
	assert.True(t, c.Redis.Enabled)
}

func TestInvalidEnvironmentPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "not-a-port")

	_, err := LoadWithEnv("")
	assert.Error(t, err)
}
