package clickhouse

import (
	"context"
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDefaults(t *testing.T) {
	cfg := defaultConfig()
	WithHost("ch.internal")(&cfg)

	opts := cfg.options()
	assert.Equal(t, ch.Native, opts.Protocol)
	assert.Equal(t, []string{"ch.internal:9000"}, opts.Addr)
	assert.Equal(t, "default", opts.Auth.Database)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Empty(t, opts.Settings)
}

func TestOptionsHTTPAndSettings(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithHost("localhost"),
		WithHTTP(true),
		WithDatabase("plumbwatch"),
		WithCredentials("svc", "pw"),
		WithAsyncInsert(true),
		WithMaxExecTime(30 * time.Second),
		WithTimeouts(time.Second, 0),
	} {
		opt(&cfg)
	}

	opts := cfg.options()
	assert.Equal(t, ch.HTTP, opts.Protocol)
	assert.Equal(t, []string{"localhost:8123"}, opts.Addr)
	assert.Equal(t, "svc", opts.Auth.Username)
	assert.Equal(t, "pw", opts.Auth.Password)
	assert.Equal(t, time.Second, opts.DialTimeout)
	assert.Equal(t, 10*time.Second, opts.ReadTimeout)
	assert.Equal(t, 30, opts.Settings["max_execution_time"])
	assert.Equal(t, 1, opts.Settings["async_insert"])
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(context.Background())
	require.Error(t, err)
}
