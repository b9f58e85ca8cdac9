package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesValues(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, "gzip")
	fixed := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, "stress", []byte("k"), map[string]int{"score": 42}))
	require.NoError(t, p.Publish(ctx, "stress", nil, "raw"))
	require.NoError(t, p.Publish(ctx, "stress", nil, []byte("bytes")))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "stress", w.msgs[0].Topic)
	assert.Equal(t, []byte("k"), w.msgs[0].Key)
	assert.JSONEq(t, `{"score":42}`, string(w.msgs[0].Value))
	assert.Equal(t, fixed, w.msgs[0].Time)
	assert.Equal(t, "raw", string(w.msgs[1].Value))
	assert.Equal(t, "bytes", string(w.msgs[2].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := newProducer(&recordingWriter{err: boom}, "gzip")

	err := p.Publish(context.Background(), "stress", nil, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	err = p.Publish(context.Background(), "stress", nil, func() {})
	assert.Error(t, err)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(WithRegisterer(prometheus.NewRegistry()))
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
}

func TestHealthWithoutBrokers(t *testing.T) {
	p := newProducer(&recordingWriter{}, "none")
	err := p.Health(context.Background())
	require.Error(t, err)
}
