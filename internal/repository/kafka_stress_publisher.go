package repository

import (
	"context"
	"fmt"
	"time"

	"PlumbWatch/internal/domain/models"
	domrepo "PlumbWatch/internal/domain/repository"
	"PlumbWatch/pkg/util"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// StressEvent is the message written once per refresh cycle.
type StressEvent struct {
	CycleID    string                  `json:"cycleId"`
	Date       string                  `json:"date"`
	Timestamp  time.Time               `json:"timestamp"`
	Score      int                     `json:"score"`
	Level      models.StressLevel      `json:"level"`
	Components models.StressComponents `json:"components"`
	Spreads    map[string]*float64     `json:"spreads"`
	Statuses   map[string]string       `json:"statuses"`
	DataSource models.Provenance       `json:"dataSource"`
}

// KafkaStressPublisher emits a StressEvent per payload, keyed by day so that one
// day's events land on one partition in order.
type KafkaStressPublisher struct {
	pub   Publisher
	topic string
}

var _ domrepo.MarketDataSink = (*KafkaStressPublisher)(nil)

func NewKafkaStressPublisher(pub Publisher, topic string) *KafkaStressPublisher {
	return &KafkaStressPublisher{pub: pub, topic: topic}
}

func (p *KafkaStressPublisher) Name() string { return "kafka" }

func (p *KafkaStressPublisher) Consume(ctx context.Context, data *models.MarketData) error {
	if data == nil {
		return fmt.Errorf("nil market data")
	}
	ev := NewStressEvent(data)
	if err := p.pub.Publish(ctx, p.topic, []byte(ev.Date), ev); err != nil {
		return fmt.Errorf("publish stress event: %w", err)
	}
	return nil
}

// NewStressEvent projects a payload onto the event schema.
func NewStressEvent(data *models.MarketData) StressEvent {
	ts := data.Stress.Timestamp
	if ts.IsZero() {
		ts = data.Snapshot.Timestamp
	}
	return StressEvent{
		CycleID:    data.CycleID,
		Date:       util.DayKey(ts),
		Timestamp:  ts,
		Score:      data.Stress.Score,
		Level:      data.Stress.Level,
		Components: data.Stress.Components,
		Spreads:    data.Current.Spreads,
		Statuses:   data.Current.Statuses,
		DataSource: data.DataSource,
	}
}
