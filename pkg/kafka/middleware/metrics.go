package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"tourbook/pkg/kafka"
)

// Metrics counts Kafka operations of one process.
type Metrics struct {
	published            atomic.Int64
	publishFailed        atomic.Int64
	publishDurationTotal atomic.Int64

	consumed             atomic.Int64
	consumeFailed        atomic.Int64
	consumeDurationTotal atomic.Int64
}

type MetricsSnapshot struct {
	Published          int64  `json:"published"`
	PublishFailed      int64  `json:"publish_failed"`
	AvgPublishDuration string `json:"avg_publish_duration"`
	Consumed           int64  `json:"consumed"`
	ConsumeFailed      int64  `json:"consume_failed"`
	AvgConsumeDuration string `json:"avg_consume_duration"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func average(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	published := m.published.Load()
	publishFailed := m.publishFailed.Load()
	consumed := m.consumed.Load()
	consumeFailed := m.consumeFailed.Load()

	return MetricsSnapshot{
		Published:          published,
		PublishFailed:      publishFailed,
		AvgPublishDuration: average(m.publishDurationTotal.Load(), published+publishFailed).String(),
		Consumed:           consumed,
		ConsumeFailed:      consumeFailed,
		AvgConsumeDuration: average(m.consumeDurationTotal.Load(), consumed+consumeFailed).String(),
	}
}

func (m *Metrics) ProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		m.publishDurationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.publishFailed.Add(1)
		} else {
			m.published.Add(1)
		}

		return err
	}
}

func (m *Metrics) ConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()

		err := next(ctx, msg)

		m.consumeDurationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.consumeFailed.Add(1)
		} else {
			m.consumed.Add(1)
		}

		return err
	}
}
