package notify

import (
	"io"

	"tourbook/pkg/clock"
	"tourbook/pkg/config"
	"tourbook/pkg/kafka"
	kafka_config "tourbook/pkg/kafka/config"
	kafka_middleware "tourbook/pkg/kafka/middleware"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FromConfig builds the Kafka notifier when brokers are configured and the
// log notifier otherwise. The returned closer flushes the producer.
func FromConfig(cfg *config.Config, kcfg *kafka_config.Config, clk clock.Clock) (Notifier, io.Closer, error) {
	if !kcfg.Enabled() {
		return NewLogNotifier(cfg.Log, clk), nopCloser{}, nil
	}

	producer, err := kafka.NewProducer(kcfg, cfg.BookingEventsTopic, kcfg.DLQTopic, cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	return NewKafkaNotifier(producer, cfg.ServiceName, cfg.NotifyTimeout, clk, cfg.Log), producer, nil
}
