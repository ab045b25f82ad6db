// Package source feeds the broadcast registry from external event
// feeds. The kafka source turns records consumed from a topic into SSE
// frames fanned out to every subscriber.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/papercomputeco/pulse/pkg/broadcast"
	"github.com/papercomputeco/pulse/pkg/sse"
)

// KafkaConfig configures a Kafka-backed event source.
type KafkaConfig struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the topic to consume.
	Topic string

	// GroupID is the optional consumer group. When empty the source
	// reads partition 0 from the latest offset without committing, so a
	// restarted hub never replays old records to fresh subscribers.
	GroupID string
}

// Kafka consumes records from a topic and broadcasts each one as an
// SSE event.
type Kafka struct {
	reader   *kafka.Reader
	registry *broadcast.Registry
	logger   *zap.Logger
}

// NewKafka creates a kafka source publishing into the given registry.
func NewKafka(config KafkaConfig, registry *broadcast.Registry, logger *zap.Logger) (*Kafka, error) {
	if len(config.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if config.Topic == "" {
		return nil, errors.New("topic is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: config.Brokers,
		Topic:   config.Topic,
		GroupID: config.GroupID,
	})

	if config.GroupID == "" {
		if err := reader.SetOffset(kafka.LastOffset); err != nil {
			reader.Close()
			return nil, fmt.Errorf("seeking to latest offset: %w", err)
		}
	}

	return &Kafka{
		reader:   reader,
		registry: registry,
		logger:   logger,
	}, nil
}

// Run consumes records until ctx is canceled or the reader fails. Each
// record becomes one SSE frame; records that cannot be encoded are
// logged and skipped.
func (k *Kafka) Run(ctx context.Context) error {
	k.logger.Info("kafka source started",
		zap.String("topic", k.reader.Config().Topic),
		zap.Strings("brokers", k.reader.Config().Brokers),
	)

	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading from topic %s: %w", k.reader.Config().Topic, err)
		}

		frame, err := EventFromMessage(msg).Encode()
		if err != nil {
			k.logger.Warn("skipping record that cannot be framed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		clients := k.registry.Broadcast(frame)

		k.logger.Debug("record broadcast",
			zap.Int64("offset", msg.Offset),
			zap.Int("clients", clients),
		)
	}
}

// Close stops the underlying reader. Any blocked Run iteration returns
// shortly after.
func (k *Kafka) Close() error {
	return k.reader.Close()
}

// EventFromMessage maps one Kafka record onto an SSE event: the record
// value is the payload, the key (when present) names the event type,
// and the topic/partition/offset triple gives the event a stable id.
func EventFromMessage(msg kafka.Message) sse.Event {
	return sse.Event{
		Type: string(msg.Key),
		Data: string(msg.Value),
		ID:   fmt.Sprintf("%s-%d-%d", msg.Topic, msg.Partition, msg.Offset),
	}
}
