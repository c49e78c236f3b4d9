// Package kafkawrapper publishes audit events to Kafka.
package kafkawrapper

import (
	"context"
	"errors"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

type ProducerConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	BatchSize    int           `yaml:"batch_size"`
	BatchBytes   int64         `yaml:"batch_bytes"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

type Producer struct {
	w     *kafka.Writer
	topic string
}

var errProducerNotInitialized = errors.New("producer not initialized")

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchBytes == 0 {
		cfg.BatchBytes = 1 << 20
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	wr := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchBytes:             cfg.BatchBytes,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireNone,
		Async:                  true,
	}
	return &Producer{w: wr, topic: cfg.Topic}
}

// Publish writes values to the configured topic, all under the same key so
// they land on one partition and keep their order.
func (p *Producer) Publish(ctx context.Context, key []byte, values ...[]byte) error {
	if p == nil || p.w == nil {
		return errProducerNotInitialized
	}
	now := time.Now()
	msgs := make([]kafka.Message, 0, len(values))
	for _, v := range values {
		msgs = append(msgs, kafka.Message{
			Topic: p.topic,
			Key:   key,
			Value: v,
			Time:  now,
		})
	}
	return p.w.WriteMessages(ctx, msgs...)
}

func (p *Producer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
