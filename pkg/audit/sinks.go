package audit

import (
	"context"
	"errors"

	kafkawrapper "github.com/joripage/lob-engine/pkg/kafka_wrapper"
	"github.com/joripage/lob-engine/pkg/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LoggerSink writes each line as one structured log entry.
type LoggerSink struct {
	logger *logging.Logger
}

func NewLoggerSink(logger *logging.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// NewFileSink appends audit lines to a file.
func NewFileSink(path string) (*LoggerSink, error) {
	logger, err := logging.NewFileLogger(path, logging.INFO)
	if err != nil {
		return nil, err
	}
	return NewLoggerSink(logger), nil
}

func (s *LoggerSink) Write(ctx context.Context, lines []string) error {
	for _, line := range lines {
		s.logger.Info(ctx, "audit", zap.String("event", line))
	}
	return nil
}

func (s *LoggerSink) Close() error {
	return s.logger.Sync()
}

type publisher interface {
	Publish(ctx context.Context, key []byte, values ...[]byte) error
	Close() error
}

// KafkaSink publishes lines to one partition of a topic.
type KafkaSink struct {
	producer publisher
	key      []byte
}

func NewKafkaSink(cfg kafkawrapper.ProducerConfig, key string) *KafkaSink {
	return &KafkaSink{producer: kafkawrapper.NewProducer(cfg), key: []byte(key)}
}

func (s *KafkaSink) Write(ctx context.Context, lines []string) error {
	values := make([][]byte, len(lines))
	for i, line := range lines {
		values[i] = []byte(line)
	}
	return s.producer.Publish(ctx, s.key, values...)
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}

// RedisSink appends lines to a Redis stream, capped at roughly maxLen entries.
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisSink(client *redis.Client, stream string, maxLen int64) *RedisSink {
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisSink) Write(ctx context.Context, lines []string) error {
	pipe := s.client.Pipeline()
	for _, line := range lines {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: s.maxLen,
			Approx: s.maxLen > 0,
			Values: map[string]any{"event": line},
		})
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}

// MultiSink fans a batch out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, lines []string) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, lines); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
