// Package audit is an asynchronous, best-effort audit trail. Producers never
// block: lines are dropped when the logger is disabled, not started, or its
// buffer is full. A single drain goroutine hands lines to a Sink in the order
// they were enqueued.
package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/joripage/lob-engine/pkg/logging"
	"go.uber.org/zap"
)

const (
	defaultBufferSize = 4096
	defaultBatchSize  = 256
)

// Sink receives batches of audit lines from the drain goroutine.
type Sink interface {
	Write(ctx context.Context, lines []string) error
	Close() error
}

type Config struct {
	Enabled    bool
	BufferSize int
	BatchSize  int
}

type Logger struct {
	cfg    Config
	sink   Sink
	logger *logging.Logger

	queue   chan string
	enabled atomic.Bool
	running atomic.Bool
	dropped atomic.Int64

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

func New(cfg Config, sink Sink, logger *logging.Logger) *Logger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	l := &Logger{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		queue:  make(chan string, cfg.BufferSize),
	}
	l.enabled.Store(cfg.Enabled && sink != nil)
	return l
}

func (l *Logger) SetEnabled(enabled bool) {
	l.enabled.Store(enabled && l.sink != nil)
}

// Log enqueues text without blocking.
func (l *Logger) Log(text string) {
	if !l.enabled.Load() || !l.running.Load() {
		l.dropped.Add(1)
		return
	}
	select {
	case l.queue <- text:
	default:
		l.dropped.Add(1)
	}
}

// Dropped is the number of lines discarded so far.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Start launches the drain goroutine. A disabled logger does not start.
func (l *Logger) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running.Load() || !l.enabled.Load() {
		return
	}
	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})
	l.running.Store(true)
	go l.drain(ctx, l.stopCh, l.done)
}

// Stop flushes whatever is queued and waits for the drain goroutine.
func (l *Logger) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running.Load() {
		return
	}
	l.running.Store(false)
	close(l.stopCh)
	<-l.done
}

// Close stops the logger and closes its sink.
func (l *Logger) Close() error {
	l.Stop()
	if l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

func (l *Logger) drain(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	batch := make([]string, 0, l.cfg.BatchSize)

	for {
		select {
		case line := <-l.queue:
			batch = append(batch[:0], line)
			batch = l.collect(batch)
			l.write(ctx, batch)
		case <-stopCh:
			for {
				batch = l.collect(batch[:0])
				if len(batch) == 0 {
					return
				}
				l.write(ctx, batch)
			}
		}
	}
}

// collect appends queued lines without blocking, up to the batch size.
func (l *Logger) collect(batch []string) []string {
	for len(batch) < l.cfg.BatchSize {
		select {
		case line := <-l.queue:
			batch = append(batch, line)
		default:
			return batch
		}
	}
	return batch
}

func (l *Logger) write(ctx context.Context, batch []string) {
	if err := l.sink.Write(ctx, batch); err != nil {
		l.dropped.Add(int64(len(batch)))
		l.logger.Warn(ctx, "audit sink write failed", zap.Int("lines", len(batch)), zap.Error(err))
	}
}
