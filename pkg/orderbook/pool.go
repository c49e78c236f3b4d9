package orderbook

import (
	"runtime"
	"sync"
	"time"

	"github.com/joripage/lob-engine/pkg/logging"
	"go.uber.org/zap"
)

// numCPU is swapped in tests.
var numCPU = runtime.NumCPU

func workerCount(configured int) int {
	n := configured
	if n <= 0 {
		n = numCPU()
	}
	if n < 1 {
		n = 1
	}
	return n
}

// WorkerPool runs a fixed number of goroutines that pull crossable pairs out of
// the engine. Extraction is serialised by the engine lock; commits overlap.
type WorkerPool struct {
	engine *MatchingEngine
	size   int

	mu      sync.Mutex
	wg      sync.WaitGroup
	active  bool
	started time.Time
	stopped time.Time
}

func newWorkerPool(engine *MatchingEngine, size int) *WorkerPool {
	return &WorkerPool{engine: engine, size: size}
}

func (p *WorkerPool) Size() int {
	return p.size
}

func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return
	}
	p.active = true
	p.started = time.Now()
	p.stopped = time.Time{}

	p.engine.setRunning(true)
	p.wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go p.worker(i)
	}
	p.engine.logger.Info(p.engine.ctx, "matching engine started",
		zap.Int("workers", p.size),
		zap.String("mode", string(p.engine.cfg.Mode)))
}

func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.engine.setRunning(false)
	p.wg.Wait()
	p.active = false
	p.stopped = time.Now()
	p.engine.logger.Info(p.engine.ctx, "matching engine stopped",
		zap.Int64("processed_orders", p.engine.ProcessedOrderCount()),
		zap.Duration("elapsed", p.stopped.Sub(p.started)))
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	ctx := logging.WithWorker(p.engine.ctx, id)
	p.engine.logger.Debug(ctx, "worker started")

	for {
		fills, ok := p.engine.awaitFills()
		if !ok {
			p.engine.logger.Debug(ctx, "worker shutting down")
			return
		}
		p.engine.commit(fills)
	}
}

// elapsed is start to stop, or start to now while running.
func (p *WorkerPool) elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.started.IsZero():
		return 0
	case p.active:
		return time.Since(p.started)
	default:
		return p.stopped.Sub(p.started)
	}
}
