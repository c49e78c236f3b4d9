package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

type Stats struct {
	ProcessedOrders int64
	Trades          int
	Volume          int64
	Notional        decimal.Decimal // sum of qty * sell price
	Elapsed         time.Duration
	OrdersPerSecond float64
}

// ProcessedOrderCount counts each order once per trade it takes part in, so a
// trade adds two.
func (e *MatchingEngine) ProcessedOrderCount() int64 {
	return e.processed.Load()
}

// ElapsedTime is the wall time between pool start and stop.
func (e *MatchingEngine) ElapsedTime() time.Duration {
	return e.pool.elapsed()
}

func (e *MatchingEngine) OrdersPerSecond() float64 {
	return ordersPerSecond(e.ProcessedOrderCount(), e.ElapsedTime())
}

func ordersPerSecond(processed int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(processed) / elapsed.Seconds()
}

func (e *MatchingEngine) Stats() Stats {
	processed := e.ProcessedOrderCount()
	elapsed := e.ElapsedTime()

	e.logMu.Lock()
	defer e.logMu.Unlock()
	return Stats{
		ProcessedOrders: processed,
		Trades:          len(e.trades),
		Volume:          e.volume,
		Notional:        e.notional,
		Elapsed:         elapsed,
		OrdersPerSecond: ordersPerSecond(processed, elapsed),
	}
}
