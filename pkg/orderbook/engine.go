package orderbook

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gammazero/deque"
	"github.com/joripage/lob-engine/pkg/logging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Mode string

const (
	// ModeBatch pairs every crossable head under one lock acquisition.
	ModeBatch Mode = "batch"
	// ModeIncremental pairs one head per lock acquisition.
	ModeIncremental Mode = "incremental"
)

func ParseMode(text string) (Mode, error) {
	switch Mode(text) {
	case "", ModeBatch:
		return ModeBatch, nil
	case ModeIncremental:
		return ModeIncremental, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, text)
}

// Auditor receives fire-and-forget audit lines.
type Auditor interface {
	Log(text string)
}

type nopAuditor struct{}

func (nopAuditor) Log(string) {}

// RiskRule is a pre-trade check. A non-nil error rejects the order.
type RiskRule interface {
	Check(order *Order) error
}

type EngineConfig struct {
	Workers  int             // 0 means one per CPU
	Mode     Mode            // batch when empty
	TickSize decimal.Decimal // zero accepts any positive price
	MaxBatch int             // pairs per batch, 0 means unbounded
	Rules    []RiskRule
}

// fill is one executed pair, produced under the book lock and committed after it
// is released. The order copies reflect state right after the match.
type fill struct {
	trade Trade
	buy   Order
	sell  Order
}

// MatchingEngine owns the book and crosses buy and sell interest in price-time
// priority. All book state is guarded by mu; cond is signalled on every
// accepted order so idle workers re-check whether the book crosses.
type MatchingEngine struct {
	cfg    EngineConfig
	ctx    context.Context
	logger *logging.Logger
	audit  Auditor

	mu       sync.Mutex
	cond     *sync.Cond
	levels   *PriceLevelBook
	markets  map[Side]*deque.Deque[*Order]
	stops    *stopBook
	orders   map[int64]*Order
	seq      uint64
	tradeSeq uint64
	running  bool

	logMu    sync.Mutex
	trades   []Trade
	matched  []Order
	volume   int64
	notional decimal.Decimal

	processed atomic.Int64

	pool *WorkerPool
}

func NewMatchingEngine(ctx context.Context, cfg EngineConfig, logger *logging.Logger, audit Auditor) (*MatchingEngine, error) {
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode
	if cfg.TickSize.IsNegative() {
		return nil, fmt.Errorf("%w: negative tick size %s", ErrInvalidTickSize, cfg.TickSize)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if audit == nil {
		audit = nopAuditor{}
	}

	e := &MatchingEngine{
		cfg:    cfg,
		ctx:    ctx,
		logger: logger,
		audit:  audit,
		levels: NewPriceLevelBook(),
		markets: map[Side]*deque.Deque[*Order]{
			BUY:  {},
			SELL: {},
		},
		stops:  newStopBook(),
		orders: make(map[int64]*Order),
	}
	e.cond = sync.NewCond(&e.mu)
	e.pool = newWorkerPool(e, workerCount(cfg.Workers))
	return e, nil
}

// AddOrder validates the order and places a copy of it: limits on their price
// level, markets on the unpriced market queue, stops in the stop book. The
// caller's value is only written to record New or Rejected, so it may be
// reused for the next submission. Invalid orders never enter the book.
func (e *MatchingEngine) AddOrder(order *Order) error {
	if order == nil {
		return fmt.Errorf("%w: nil order", ErrInvalidOrder)
	}
	accepted := &Order{
		ID:    order.ID,
		Side:  order.Side,
		Kind:  order.Kind,
		Price: order.Price,
		Qty:   order.Qty,
	}
	if !accepted.IsValid() {
		order.Status = StatusRejected
		e.logger.Warn(e.ctx, "order rejected",
			zap.Int64("order_id", accepted.ID),
			zap.String("side", string(accepted.Side)),
			zap.String("kind", string(accepted.Kind)),
			zap.Float64("price", accepted.Price),
			zap.Int64("qty", accepted.Qty))
		return fmt.Errorf("%w: id=%d side=%s kind=%s price=%v qty=%d",
			ErrInvalidOrder, accepted.ID, accepted.Side, accepted.Kind, accepted.Price, accepted.Qty)
	}
	if err := e.checkRules(accepted); err != nil {
		order.Status = StatusRejected
		e.logger.Warn(e.ctx, "order rejected", zap.Int64("order_id", accepted.ID), zap.Error(err))
		return err
	}

	e.mu.Lock()
	if _, ok := e.orders[accepted.ID]; ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrDuplicateOrder, accepted.ID)
	}
	e.seq++
	accepted.seq = e.seq
	accepted.Status = StatusNew
	e.orders[accepted.ID] = accepted
	e.place(accepted)
	e.triggerStops()
	e.cond.Signal()
	e.mu.Unlock()

	order.Status = StatusNew
	e.audit.Log("Adding order: " + strconv.FormatInt(accepted.ID, 10))
	return nil
}

func (e *MatchingEngine) checkRules(order *Order) error {
	if err := e.checkTick(order); err != nil {
		return err
	}
	for _, rule := range e.cfg.Rules {
		if err := rule.Check(order); err != nil {
			return err
		}
	}
	return nil
}

func (e *MatchingEngine) checkTick(order *Order) error {
	if e.cfg.TickSize.IsZero() || order.Kind == MARKET {
		return nil
	}
	if !decimal.NewFromFloat(order.Price).Mod(e.cfg.TickSize).IsZero() {
		return fmt.Errorf("%w: id=%d price=%v tick=%s", ErrInvalidTickSize, order.ID, order.Price, e.cfg.TickSize)
	}
	return nil
}

func (e *MatchingEngine) place(order *Order) {
	switch order.Kind {
	case LIMIT:
		e.levels.Insert(order)
	case MARKET:
		order.Price = 0
		e.enqueueMarket(order)
	case STOP:
		e.stops.add(order)
	}
}

func (e *MatchingEngine) enqueueMarket(order *Order) {
	e.markets[order.Side].PushBack(order)
	order.place = placeMarket
}

// triggerStops converts every stop whose trigger is met into a market order.
// A fill only ever worsens the opposite best price, so stops can fire on
// insertion alone.
func (e *MatchingEngine) triggerStops() {
	if e.stops.len() == 0 {
		return
	}
	if ask, _, ok := e.levels.BestAsk(); ok {
		for _, order := range e.stops.triggered(BUY, ask) {
			order.Kind = MARKET
			order.Price = ask
			e.enqueueMarket(order)
		}
	}
	if bid, _, ok := e.levels.BestBuy(); ok {
		for _, order := range e.stops.triggered(SELL, bid) {
			order.Kind = MARKET
			order.Price = bid
			e.enqueueMarket(order)
		}
	}
}

func front(q *deque.Deque[*Order]) *Order {
	if q.Len() == 0 {
		return nil
	}
	return q.Front()
}

// nextPair picks the next buy/sell heads to match. Pending market orders go
// first, the earlier one when both sides have one; a market order needs a
// priced order on the other side. Otherwise the limit heads pair when the
// best bid is at or above the best ask.
func (e *MatchingEngine) nextPair() (buy, sell *Order, ok bool) {
	buyMarket := front(e.markets[BUY])
	sellMarket := front(e.markets[SELL])
	bid, bids, hasBid := e.levels.BestBuy()
	ask, asks, hasAsk := e.levels.BestAsk()

	switch {
	case buyMarket != nil && hasAsk && (sellMarket == nil || !hasBid || buyMarket.seq < sellMarket.seq):
		return buyMarket, asks.Front(), true
	case sellMarket != nil && hasBid:
		return bids.Front(), sellMarket, true
	case hasBid && hasAsk && bid >= ask:
		return bids.Front(), asks.Front(), true
	}
	return nil, nil, false
}

func (e *MatchingEngine) crossable() bool {
	_, _, ok := e.nextPair()
	return ok
}

// step matches one pair. Caller holds mu.
func (e *MatchingEngine) step() (fill, bool) {
	buy, sell, ok := e.nextPair()
	if !ok {
		return fill{}, false
	}
	if buy.Kind == MARKET {
		buy.Price = sell.Price
	}
	if sell.Kind == MARKET {
		sell.Price = buy.Price
	}

	qty := min(buy.Qty, sell.Qty)
	buy.Qty -= qty
	sell.Qty -= qty

	e.tradeSeq++
	trade := Trade{
		ID:          e.tradeSeq,
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
		BuyPrice:    buy.Price,
		SellPrice:   sell.Price,
		Qty:         qty,
	}

	e.settle(buy)
	e.settle(sell)
	return fill{trade: trade, buy: *buy, sell: *sell}, true
}

// settle updates status after a match and drops a filled head from its queue.
func (e *MatchingEngine) settle(order *Order) {
	if order.Qty > 0 {
		order.Status = StatusPartiallyFilled
		return
	}
	order.Status = StatusFilled
	switch order.place {
	case placeLevel:
		e.levels.PopFront(order.Side, order.Price)
	case placeMarket:
		e.markets[order.Side].PopFront()
		order.place = placeNone
	}
}

// extract runs up to limit steps, or until the book stops crossing when limit
// is 0. Caller holds mu.
func (e *MatchingEngine) extract(limit int) []fill {
	var fills []fill
	for limit <= 0 || len(fills) < limit {
		f, ok := e.step()
		if !ok {
			break
		}
		fills = append(fills, f)
	}
	return fills
}

func (e *MatchingEngine) batchLimit() int {
	if e.cfg.Mode == ModeIncremental {
		return 1
	}
	return e.cfg.MaxBatch
}

// commit publishes fills to the trade log, the matched-order log, counters and
// the audit trail. It runs outside mu.
func (e *MatchingEngine) commit(fills []fill) {
	if len(fills) == 0 {
		return
	}

	e.logMu.Lock()
	for _, f := range fills {
		e.trades = append(e.trades, f.trade)
		e.matched = append(e.matched, f.buy, f.sell)
		e.volume += f.trade.Qty
		e.notional = e.notional.Add(decimal.NewFromFloat(f.trade.SellPrice).Mul(decimal.NewFromInt(f.trade.Qty)))
	}
	e.logMu.Unlock()

	e.processed.Add(int64(2 * len(fills)))

	for _, f := range fills {
		e.audit.Log(fmt.Sprintf("Matched order: %d with order: %d", f.trade.BuyOrderID, f.trade.SellOrderID))
	}
}

// MatchAll crosses the book from the calling goroutine until nothing crosses
// and returns the number of trades. It honours the configured mode.
func (e *MatchingEngine) MatchAll() int {
	limit := e.batchLimit()
	total := 0
	for {
		e.mu.Lock()
		fills := e.extract(limit)
		e.mu.Unlock()
		if len(fills) == 0 {
			return total
		}
		e.commit(fills)
		total += len(fills)
	}
}

// awaitFills blocks until the book crosses or the engine stops. ok is false on
// stop.
func (e *MatchingEngine) awaitFills() (fills []fill, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.running && !e.crossable() {
		e.cond.Wait()
	}
	if !e.running {
		return nil, false
	}
	return e.extract(e.batchLimit()), true
}

func (e *MatchingEngine) setRunning(running bool) {
	e.mu.Lock()
	e.running = running
	e.cond.Broadcast()
	e.mu.Unlock()
}

// CancelOrder removes an untouched resting, pending or untriggered order and
// marks it Cancelled. It returns false when the order is unknown or has
// already traded, so no order ever carries both a fill and a cancel.
func (e *MatchingEngine) CancelOrder(id int64) bool {
	e.audit.Log("Cancelling order: " + strconv.FormatInt(id, 10))

	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[id]
	if !ok || order.Status != StatusNew {
		return false
	}

	removed := false
	switch order.place {
	case placeLevel:
		removed = e.levels.Remove(order)
	case placeMarket:
		q := e.markets[order.Side]
		for i := 0; i < q.Len(); i++ {
			if q.At(i) == order {
				q.Remove(i)
				order.place = placeNone
				removed = true
				break
			}
		}
	case placeStop:
		removed = e.stops.remove(order)
	}
	if !removed {
		return false
	}
	order.Status = StatusCancelled
	return true
}

// Start launches the worker pool.
func (e *MatchingEngine) Start() {
	e.pool.Start()
}

// Stop wakes and joins every worker. Safe to call more than once.
func (e *MatchingEngine) Stop() {
	e.pool.Stop()
}

// Order returns a copy of the order with the given id.
func (e *MatchingEngine) Order(id int64) (Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	order, ok := e.orders[id]
	if !ok {
		return Order{}, false
	}
	return *order, true
}

func (e *MatchingEngine) BestBid() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	price, _, ok := e.levels.BestBuy()
	return price, ok
}

func (e *MatchingEngine) BestAsk() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	price, _, ok := e.levels.BestAsk()
	return price, ok
}

// DepthSnapshot is the visible book plus counts of orders held off the levels.
type DepthSnapshot struct {
	Bids         []LevelSnapshot
	Asks         []LevelSnapshot
	BuyMarkets   int
	SellMarkets  int
	PendingStops int
}

// Depth returns up to topN levels per side, best first. topN <= 0 means all.
func (e *MatchingEngine) Depth(topN int) DepthSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return DepthSnapshot{
		Bids:         e.levels.Depth(BUY, topN),
		Asks:         e.levels.Depth(SELL, topN),
		BuyMarkets:   e.markets[BUY].Len(),
		SellMarkets:  e.markets[SELL].Len(),
		PendingStops: e.stops.len(),
	}
}

// Trades returns the trade log in execution order.
func (e *MatchingEngine) Trades() []Trade {
	e.logMu.Lock()
	out := slices.Clone(e.trades)
	e.logMu.Unlock()
	slices.SortFunc(out, func(a, b Trade) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// MatchedOrders returns both orders of every trade as they stood right after
// the match, in commit order.
func (e *MatchingEngine) MatchedOrders() []Order {
	e.logMu.Lock()
	defer e.logMu.Unlock()
	return slices.Clone(e.matched)
}
