package orderbook

import (
	"github.com/gammazero/deque"
	"github.com/google/btree"
)

const levelTreeDegree = 32

type priceLevel struct {
	price  float64
	orders deque.Deque[*Order]
}

// LevelSnapshot is a read-only view of one price level.
type LevelSnapshot struct {
	Price  float64
	Orders int
	Qty    int64
}

// PriceLevelBook keeps resting limit orders in per-price FIFO queues. Both trees
// are ordered best-first, so Min is always the top of book. It does no locking
// of its own; the engine lock guards every call.
type PriceLevelBook struct {
	buyLevels  *btree.BTreeG[*priceLevel]
	sellLevels *btree.BTreeG[*priceLevel]
}

func NewPriceLevelBook() *PriceLevelBook {
	return &PriceLevelBook{
		buyLevels:  btree.NewG(levelTreeDegree, func(a, b *priceLevel) bool { return a.price > b.price }), // best bid first
		sellLevels: btree.NewG(levelTreeDegree, func(a, b *priceLevel) bool { return a.price < b.price }), // best ask first
	}
}

func (b *PriceLevelBook) tree(side Side) *btree.BTreeG[*priceLevel] {
	if side == BUY {
		return b.buyLevels
	}
	return b.sellLevels
}

// Insert appends the order to the tail of its price level, creating the level
// when absent.
func (b *PriceLevelBook) Insert(order *Order) {
	t := b.tree(order.Side)
	level, ok := t.Get(&priceLevel{price: order.Price})
	if !ok {
		level = &priceLevel{price: order.Price}
		t.ReplaceOrInsert(level)
	}
	level.orders.PushBack(order)
	order.place = placeLevel
}

// BestBuy returns the highest bid price and its queue.
func (b *PriceLevelBook) BestBuy() (float64, *deque.Deque[*Order], bool) {
	return b.best(BUY)
}

// BestAsk returns the lowest ask price and its queue.
func (b *PriceLevelBook) BestAsk() (float64, *deque.Deque[*Order], bool) {
	return b.best(SELL)
}

func (b *PriceLevelBook) best(side Side) (float64, *deque.Deque[*Order], bool) {
	level, ok := b.tree(side).Min()
	if !ok {
		return 0, nil, false
	}
	return level.price, &level.orders, true
}

// PopFront removes the head of the level at price. The level is erased in the
// same call when it becomes empty.
func (b *PriceLevelBook) PopFront(side Side, price float64) (*Order, bool) {
	t := b.tree(side)
	level, ok := t.Get(&priceLevel{price: price})
	if !ok {
		return nil, false
	}
	order := level.orders.PopFront()
	if level.orders.Len() == 0 {
		t.Delete(level)
	}
	order.place = placeNone
	return order, true
}

// Remove takes a resting order out of its level. O(level length).
func (b *PriceLevelBook) Remove(order *Order) bool {
	t := b.tree(order.Side)
	level, ok := t.Get(&priceLevel{price: order.Price})
	if !ok {
		return false
	}
	for i := 0; i < level.orders.Len(); i++ {
		if level.orders.At(i) != order {
			continue
		}
		level.orders.Remove(i)
		if level.orders.Len() == 0 {
			t.Delete(level)
		}
		order.place = placeNone
		return true
	}
	return false
}

// Len returns the number of price levels on a side.
func (b *PriceLevelBook) Len(side Side) int {
	return b.tree(side).Len()
}

// Depth returns up to topN levels of a side, best first. topN <= 0 means all.
func (b *PriceLevelBook) Depth(side Side, topN int) []LevelSnapshot {
	var out []LevelSnapshot
	b.tree(side).Ascend(func(level *priceLevel) bool {
		if topN > 0 && len(out) >= topN {
			return false
		}
		snap := LevelSnapshot{Price: level.price, Orders: level.orders.Len()}
		for i := 0; i < level.orders.Len(); i++ {
			snap.Qty += level.orders.At(i).Qty
		}
		out = append(out, snap)
		return true
	})
	return out
}
