package orderbook

import "container/heap"

// triggerHeap orders the distinct trigger prices of one side of the stop book,
// most eligible first. Prices whose last stop was cancelled are dropped
// lazily: they stay in the heap marked dead until they surface at the top.
type triggerHeap struct {
	prices pricesByTrigger
	live   map[float64]bool // in heap; false once dropped
}

type pricesByTrigger struct {
	items []float64
	first func(a, b float64) bool
}

func (p pricesByTrigger) Len() int           { return len(p.items) }
func (p pricesByTrigger) Less(i, j int) bool { return p.first(p.items[i], p.items[j]) }
func (p pricesByTrigger) Swap(i, j int)      { p.items[i], p.items[j] = p.items[j], p.items[i] }

func (p *pricesByTrigger) Push(x any) {
	p.items = append(p.items, x.(float64))
}

func (p *pricesByTrigger) Pop() any {
	n := len(p.items)
	price := p.items[n-1]
	p.items = p.items[:n-1]
	return price
}

// newTriggerHeap returns a heap where first(a, b) reports whether a must be
// checked before b.
func newTriggerHeap(first func(a, b float64) bool) *triggerHeap {
	return &triggerHeap{
		prices: pricesByTrigger{first: first},
		live:   make(map[float64]bool),
	}
}

// add makes price live, reviving a dropped entry instead of pushing a twin.
func (h *triggerHeap) add(price float64) {
	if _, ok := h.live[price]; !ok {
		heap.Push(&h.prices, price)
	}
	h.live[price] = true
}

func (h *triggerHeap) drop(price float64) {
	if _, ok := h.live[price]; ok {
		h.live[price] = false
	}
}

// best returns the top live price, discarding dead ones on the way.
func (h *triggerHeap) best() (float64, bool) {
	for h.prices.Len() > 0 {
		top := h.prices.items[0]
		if h.live[top] {
			return top, true
		}
		heap.Pop(&h.prices)
		delete(h.live, top)
	}
	return 0, false
}

// pop removes the top live price. Callers check best first.
func (h *triggerHeap) pop() {
	if price, ok := h.best(); ok {
		heap.Pop(&h.prices)
		delete(h.live, price)
	}
}

