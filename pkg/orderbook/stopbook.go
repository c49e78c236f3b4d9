package orderbook

import (
	"github.com/gammazero/deque"
)

// stopBook holds untriggered stop orders. Buy stops fire when the best ask
// falls to or below their price, so the highest buy stop is checked first;
// sell stops fire when the best bid reaches their price, lowest first.
type stopBook struct {
	buyStops  map[float64]*deque.Deque[*Order]
	sellStops map[float64]*deque.Deque[*Order]

	buyTriggers  *triggerHeap
	sellTriggers *triggerHeap

	size int
}

func newStopBook() *stopBook {
	return &stopBook{
		buyStops:     make(map[float64]*deque.Deque[*Order]),
		sellStops:    make(map[float64]*deque.Deque[*Order]),
		buyTriggers:  newTriggerHeap(func(a, b float64) bool { return a > b }),
		sellTriggers: newTriggerHeap(func(a, b float64) bool { return a < b }),
	}
}

func (sb *stopBook) side(side Side) (map[float64]*deque.Deque[*Order], *triggerHeap) {
	if side == BUY {
		return sb.buyStops, sb.buyTriggers
	}
	return sb.sellStops, sb.sellTriggers
}

func (sb *stopBook) add(order *Order) {
	book, h := sb.side(order.Side)
	if book[order.Price] == nil {
		book[order.Price] = &deque.Deque[*Order]{}
	}
	h.add(order.Price)
	book[order.Price].PushBack(order)
	order.place = placeStop
	sb.size++
}

func (sb *stopBook) remove(order *Order) bool {
	book, h := sb.side(order.Side)
	q := book[order.Price]
	if q == nil {
		return false
	}
	for i := 0; i < q.Len(); i++ {
		if q.At(i) != order {
			continue
		}
		q.Remove(i)
		if q.Len() == 0 {
			delete(book, order.Price)
			h.drop(order.Price)
		}
		order.place = placeNone
		sb.size--
		return true
	}
	return false
}

// triggered pops every stop on side whose trigger is satisfied by ref, the
// opposite side's best price. Orders come out best trigger first, FIFO within
// a price.
func (sb *stopBook) triggered(side Side, ref float64) []*Order {
	book, h := sb.side(side)
	fires := func(stop float64) bool { return stop >= ref }
	if side == SELL {
		fires = func(stop float64) bool { return stop <= ref }
	}

	var out []*Order
	for {
		price, ok := h.best()
		if !ok || !fires(price) {
			return out
		}
		h.pop()
		q := book[price]
		delete(book, price)
		for q.Len() > 0 {
			order := q.PopFront()
			order.place = placeNone
			out = append(out, order)
			sb.size--
		}
	}
}

func (sb *stopBook) len() int {
	return sb.size
}
