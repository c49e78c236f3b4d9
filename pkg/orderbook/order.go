package orderbook

import "math"

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

type Kind string

const (
	LIMIT  Kind = "LIMIT"
	MARKET Kind = "MARKET"
	STOP   Kind = "STOP"
)

type Status string

const (
	StatusNew             Status = "New"
	StatusPartiallyFilled Status = "PartiallyFilled"
	StatusFilled          Status = "Filled"
	StatusCancelled       Status = "Cancelled"
	StatusRejected        Status = "Rejected"
)

// placement tracks which container of the engine currently holds a resting order.
type placement uint8

const (
	placeNone   placement = iota
	placeLevel            // limit price level
	placeMarket           // unpriced market queue
	placeStop             // untriggered stop book
)

// Order is the caller's request. AddOrder keeps its own copy, so the submitted
// value only ever records acceptance or rejection; live state is read back
// through MatchingEngine.Order.
type Order struct {
	ID     int64
	Side   Side
	Kind   Kind
	Price  float64 // limit or trigger price; set on match for MARKET
	Qty    int64   // remaining quantity
	Status Status

	seq   uint64
	place placement
}

// IsValid reports whether the order may enter the book.
func (o *Order) IsValid() bool {
	if o.Side != BUY && o.Side != SELL {
		return false
	}
	switch o.Kind {
	case MARKET:
		return o.Qty > 0
	case LIMIT, STOP:
		return o.Qty > 0 && o.Price > 0 && !math.IsInf(o.Price, 0)
	default:
		return false
	}
}
