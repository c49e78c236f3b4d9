package orderbook

import "errors"

var (
	ErrInvalidOrder    = errors.New("invalid order")
	ErrDuplicateOrder  = errors.New("duplicate order id")
	ErrInvalidTickSize = errors.New("price is not a multiple of tick size")
	ErrInvalidMode     = errors.New("invalid matching mode")
)
