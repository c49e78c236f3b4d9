package riskrule

import (
	"errors"
	"fmt"

	"github.com/joripage/lob-engine/pkg/orderbook"
)

var ErrPriceLimit = errors.New("price limit violation")

// LimitPriceRule rejects priced orders outside [floor, ceil]. A zero ceil
// leaves the upper side open.
type LimitPriceRule struct {
	floor float64
	ceil  float64
}

func NewLimitPriceRule(floor, ceil float64) *LimitPriceRule {
	return &LimitPriceRule{floor: floor, ceil: ceil}
}

func (r *LimitPriceRule) Check(order *orderbook.Order) error {
	if order.Kind == orderbook.MARKET {
		return nil
	}
	if order.Price < r.floor || (r.ceil > 0 && order.Price > r.ceil) {
		return fmt.Errorf("%w: id=%d price=%v range=[%v, %v]", ErrPriceLimit, order.ID, order.Price, r.floor, r.ceil)
	}
	return nil
}
