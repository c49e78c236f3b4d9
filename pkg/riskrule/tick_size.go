package riskrule

import (
	"fmt"

	"github.com/joripage/lob-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

type TickBand struct {
	MaxPrice string `yaml:"max_price"` // empty = no limit
	Step     string `yaml:"step"`
}

type tickBand struct {
	maxPrice decimal.Decimal
	step     decimal.Decimal
}

// TickSizeRule applies the step of the first band whose MaxPrice covers the
// order price. Prices above every band are not checked.
type TickSizeRule struct {
	bands []tickBand
}

func NewTickSizeRule(bands []TickBand) (*TickSizeRule, error) {
	rule := &TickSizeRule{bands: make([]tickBand, 0, len(bands))}
	for i, b := range bands {
		step, err := decimal.NewFromString(b.Step)
		if err != nil || !step.IsPositive() {
			return nil, fmt.Errorf("%w: band %d step %q", orderbook.ErrInvalidTickSize, i, b.Step)
		}
		var maxPrice decimal.Decimal
		if b.MaxPrice != "" {
			if maxPrice, err = decimal.NewFromString(b.MaxPrice); err != nil {
				return nil, fmt.Errorf("%w: band %d max price %q", orderbook.ErrInvalidTickSize, i, b.MaxPrice)
			}
		}
		rule.bands = append(rule.bands, tickBand{maxPrice: maxPrice, step: step})
	}
	return rule, nil
}

func (r *TickSizeRule) Check(order *orderbook.Order) error {
	if order.Kind == orderbook.MARKET {
		return nil
	}
	price := decimal.NewFromFloat(order.Price)
	for _, band := range r.bands {
		if band.maxPrice.IsZero() || price.LessThanOrEqual(band.maxPrice) {
			if !price.Mod(band.step).IsZero() {
				return fmt.Errorf("%w: id=%d price=%s step=%s", orderbook.ErrInvalidTickSize, order.ID, price, band.step)
			}
			return nil
		}
	}
	return nil
}
