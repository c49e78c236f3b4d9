// Package riskrule holds pre-trade checks applied by the matching engine
// before an order enters the book.
package riskrule

import (
	"github.com/joripage/lob-engine/pkg/orderbook"
)

var _ orderbook.RiskRule = (*TickSizeRule)(nil)
var _ orderbook.RiskRule = (*LimitPriceRule)(nil)

// FromConfig builds the rule chain described by cfg, skipping unset rules.
func FromConfig(cfg Config) ([]orderbook.RiskRule, error) {
	var rules []orderbook.RiskRule
	if len(cfg.TickBands) > 0 {
		rule, err := NewTickSizeRule(cfg.TickBands)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if cfg.PriceFloor > 0 || cfg.PriceCeil > 0 {
		rules = append(rules, NewLimitPriceRule(cfg.PriceFloor, cfg.PriceCeil))
	}
	return rules, nil
}

type Config struct {
	TickBands  []TickBand `yaml:"tick_bands"`
	PriceFloor float64    `yaml:"price_floor"`
	PriceCeil  float64    `yaml:"price_ceil"` // 0 = no limit
}
