package riskrule

import (
	"context"
	"testing"

	"github.com/joripage/lob-engine/pkg/orderbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitOrder(id int64, price float64) *orderbook.Order {
	return &orderbook.Order{ID: id, Side: orderbook.BUY, Kind: orderbook.LIMIT, Price: price, Qty: 1}
}

func TestTickSizeRuleBands(t *testing.T) {
	rule, err := NewTickSizeRule([]TickBand{
		{MaxPrice: "10", Step: "0.01"},
		{MaxPrice: "100", Step: "0.05"},
		{Step: "1"},
	})
	require.NoError(t, err)

	assert.NoError(t, rule.Check(limitOrder(1, 9.99)))
	assert.NoError(t, rule.Check(limitOrder(2, 10)))
	assert.NoError(t, rule.Check(limitOrder(3, 50.05)))
	assert.ErrorIs(t, rule.Check(limitOrder(4, 50.02)), orderbook.ErrInvalidTickSize)
	assert.NoError(t, rule.Check(limitOrder(5, 150)))
	assert.ErrorIs(t, rule.Check(limitOrder(6, 150.5)), orderbook.ErrInvalidTickSize)

	market := &orderbook.Order{ID: 7, Side: orderbook.SELL, Kind: orderbook.MARKET, Qty: 1}
	assert.NoError(t, rule.Check(market))
}

func TestTickSizeRuleRejectsBadBands(t *testing.T) {
	_, err := NewTickSizeRule([]TickBand{{Step: "0"}})
	assert.ErrorIs(t, err, orderbook.ErrInvalidTickSize)

	_, err = NewTickSizeRule([]TickBand{{MaxPrice: "ten", Step: "1"}})
	assert.ErrorIs(t, err, orderbook.ErrInvalidTickSize)
}

func TestLimitPriceRule(t *testing.T) {
	rule := NewLimitPriceRule(90, 110)
	assert.NoError(t, rule.Check(limitOrder(1, 90)))
	assert.NoError(t, rule.Check(limitOrder(2, 110)))
	assert.ErrorIs(t, rule.Check(limitOrder(3, 89.99)), ErrPriceLimit)
	assert.ErrorIs(t, rule.Check(limitOrder(4, 110.01)), ErrPriceLimit)

	open := NewLimitPriceRule(1, 0)
	assert.NoError(t, open.Check(limitOrder(5, 1e6)))
}

func TestFromConfig(t *testing.T) {
	rules, err := FromConfig(Config{})
	require.NoError(t, err)
	assert.Empty(t, rules)

	rules, err = FromConfig(Config{
		TickBands:  []TickBand{{Step: "0.5"}},
		PriceFloor: 50,
	})
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}

func TestEngineAppliesRules(t *testing.T) {
	rules, err := FromConfig(Config{TickBands: []TickBand{{Step: "0.5"}}, PriceCeil: 200})
	require.NoError(t, err)

	engine, err := orderbook.NewMatchingEngine(context.Background(), orderbook.EngineConfig{Workers: 1, Rules: rules}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, engine.AddOrder(limitOrder(1, 100.5)))

	off := limitOrder(2, 100.3)
	assert.ErrorIs(t, engine.AddOrder(off), orderbook.ErrInvalidTickSize)
	assert.Equal(t, orderbook.StatusRejected, off.Status)

	high := limitOrder(3, 250)
	assert.ErrorIs(t, engine.AddOrder(high), ErrPriceLimit)
	_, ok := engine.Order(3)
	assert.False(t, ok)
}
