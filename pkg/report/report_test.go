package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/joripage/lob-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, orderbook.Stats{
		ProcessedOrders: 4,
		Trades:          2,
		Volume:          20,
		Notional:        decimal.NewFromInt(2000),
		Elapsed:         1500 * time.Millisecond,
		OrdersPerSecond: 4.0 / 1.5,
	})

	out := buf.String()
	assert.Contains(t, out, "Processed Orders: 4\n")
	assert.Contains(t, out, "Elapsed Time: 1.500000 seconds\n")
	assert.Contains(t, out, "Orders Per Second: 2.67\n")
	assert.Contains(t, out, "Notional: 2000.000")
}

func TestPrintDepth(t *testing.T) {
	var buf bytes.Buffer
	PrintDepth(&buf, orderbook.DepthSnapshot{
		Bids: []orderbook.LevelSnapshot{{Price: 99.5, Orders: 2, Qty: 15}},
		Asks: []orderbook.LevelSnapshot{{Price: 101, Orders: 1, Qty: 10}},
	})

	want := "Order Book Depth:\n" +
		"Buy Orders:\n" +
		"Price: 99.500, Orders: 2, Quantity: 15\n" +
		"Sell Orders:\n" +
		"Price: 101.000, Orders: 1, Quantity: 10\n"
	assert.Equal(t, want, buf.String())

	buf.Reset()
	PrintDepth(&buf, orderbook.DepthSnapshot{BuyMarkets: 1, PendingStops: 2})
	assert.Contains(t, buf.String(), "Pending: 1 buy market, 0 sell market, 2 stop")
}

func TestPrintTradesLimitsRows(t *testing.T) {
	trades := []orderbook.Trade{
		{ID: 1, BuyOrderID: 2, SellOrderID: 1, BuyPrice: 100, SellPrice: 100, Qty: 5},
		{ID: 2, BuyOrderID: 4, SellOrderID: 3, BuyPrice: 101, SellPrice: 100.5, Qty: 5},
		{ID: 3, BuyOrderID: 6, SellOrderID: 5, BuyPrice: 102, SellPrice: 101, Qty: 5},
	}

	var buf bytes.Buffer
	PrintTrades(&buf, trades, 2)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "Buy Order ID: 4, Sell Order ID: 3, Buy Price: 101.000, Sell Price: 100.500, Quantity: 5", lines[2])
	assert.Equal(t, "... 1 more", lines[3])

	buf.Reset()
	PrintTrades(&buf, trades, 0)
	assert.Equal(t, 4, strings.Count(buf.String(), "\n"))
}

func TestPrintMatched(t *testing.T) {
	var buf bytes.Buffer
	PrintMatched(&buf, []orderbook.Order{
		{ID: 7, Side: orderbook.BUY, Kind: orderbook.MARKET, Price: 100, Qty: 0, Status: orderbook.StatusFilled},
	})
	assert.Equal(t, "Order ID: 7, Side: BUY, Kind: MARKET, Price: 100.000, Quantity: 0, Status: Filled\n", buf.String())
}

func TestPrintMatchedNonFinitePrice(t *testing.T) {
	var buf bytes.Buffer
	assert.NotPanics(t, func() {
		PrintMatched(&buf, []orderbook.Order{{ID: 1, Side: orderbook.SELL, Kind: orderbook.LIMIT, Price: math.Inf(1)}})
	})
	assert.Contains(t, buf.String(), "Price: +Inf,")
}
