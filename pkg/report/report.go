// Package report renders engine snapshots as plain text.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/joripage/lob-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

const priceDecimals = 3

// fixed formats v with places decimals; decimal cannot hold Inf or NaN.
func fixed(v float64, places int32) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', int(places), 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func price(p float64) string {
	return fixed(p, priceDecimals)
}

// PrintSummary writes the processed count, elapsed time and throughput.
func PrintSummary(w io.Writer, stats orderbook.Stats) {
	fmt.Fprintf(w, "Processed Orders: %d\n", stats.ProcessedOrders)
	fmt.Fprintf(w, "Elapsed Time: %s seconds\n", fixed(stats.Elapsed.Seconds(), 6))
	fmt.Fprintf(w, "Orders Per Second: %s\n", fixed(stats.OrdersPerSecond, 2))
	fmt.Fprintf(w, "Trades: %d, Volume: %d, Notional: %s\n", stats.Trades, stats.Volume, stats.Notional.StringFixed(priceDecimals))
}

// PrintDepth writes the top levels of each side, best first.
func PrintDepth(w io.Writer, depth orderbook.DepthSnapshot) {
	fmt.Fprintln(w, "Order Book Depth:")
	fmt.Fprintln(w, "Buy Orders:")
	for _, level := range depth.Bids {
		fmt.Fprintf(w, "Price: %s, Orders: %d, Quantity: %d\n", price(level.Price), level.Orders, level.Qty)
	}
	fmt.Fprintln(w, "Sell Orders:")
	for _, level := range depth.Asks {
		fmt.Fprintf(w, "Price: %s, Orders: %d, Quantity: %d\n", price(level.Price), level.Orders, level.Qty)
	}
	if depth.BuyMarkets+depth.SellMarkets+depth.PendingStops > 0 {
		fmt.Fprintf(w, "Pending: %d buy market, %d sell market, %d stop\n",
			depth.BuyMarkets, depth.SellMarkets, depth.PendingStops)
	}
}

// PrintTrades writes at most maxRows trades; maxRows <= 0 writes all.
func PrintTrades(w io.Writer, trades []orderbook.Trade, maxRows int) {
	fmt.Fprintln(w, "Trade Executions:")
	for i, t := range trades {
		if maxRows > 0 && i >= maxRows {
			fmt.Fprintf(w, "... %d more\n", len(trades)-maxRows)
			return
		}
		fmt.Fprintf(w, "Buy Order ID: %d, Sell Order ID: %d, Buy Price: %s, Sell Price: %s, Quantity: %d\n",
			t.BuyOrderID, t.SellOrderID, price(t.BuyPrice), price(t.SellPrice), t.Qty)
	}
}

// PrintMatched writes every matched order snapshot.
func PrintMatched(w io.Writer, orders []orderbook.Order) {
	for _, o := range orders {
		fmt.Fprintf(w, "Order ID: %d, Side: %s, Kind: %s, Price: %s, Quantity: %d, Status: %s\n",
			o.ID, o.Side, o.Kind, price(o.Price), o.Qty, o.Status)
	}
}

