package orderbook

// Trade records one match. Each side keeps its own price, so a crossed match
// carries both the bid and the ask rather than a single clearing price.
type Trade struct {
	ID          uint64
	BuyOrderID  int64
	SellOrderID int64
	BuyPrice    float64
	SellPrice   float64
	Qty         int64
}
