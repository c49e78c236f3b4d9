// Package ingest reads order flow from CSV market data files.
//
// The first row is a header and is skipped. Column 2 is the price. Optional
// columns 3-5 carry side (BUY/SELL), kind (LIMIT/MARKET/STOP) and quantity;
// when absent, sides alternate (even ids buy, odd ids sell), kind is LIMIT and
// quantity is Options.DefaultQty. Rows whose price does not parse to a finite
// number are skipped.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joripage/lob-engine/pkg/orderbook"
	"go.uber.org/zap"
)

const DefaultQty = 10

var errUnknownSide = errors.New("unknown side")
var errUnknownKind = errors.New("unknown kind")
var errNonFinitePrice = errors.New("non-finite price")

type Options struct {
	DefaultQty int64
	FirstID    int64
}

func (o Options) withDefaults() Options {
	if o.DefaultQty <= 0 {
		o.DefaultQty = DefaultQty
	}
	if o.FirstID <= 0 {
		o.FirstID = 1
	}
	return o
}

// ReadOrdersFromFile opens path and parses it with ReadOrders.
func ReadOrdersFromFile(path string, opts Options) ([]*orderbook.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file %s: %w", path, err)
	}
	defer f.Close()
	return ReadOrders(f, opts)
}

func ReadOrders(r io.Reader, opts Options) ([]*orderbook.Order, error) {
	opts = opts.withDefaults()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var (
		orders  []*orderbook.Order
		skipped int
		id      = opts.FirstID
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, err
		}

		order, err := parseRecord(record, id, opts.DefaultQty)
		if err != nil {
			skipped++
			continue
		}
		orders = append(orders, order)
		id++
	}

	if skipped > 0 {
		zap.S().Debugf("ingest: skipped %d malformed rows", skipped)
	}
	return orders, nil
}

func parseRecord(record []string, id, defaultQty int64) (*orderbook.Order, error) {
	if len(record) < 2 {
		return nil, fmt.Errorf("want at least 2 columns, got %d", len(record))
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return nil, err
	}
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return nil, fmt.Errorf("%w: %q", errNonFinitePrice, record[1])
	}

	order := &orderbook.Order{
		ID:    id,
		Side:  orderbook.SELL,
		Kind:  orderbook.LIMIT,
		Price: price,
		Qty:   defaultQty,
	}
	if id%2 == 0 {
		order.Side = orderbook.BUY
	}

	if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
		switch side := orderbook.Side(strings.ToUpper(strings.TrimSpace(record[2]))); side {
		case orderbook.BUY, orderbook.SELL:
			order.Side = side
		default:
			return nil, fmt.Errorf("%w: %q", errUnknownSide, record[2])
		}
	}
	if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
		switch kind := orderbook.Kind(strings.ToUpper(strings.TrimSpace(record[3]))); kind {
		case orderbook.LIMIT, orderbook.MARKET, orderbook.STOP:
			order.Kind = kind
		default:
			return nil, fmt.Errorf("%w: %q", errUnknownKind, record[3])
		}
	}
	if len(record) > 4 && strings.TrimSpace(record[4]) != "" {
		qty, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
		if err != nil {
			return nil, err
		}
		order.Qty = qty
	}
	return order, nil
}
