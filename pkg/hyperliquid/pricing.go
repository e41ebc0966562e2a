package hyperliquid

import (
	"context"
	"fmt"
	"sort"

	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/models"
)

// GetOrderBook fetches and normalizes the L2 snapshot for a symbol. Bids are
// sorted best-first descending, asks best-first ascending. Derived fields
// are nil when either side is empty.
func (c *Client) GetOrderBook(ctx context.Context, symbol string) (*models.OrderBook, error) {
	raw, err := c.info.L2Snapshot(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch order book for %s: %w", symbol, err)
	}

	levels, ok := raw["levels"].([]interface{})
	if !ok || len(levels) < 2 {
		return nil, fmt.Errorf("%w: l2 snapshot for %s missing levels", ErrUnexpectedResponseShape, symbol)
	}

	bids, err := parseBookSide(levels[0])
	if err != nil {
		return nil, fmt.Errorf("%w: bids for %s: %v", ErrUnexpectedResponseShape, symbol, err)
	}
	asks, err := parseBookSide(levels[1])
	if err != nil {
		return nil, fmt.Errorf("%w: asks for %s: %v", ErrUnexpectedResponseShape, symbol, err)
	}

	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })

	book := &models.OrderBook{Symbol: symbol, Bids: bids, Asks: asks}
	if len(bids) > 0 && len(asks) > 0 {
		bestBid := bids[0].Price
		bestAsk := asks[0].Price
		spread := bestAsk - bestBid
		mid := (bestBid + bestAsk) / 2
		book.BestBid = &bestBid
		book.BestAsk = &bestAsk
		book.Spread = &spread
		book.MidPrice = &mid
	}
	return book, nil
}

func parseBookSide(side interface{}) ([]models.OrderBookLevel, error) {
	entries, ok := side.([]interface{})
	if !ok {
		return nil, fmt.Errorf("side is not a list")
	}
	levels := make([]models.OrderBookLevel, 0, len(entries))
	for _, entry := range entries {
		raw, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("level is not an object")
		}
		level := models.OrderBookLevel{
			Price:      rawFloat(raw, "px"),
			Size:       rawFloat(raw, "sz"),
			OrderCount: int(rawFloat(raw, "n")),
		}
		if level.Price <= 0 {
			return nil, fmt.Errorf("level has no price")
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// OptimalLimitPrice derives a limit price from the live book by
// interpolating between the touch prices. Urgency 0 joins the queue at your
// side of the book, urgency 1 crosses to the opposite touch, and values in
// between scale linearly. When the book is unusable the mid price shifted by
// a small urgency-scaled premium is used instead. The result is not rounded;
// callers placing an order get the usual formatting there.
func (c *Client) OptimalLimitPrice(ctx context.Context, symbol, side string, urgency float64) (float64, error) {
	if side != "buy" && side != "sell" {
		return 0, invalidArgumentf("side must be buy or sell, got %q", side)
	}
	if urgency < 0 || urgency > 1 {
		return 0, invalidArgumentf("urgency must be within [0, 1], got %v", urgency)
	}

	book, err := c.GetOrderBook(ctx, symbol)
	if err == nil && book.BestBid != nil && book.BestAsk != nil {
		bid := *book.BestBid
		ask := *book.BestAsk
		if side == "buy" {
			return bid + urgency*(ask-bid), nil
		}
		return ask - urgency*(ask-bid), nil
	}
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Order book unavailable, falling back to mid price")
	}

	price, priceErr := c.GetPrice(ctx, symbol)
	if priceErr != nil {
		return 0, fmt.Errorf("%w: no order book and no mid price for %s", ErrMarketDataUnavailable, symbol)
	}
	premium := 0.001 * urgency
	if side == "buy" {
		return price * (1 + premium), nil
	}
	return price * (1 - premium), nil
}
