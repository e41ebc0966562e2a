package models

// MarketSpec holds the per-symbol precision rules the exchange enforces.
type MarketSpec struct {
	SizeDecimals  int
	PriceDecimals int // informational; price rounding is significant-figure based
}

// DefaultSizeDecimals is used for symbols missing from the spec table.
const DefaultSizeDecimals = 3

// DefaultMarketSpecs is the fallback table used when the meta fetch fails at
// client construction.
func DefaultMarketSpecs() map[string]MarketSpec {
	return map[string]MarketSpec{
		"BTC":   {SizeDecimals: 5},
		"ETH":   {SizeDecimals: 4},
		"SOL":   {SizeDecimals: 2},
		"AVAX":  {SizeDecimals: 2},
		"DOGE":  {SizeDecimals: 0},
		"XRP":   {SizeDecimals: 0},
		"ARB":   {SizeDecimals: 1},
		"OP":    {SizeDecimals: 1},
		"LINK":  {SizeDecimals: 1},
		"LTC":   {SizeDecimals: 2},
		"BNB":   {SizeDecimals: 3},
		"MATIC": {SizeDecimals: 1},
		"ATOM":  {SizeDecimals: 2},
		"APT":   {SizeDecimals: 2},
		"SUI":   {SizeDecimals: 1},
		"WLD":   {SizeDecimals: 1},
		"INJ":   {SizeDecimals: 1},
		"SEI":   {SizeDecimals: 0},
		"TIA":   {SizeDecimals: 1},
		"HYPE":  {SizeDecimals: 2},
	}
}

type OrderBookLevel struct {
	Price      float64
	Size       float64
	OrderCount int
}

// OrderBook is an ephemeral depth snapshot. Bids are sorted descending by
// price, asks ascending. When either side is empty, BestBid/BestAsk/Spread/
// MidPrice are all nil.
type OrderBook struct {
	Symbol   string
	Bids     []OrderBookLevel
	Asks     []OrderBookLevel
	BestBid  *float64
	BestAsk  *float64
	Spread   *float64
	MidPrice *float64
}

// FundingRate is one symbol's current hourly funding rate.
type FundingRate struct {
	Symbol string
	Rate   float64
}
