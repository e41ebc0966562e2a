package hyperliquid

import (
	"math"
	"strconv"

	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/models"
)

// Exchange precision rules: sizes round to the symbol's szDecimals, prices
// round to 5 significant figures, and prices above 100k round to integers.
// Submissions with looser precision are rejected at the exchange boundary,
// so these transforms must match the exchange exactly.

const priceSignificantFigures = 5

// integerPriceThreshold: above this, prices carry no fractional component.
const integerPriceThreshold = 100_000

// FormatPrice applies the exchange's price rounding.
func FormatPrice(price float64) float64 {
	if price > integerPriceThreshold {
		return math.Round(price)
	}
	rounded, err := strconv.ParseFloat(
		strconv.FormatFloat(price, 'g', priceSignificantFigures, 64), 64)
	if err != nil {
		return price
	}
	return rounded
}

// FormatSize rounds a size to the symbol's size decimals. Unknown symbols
// use the default of 3 decimals.
func FormatSize(specs map[string]models.MarketSpec, symbol string, size float64) float64 {
	decimals := models.DefaultSizeDecimals
	if spec, ok := specs[symbol]; ok {
		decimals = spec.SizeDecimals
	}
	rounded, err := strconv.ParseFloat(
		strconv.FormatFloat(size, 'f', decimals, 64), 64)
	if err != nil {
		return size
	}
	return rounded
}

// formatOrder applies both transforms ahead of a submit or modify. Market
// order prices go through this only after slippage has been added.
func (c *Client) formatOrder(symbol string, size, price float64) (float64, float64) {
	return FormatSize(c.marketSpecs, symbol, size), FormatPrice(price)
}
