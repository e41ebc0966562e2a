package hyperliquid

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/models"
)

// This file is the one place that knows the exchange's raw field names. Every
// domain field has an explicit source key or a zero default; numeric fields
// missing from a response normalize to "0" rather than failing.

func rawMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func rawSlice(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key].([]interface{}); ok {
		return v
	}
	return nil
}

func rawString(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func rawBool(m map[string]interface{}, key string) bool {
	v, _ := m[key].(bool)
	return v
}

// rawDecimal accepts the exchange's mixed numeric encodings: strings for
// amounts, raw JSON numbers for things like leverage.
func rawDecimal(m map[string]interface{}, key string) decimal.Decimal {
	switch v := m[key].(type) {
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	}
	return decimal.Zero
}

func rawOptDecimal(m map[string]interface{}, key string) *decimal.Decimal {
	if _, ok := m[key]; !ok {
		return nil
	}
	if m[key] == nil {
		return nil
	}
	d := rawDecimal(m, key)
	return &d
}

func rawFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func normalizeMarginSummary(raw map[string]interface{}) models.MarginSummary {
	return models.MarginSummary{
		AccountValue:          rawDecimal(raw, "accountValue"),
		TotalMarginUsed:       rawDecimal(raw, "totalMarginUsed"),
		TotalNotionalPosition: rawDecimal(raw, "totalNtlPos"),
		TotalRawUSD:           rawDecimal(raw, "totalRawUsd"),
	}
}

func normalizePosition(raw map[string]interface{}) models.Position {
	leverage := models.Leverage{Type: models.LeverageTypeCross, Value: decimal.NewFromInt(1)}
	if lev := rawMap(raw, "leverage"); lev != nil {
		leverage = models.Leverage{
			Type:  models.LeverageType(rawString(lev, "type", string(models.LeverageTypeCross))),
			Value: rawDecimal(lev, "value"),
		}
	}

	return models.Position{
		Symbol:           rawString(raw, "coin", ""),
		Size:             rawDecimal(raw, "szi"),
		EntryPrice:       rawDecimal(raw, "entryPx"),
		Leverage:         leverage,
		LiquidationPrice: rawOptDecimal(raw, "liquidationPx"),
		MarginUsed:       rawDecimal(raw, "marginUsed"),
		PositionValue:    rawDecimal(raw, "positionValue"),
		UnrealizedPnl:    rawDecimal(raw, "unrealizedPnl"),
		ReturnOnEquity:   rawDecimal(raw, "returnOnEquity"),
	}
}

// normalizeUserState maps a raw clearinghouse state into the domain shape.
// A response without marginSummary cannot be told apart from garbage, so it
// fails; everything below that level defaults to zero values.
func normalizeUserState(raw map[string]interface{}) (models.UserState, error) {
	marginRaw := rawMap(raw, "marginSummary")
	if marginRaw == nil {
		return models.UserState{}, fmt.Errorf("%w: user state missing marginSummary", ErrUnexpectedResponseShape)
	}

	state := models.UserState{
		MarginSummary:      normalizeMarginSummary(marginRaw),
		CrossMarginSummary: normalizeMarginSummary(rawMap(raw, "crossMarginSummary")),
		Withdrawable:       rawDecimal(raw, "withdrawable"),
	}

	for _, entry := range rawSlice(raw, "assetPositions") {
		entryMap, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		posRaw := rawMap(entryMap, "position")
		if posRaw == nil {
			continue
		}
		state.AssetPositions = append(state.AssetPositions, models.AssetPosition{
			Position: normalizePosition(posRaw),
			Type:     rawString(entryMap, "type", ""),
		})
	}

	return state, nil
}

// normalizeSpotBalance maps one raw spot balance entry; prices is the current
// mid-price table used to derive USD value.
func normalizeSpotBalance(raw map[string]interface{}, prices map[string]string) (models.SpotTokenBalance, bool) {
	token := rawString(raw, "coin", "")
	if token == "" {
		return models.SpotTokenBalance{}, false
	}
	amount := rawDecimal(raw, "total")
	if amount.IsZero() {
		return models.SpotTokenBalance{}, false
	}

	price := decimal.Zero
	if p, ok := prices[token]; ok {
		if d, err := decimal.NewFromString(p); err == nil {
			price = d
		}
	}

	return models.SpotTokenBalance{
		Token:         token,
		Amount:        amount,
		USDValue:      amount.Mul(price),
		Price:         price,
		Hold:          rawDecimal(raw, "hold"),
		EntryNotional: rawDecimal(raw, "entryNtl"),
	}, true
}

// normalizeMarketSpecs builds the per-symbol precision table from meta.
func normalizeMarketSpecs(meta map[string]interface{}) (map[string]models.MarketSpec, error) {
	universe := rawSlice(meta, "universe")
	if universe == nil {
		return nil, fmt.Errorf("%w: meta missing universe", ErrUnexpectedResponseShape)
	}

	specs := make(map[string]models.MarketSpec, len(universe))
	for _, entry := range universe {
		market, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		name := rawString(market, "name", "")
		if name == "" {
			continue
		}
		sizeDecimals := models.DefaultSizeDecimals
		if _, ok := market["szDecimals"]; ok {
			sizeDecimals = int(rawFloat(market, "szDecimals"))
		}
		specs[name] = models.MarketSpec{SizeDecimals: sizeDecimals}
	}
	return specs, nil
}
