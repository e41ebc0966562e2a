package models

import (
	"github.com/shopspring/decimal"
)

type LeverageType string

const (
	LeverageTypeCross    LeverageType = "cross"
	LeverageTypeIsolated LeverageType = "isolated"
)

type Leverage struct {
	Type  LeverageType
	Value decimal.Decimal
}

// Position is a perpetual position materialized from a user-state fetch.
// A positive size is long, a negative size is short; size zero means no
// position and such entries are normally absent from the returned set.
type Position struct {
	Symbol           string
	Size             decimal.Decimal
	EntryPrice       decimal.Decimal
	Leverage         Leverage
	LiquidationPrice *decimal.Decimal
	MarginUsed       decimal.Decimal
	PositionValue    decimal.Decimal
	UnrealizedPnl    decimal.Decimal
	ReturnOnEquity   decimal.Decimal
}

func (p Position) IsLong() bool {
	return p.Size.IsPositive()
}

func (p Position) IsShort() bool {
	return p.Size.IsNegative()
}

// MarginSummary holds account-wide margin figures in USD. Derived fresh on
// every state fetch, never cached.
type MarginSummary struct {
	AccountValue          decimal.Decimal
	TotalMarginUsed       decimal.Decimal
	TotalNotionalPosition decimal.Decimal
	TotalRawUSD           decimal.Decimal
}

type AssetPosition struct {
	Position Position
	Type     string
}

// UserState is the normalized perpetuals account snapshot.
type UserState struct {
	MarginSummary      MarginSummary
	CrossMarginSummary MarginSummary
	Withdrawable       decimal.Decimal
	AssetPositions     []AssetPosition
}

// Positions returns the open positions contained in the state.
func (s UserState) Positions() []Position {
	positions := make([]Position, 0, len(s.AssetPositions))
	for _, ap := range s.AssetPositions {
		positions = append(positions, ap.Position)
	}
	return positions
}
