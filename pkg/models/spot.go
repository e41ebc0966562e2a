package models

import (
	"github.com/shopspring/decimal"
)

// SpotTokenBalance is one token's spot holding priced in USD.
type SpotTokenBalance struct {
	Token         string
	Amount        decimal.Decimal
	USDValue      decimal.Decimal
	Price         decimal.Decimal
	Hold          decimal.Decimal
	EntryNotional decimal.Decimal
}

// Available is the amount not locked by open orders.
func (b SpotTokenBalance) Available() decimal.Decimal {
	return b.Amount.Sub(b.Hold)
}

// SpotState is the normalized spot account snapshot.
type SpotState struct {
	TotalBalance decimal.Decimal
	Tokens       map[string]SpotTokenBalance
}
