package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimeInForce string

const (
	TimeInForceGtc TimeInForce = "Gtc" // good till cancel
	TimeInForceIoc TimeInForce = "Ioc" // immediate or cancel
	TimeInForceAlo TimeInForce = "Alo" // add liquidity only
)

type OrderStatus string

const (
	OrderStatusOpen   OrderStatus = "open"
	OrderStatusFilled OrderStatus = "filled"
)

// OrderClass is derived, not returned by the exchange: trigger orders tagged
// "sl" classify as stop-loss, "tp" as take-profit, everything else is limit.
type OrderClass string

const (
	OrderClassLimit      OrderClass = "limit"
	OrderClassStopLoss   OrderClass = "stop_loss"
	OrderClassTakeProfit OrderClass = "take_profit"
)

type TriggerTag string

const (
	TriggerTagStopLoss   TriggerTag = "sl"
	TriggerTagTakeProfit TriggerTag = "tp"
)

type LimitOrderSpec struct {
	Tif      TimeInForce
	PostOnly bool
}

type TriggerOrderSpec struct {
	TriggerPrice decimal.Decimal
	IsMarket     bool
	Tag          TriggerTag
}

// OrderTypeSpec is a tagged variant: exactly one of Limit or Trigger is set.
type OrderTypeSpec struct {
	Limit   *LimitOrderSpec
	Trigger *TriggerOrderSpec
}

func (s OrderTypeSpec) IsTrigger() bool {
	return s.Trigger != nil
}

type Order struct {
	OrderID          string
	Symbol           string
	IsBuy            bool
	Size             decimal.Decimal
	OrderType        OrderTypeSpec
	ReduceOnly       bool
	Status           OrderStatus
	TimeInForce      TimeInForce
	CreatedAt        time.Time
	LimitPrice       *decimal.Decimal
	TriggerPrice     *decimal.Decimal
	FilledSize       *decimal.Decimal
	AverageFillPrice *decimal.Decimal
	Class            OrderClass
}

func (o Order) IsResting() bool {
	return o.Status == OrderStatusOpen
}

func (o Order) IsFilled() bool {
	return o.Status == OrderStatusFilled
}

// BracketView is the derived bracket for one symbol, computed on demand from
// the flat open-order set. The exchange has no native OCO grouping.
type BracketView struct {
	EntryOrderID      string
	StopLossOrderID   string
	TakeProfitOrderID string
}
