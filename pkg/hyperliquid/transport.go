package hyperliquid

import (
	"context"
)

// InfoTransport is the read side of the exchange boundary. Responses are the
// exchange's raw nested mappings; all normalization into domain types happens
// on this side of the contract.
type InfoTransport interface {
	UserState(ctx context.Context, address string) (map[string]interface{}, error)
	SpotState(ctx context.Context, address string) (map[string]interface{}, error)
	EVMState(ctx context.Context, address string) (map[string]interface{}, error)
	AllMids(ctx context.Context) (map[string]string, error)
	L2Snapshot(ctx context.Context, symbol string) (map[string]interface{}, error)
	FrontendOpenOrders(ctx context.Context, address string) ([]map[string]interface{}, error)
	Meta(ctx context.Context) (map[string]interface{}, error)
	MetaAndAssetCtxs(ctx context.Context) ([]interface{}, error)
}

// OrderSubmission is the wire-level order request handed to the signing
// transport. Size and prices are already formatted to exchange precision.
type OrderSubmission struct {
	Symbol     string
	IsBuy      bool
	Size       float64
	LimitPrice float64
	Type       OrderTypeWire
	ReduceOnly bool
}

// OrderTypeWire mirrors the exchange's order-type object: exactly one of
// Limit or Trigger is set.
type OrderTypeWire struct {
	Limit   *LimitWire
	Trigger *TriggerWire
}

type LimitWire struct {
	Tif      string
	PostOnly bool
}

type TriggerWire struct {
	TriggerPrice float64
	IsMarket     bool
	Tag          string // "sl" or "tp"
}

// RestingStatus is returned when a submission rests on the book.
type RestingStatus struct {
	OrderID int64
}

// FilledStatus is returned when a submission fills immediately.
type FilledStatus struct {
	OrderID      int64
	AveragePrice float64
	TotalSize    float64
}

// SubmissionResult is the structured outcome of a submit or modify call.
// Exactly one of Resting, Filled or Err is populated when Status is "ok";
// anything else is an unexpected shape.
type SubmissionResult struct {
	Status  string
	Resting *RestingStatus
	Filled  *FilledStatus
	Err     string
}

// ExchangeTransport is the write side of the exchange boundary: order
// submission, modification and cancellation, including request signing.
type ExchangeTransport interface {
	SubmitOrder(ctx context.Context, req OrderSubmission) (*SubmissionResult, error)
	ModifyOrder(ctx context.Context, orderID int64, req OrderSubmission) (*SubmissionResult, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
}
