package hyperliquid

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/models"
)

// marketOrderSlippage is applied to the mid price when synthesizing market
// orders: buys pay up to +0.5%, sells accept down to -0.5%.
const marketOrderSlippage = 0.005

// cancelSettleDelay gives the exchange time to process a cancellation before
// the replacement order is submitted in the cancel-then-recreate fallback.
var cancelSettleDelay = 500 * time.Millisecond

// CreateOrderParams describes a single order request. A nil LimitPrice
// synthesizes a market order from the current mid price plus slippage.
type CreateOrderParams struct {
	Symbol      string
	Size        float64
	IsBuy       bool
	LimitPrice  *float64
	ReduceOnly  bool
	PostOnly    bool
	TimeInForce models.TimeInForce
}

// CreateOrder validates, formats and submits an order, and interprets the
// structured result into a resting or filled Order.
func (c *Client) CreateOrder(ctx context.Context, params CreateOrderParams) (models.Order, error) {
	if err := c.requireAuth(); err != nil {
		return models.Order{}, err
	}
	if params.Size <= 0 {
		return models.Order{}, invalidArgumentf("size must be positive, got %v", params.Size)
	}
	if params.LimitPrice != nil && *params.LimitPrice <= 0 {
		return models.Order{}, invalidArgumentf("limit price must be positive, got %v", *params.LimitPrice)
	}

	tif := params.TimeInForce
	if tif == "" {
		tif = models.TimeInForceGtc
	}
	if params.PostOnly && tif == models.TimeInForceIoc {
		return models.Order{}, invalidArgumentf("post-only cannot be combined with Ioc")
	}

	var limitPrice float64
	if params.LimitPrice != nil {
		limitPrice = *params.LimitPrice
	} else {
		// Market order: take the mid and cross the spread with a bounded
		// slippage allowance, then format like any other price.
		currentPrice, err := c.GetPrice(ctx, params.Symbol)
		if err != nil {
			return models.Order{}, err
		}
		if params.IsBuy {
			limitPrice = currentPrice * (1 + marketOrderSlippage)
		} else {
			limitPrice = currentPrice * (1 - marketOrderSlippage)
		}
	}

	size, limitPrice := c.formatOrder(params.Symbol, params.Size, limitPrice)

	submission := OrderSubmission{
		Symbol:     params.Symbol,
		IsBuy:      params.IsBuy,
		Size:       size,
		LimitPrice: limitPrice,
		Type: OrderTypeWire{
			Limit: &LimitWire{Tif: string(tif), PostOnly: params.PostOnly},
		},
		ReduceOnly: params.ReduceOnly,
	}

	result, err := c.exchange.SubmitOrder(ctx, submission)
	if err != nil {
		return models.Order{}, fmt.Errorf("submit order: %w", err)
	}

	spec := models.OrderTypeSpec{Limit: &models.LimitOrderSpec{Tif: tif, PostOnly: params.PostOnly}}
	return c.interpretSubmission(result, params.Symbol, params.IsBuy, size, limitPrice, params.ReduceOnly, tif, spec)
}

// interpretSubmission turns a structured submission result into an Order.
// An embedded error surfaces as OrderRejected with the exchange's message
// verbatim; a result carrying neither resting nor filled is malformed.
func (c *Client) interpretSubmission(
	result *SubmissionResult,
	symbol string,
	isBuy bool,
	size, price float64,
	reduceOnly bool,
	tif models.TimeInForce,
	spec models.OrderTypeSpec,
) (models.Order, error) {
	if result == nil {
		return models.Order{}, fmt.Errorf("%w: nil submission result", ErrUnexpectedResponseShape)
	}
	if result.Err != "" {
		return models.Order{}, &OrderRejectedError{Symbol: symbol, Message: result.Err}
	}
	if result.Status != "ok" {
		return models.Order{}, fmt.Errorf("%w: submission status %q", ErrUnexpectedResponseShape, result.Status)
	}

	class := models.OrderClassLimit
	var triggerPrice *decimal.Decimal
	if spec.Trigger != nil {
		tp := spec.Trigger.TriggerPrice
		triggerPrice = &tp
		switch spec.Trigger.Tag {
		case models.TriggerTagStopLoss:
			class = models.OrderClassStopLoss
		case models.TriggerTagTakeProfit:
			class = models.OrderClassTakeProfit
		}
	}

	priceDec := decimal.NewFromFloat(price)
	order := models.Order{
		Symbol:       symbol,
		IsBuy:        isBuy,
		Size:         decimal.NewFromFloat(size),
		OrderType:    spec,
		ReduceOnly:   reduceOnly,
		TimeInForce:  tif,
		CreatedAt:    time.Now(),
		LimitPrice:   &priceDec,
		TriggerPrice: triggerPrice,
		Class:        class,
	}

	switch {
	case result.Resting != nil:
		order.OrderID = strconv.FormatInt(result.Resting.OrderID, 10)
		order.Status = models.OrderStatusOpen
	case result.Filled != nil:
		order.OrderID = strconv.FormatInt(result.Filled.OrderID, 10)
		order.Status = models.OrderStatusFilled
		filledSize := decimal.NewFromFloat(size)
		avgPrice := decimal.NewFromFloat(result.Filled.AveragePrice)
		order.FilledSize = &filledSize
		order.AverageFillPrice = &avgPrice
	default:
		return models.Order{}, fmt.Errorf("%w: submission result has neither resting nor filled", ErrUnexpectedResponseShape)
	}
	return order, nil
}

// Buy places a buy order. Without a limit price it is a market order with
// Ioc time in force, so an unfilled remainder never rests.
func (c *Client) Buy(ctx context.Context, symbol string, size float64, limitPrice *float64) (models.Order, error) {
	return c.CreateOrder(ctx, CreateOrderParams{
		Symbol:      symbol,
		Size:        size,
		IsBuy:       true,
		LimitPrice:  limitPrice,
		TimeInForce: tifForEntry(limitPrice),
	})
}

// Sell places a sell order, market when no limit price is given.
func (c *Client) Sell(ctx context.Context, symbol string, size float64, limitPrice *float64) (models.Order, error) {
	return c.CreateOrder(ctx, CreateOrderParams{
		Symbol:      symbol,
		Size:        size,
		IsBuy:       false,
		LimitPrice:  limitPrice,
		TimeInForce: tifForEntry(limitPrice),
	})
}

func tifForEntry(limitPrice *float64) models.TimeInForce {
	if limitPrice != nil {
		return models.TimeInForceGtc
	}
	return models.TimeInForceIoc
}

// StopLoss places a reduce-only stop-loss trigger for an existing position.
// isBuy is true for a short position's stop.
func (c *Client) StopLoss(ctx context.Context, symbol string, size, triggerPrice float64, isBuy bool) (models.Order, error) {
	return c.placeTrigger(ctx, symbol, size, triggerPrice, isBuy, models.TriggerTagStopLoss)
}

// TakeProfit places a reduce-only take-profit trigger for an existing
// position. isBuy is true for a short position's take profit.
func (c *Client) TakeProfit(ctx context.Context, symbol string, size, triggerPrice float64, isBuy bool) (models.Order, error) {
	return c.placeTrigger(ctx, symbol, size, triggerPrice, isBuy, models.TriggerTagTakeProfit)
}

func (c *Client) placeTrigger(ctx context.Context, symbol string, size, triggerPrice float64, isBuy bool, tag models.TriggerTag) (models.Order, error) {
	if err := c.requireAuth(); err != nil {
		return models.Order{}, err
	}
	if size <= 0 {
		return models.Order{}, invalidArgumentf("size must be positive, got %v", size)
	}
	if triggerPrice <= 0 {
		return models.Order{}, invalidArgumentf("trigger price must be positive, got %v", triggerPrice)
	}

	position, err := c.GetPosition(ctx, symbol)
	if err != nil {
		return models.Order{}, err
	}
	if position == nil {
		return models.Order{}, &PositionNotFoundError{Symbol: symbol}
	}

	size, triggerPrice = c.formatOrder(symbol, size, triggerPrice)

	submission := OrderSubmission{
		Symbol:     symbol,
		IsBuy:      isBuy,
		Size:       size,
		LimitPrice: triggerPrice,
		Type: OrderTypeWire{
			Trigger: &TriggerWire{TriggerPrice: triggerPrice, IsMarket: true, Tag: string(tag)},
		},
		ReduceOnly: true,
	}

	result, err := c.exchange.SubmitOrder(ctx, submission)
	if err != nil {
		return models.Order{}, fmt.Errorf("submit %s order: %w", tag, err)
	}

	spec := models.OrderTypeSpec{
		Trigger: &models.TriggerOrderSpec{
			TriggerPrice: decimal.NewFromFloat(triggerPrice),
			IsMarket:     true,
			Tag:          tag,
		},
	}
	return c.interpretSubmission(result, symbol, isBuy, size, triggerPrice, true, models.TimeInForceGtc, spec)
}

// Close closes a position with an immediate-or-cancel reduce-only order.
// When position is nil the current one is fetched; no position is an error.
func (c *Client) Close(ctx context.Context, symbol string, position *models.Position) (models.Order, error) {
	if err := c.requireAuth(); err != nil {
		return models.Order{}, err
	}
	if position == nil {
		found, err := c.GetPosition(ctx, symbol)
		if err != nil {
			return models.Order{}, err
		}
		position = found
	}
	if position == nil || position.Size.IsZero() {
		return models.Order{}, &PositionNotFoundError{Symbol: symbol}
	}

	size, _ := position.Size.Abs().Float64()
	return c.CreateOrder(ctx, CreateOrderParams{
		Symbol:      symbol,
		Size:        size,
		IsBuy:       position.Size.IsNegative(), // buy to close shorts
		ReduceOnly:  true,
		TimeInForce: models.TimeInForceIoc,
	})
}

// CloseAllPositions closes every open position. Per-position failures are
// logged and skipped; the call only fails when positions cannot be listed.
func (c *Client) CloseAllPositions(ctx context.Context) (map[string]models.Order, error) {
	positions, err := c.GetPositions(ctx)
	if err != nil {
		return nil, err
	}

	results := make(map[string]models.Order)
	for i := range positions {
		position := positions[i]
		order, err := c.Close(ctx, position.Symbol, &position)
		if err != nil {
			c.logger.WithError(err).WithField("symbol", position.Symbol).Error("Failed to close position")
			continue
		}
		results[position.Symbol] = order
	}
	return results, nil
}

// GetOpenOrders returns the open orders, optionally filtered by symbol.
// Orders that fail conversion are logged and skipped rather than failing
// the whole call.
func (c *Client) GetOpenOrders(ctx context.Context, symbol string) ([]models.Order, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}

	rawOrders, err := c.info.FrontendOpenOrders(ctx, c.account.PublicAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch open orders: %w", err)
	}

	orders := make([]models.Order, 0, len(rawOrders))
	for _, raw := range rawOrders {
		if symbol != "" && rawString(raw, "coin", "") != symbol {
			continue
		}
		order, err := convertOpenOrder(raw)
		if err != nil {
			c.logger.WithError(err).WithField("order", raw).Error("Skipping unconvertible open order")
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// GetOrderByID returns the open order with the given ID, or nil.
func (c *Client) GetOrderByID(ctx context.Context, symbol, orderID string) (*models.Order, error) {
	orders, err := c.GetOpenOrders(ctx, symbol)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].OrderID == orderID {
			return &orders[i], nil
		}
	}
	return nil, nil
}

// HasActiveOrders reports whether any open orders exist for the symbol, or
// at all when symbol is empty.
func (c *Client) HasActiveOrders(ctx context.Context, symbol string) (bool, error) {
	orders, err := c.GetOpenOrders(ctx, symbol)
	if err != nil {
		return false, err
	}
	return len(orders) > 0, nil
}

// GetStopLossPrice returns the trigger price of the first resting stop-loss
// order for the symbol, or nil when none exists. With several stop-loss
// orders the first in response order wins; that tie-break is arbitrary, not
// a recency guarantee.
func (c *Client) GetStopLossPrice(ctx context.Context, symbol string) (*decimal.Decimal, error) {
	return c.firstTriggerPrice(ctx, symbol, models.OrderClassStopLoss)
}

// GetTakeProfitPrice returns the trigger price of the first resting
// take-profit order for the symbol, or nil when none exists. Same first-wins
// tie-break as GetStopLossPrice.
func (c *Client) GetTakeProfitPrice(ctx context.Context, symbol string) (*decimal.Decimal, error) {
	return c.firstTriggerPrice(ctx, symbol, models.OrderClassTakeProfit)
}

func (c *Client) firstTriggerPrice(ctx context.Context, symbol string, class models.OrderClass) (*decimal.Decimal, error) {
	orders, err := c.GetOpenOrders(ctx, symbol)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		if order.Class == class && order.TriggerPrice != nil {
			price := *order.TriggerPrice
			return &price, nil
		}
	}
	return nil, nil
}

// ModifyOrder submits an in-place modification. Any non-ok status or
// embedded error fails as OrderModificationFailed.
func (c *Client) ModifyOrder(
	ctx context.Context,
	orderID string,
	symbol string,
	isBuy bool,
	size, price float64,
	spec models.OrderTypeSpec,
	reduceOnly bool,
) (models.Order, error) {
	if err := c.requireAuth(); err != nil {
		return models.Order{}, err
	}

	oid, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return models.Order{}, invalidArgumentf("order id %q is not numeric", orderID)
	}

	size, price = c.formatOrder(symbol, size, price)

	submission := OrderSubmission{
		Symbol:     symbol,
		IsBuy:      isBuy,
		Size:       size,
		LimitPrice: price,
		Type:       wireFromSpec(spec, price),
		ReduceOnly: reduceOnly,
	}

	result, err := c.exchange.ModifyOrder(ctx, oid, submission)
	if err != nil {
		return models.Order{}, &OrderModificationFailedError{OrderID: orderID, Cause: err}
	}

	// Refresh the trigger price in the spec to the formatted value so the
	// returned order reflects what the exchange accepted.
	if spec.Trigger != nil {
		trigger := *spec.Trigger
		trigger.TriggerPrice = decimal.NewFromFloat(price)
		spec.Trigger = &trigger
	}

	tif := models.TimeInForceGtc
	if spec.Limit != nil && spec.Limit.Tif != "" {
		tif = spec.Limit.Tif
	}

	order, err := c.interpretSubmission(result, symbol, isBuy, size, price, reduceOnly, tif, spec)
	if err != nil {
		return models.Order{}, &OrderModificationFailedError{OrderID: orderID, Cause: err}
	}
	return order, nil
}

// UpdateStopLoss moves the position's stop loss to newPrice: creating one if
// none rests, modifying in place otherwise, and falling back to cancel and
// recreate when the modification is refused. The fallback has a window where
// the position is unprotected; a recreation failure after cancellation is
// surfaced to the caller rather than swallowed.
func (c *Client) UpdateStopLoss(ctx context.Context, symbol string, newPrice float64) (models.Order, error) {
	return c.updateTrigger(ctx, symbol, newPrice, models.OrderClassStopLoss, models.TriggerTagStopLoss)
}

// UpdateTakeProfit moves the position's take profit to newPrice with the
// same create/modify/recreate behavior as UpdateStopLoss.
func (c *Client) UpdateTakeProfit(ctx context.Context, symbol string, newPrice float64) (models.Order, error) {
	return c.updateTrigger(ctx, symbol, newPrice, models.OrderClassTakeProfit, models.TriggerTagTakeProfit)
}

func (c *Client) updateTrigger(ctx context.Context, symbol string, newPrice float64, class models.OrderClass, tag models.TriggerTag) (models.Order, error) {
	if err := c.requireAuth(); err != nil {
		return models.Order{}, err
	}

	position, err := c.GetPosition(ctx, symbol)
	if err != nil {
		return models.Order{}, err
	}
	if position == nil || position.Size.IsZero() {
		return models.Order{}, &PositionNotFoundError{Symbol: symbol}
	}
	size, _ := position.Size.Abs().Float64()
	isBuy := position.IsShort()

	place := func() (models.Order, error) {
		if tag == models.TriggerTagStopLoss {
			return c.StopLoss(ctx, symbol, size, newPrice, isBuy)
		}
		return c.TakeProfit(ctx, symbol, size, newPrice, isBuy)
	}

	orders, err := c.GetOpenOrders(ctx, symbol)
	if err != nil {
		return models.Order{}, err
	}
	var existing []models.Order
	for _, order := range orders {
		if order.Class == class {
			existing = append(existing, order)
		}
	}

	if len(existing) == 0 {
		return place()
	}

	first := existing[0]
	orderSize, _ := first.Size.Float64()
	spec := models.OrderTypeSpec{
		Trigger: &models.TriggerOrderSpec{
			TriggerPrice: decimal.NewFromFloat(newPrice),
			IsMarket:     true,
			Tag:          tag,
		},
	}

	modified, err := c.ModifyOrder(ctx, first.OrderID, symbol, first.IsBuy, orderSize, newPrice, spec, true)
	if err == nil {
		return modified, nil
	}
	c.logger.WithError(err).WithFields(logrus.Fields{
		"symbol": symbol,
		"order":  first.OrderID,
	}).Warn("Modify failed, falling back to cancel and recreate")

	// Best-effort cancellation of every order of this class; a partial
	// failure still proceeds to the replacement so the position does not
	// stay guarded by a stale trigger.
	for _, order := range existing {
		if err := c.CancelOrder(ctx, symbol, order.OrderID); err != nil {
			c.logger.WithError(err).WithField("order", order.OrderID).Warn("Failed to cancel order during recreate")
			continue
		}
		time.Sleep(cancelSettleDelay)
	}

	return place()
}

// CancelOrder cancels a single order.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	oid, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return invalidArgumentf("order id %q is not numeric", orderID)
	}
	return c.exchange.CancelOrder(ctx, symbol, oid)
}

// CancelAllOrders cancels every open order, optionally only for one symbol.
// Cancellation is not atomic across orders on the exchange side, so each one
// is cancelled independently: a per-order failure is logged and the rest
// proceed. Only a failure to list the orders fails the call.
func (c *Client) CancelAllOrders(ctx context.Context, symbol string) error {
	orders, err := c.GetOpenOrders(ctx, symbol)
	if err != nil {
		return err
	}
	for _, order := range orders {
		if err := c.CancelOrder(ctx, order.Symbol, order.OrderID); err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"symbol": order.Symbol,
				"order":  order.OrderID,
			}).Warn("Failed to cancel order")
		}
	}
	return nil
}

// PositionParams describes a bundled entry with optional protective legs.
type PositionParams struct {
	Symbol          string
	Size            float64
	LimitPrice      *float64
	StopLossPrice   *float64
	TakeProfitPrice *float64
}

// OpenLongPosition opens a long and optionally attaches stop-loss and
// take-profit triggers. The legs are placed one after another; a leg failure
// is returned with the orders placed so far.
func (c *Client) OpenLongPosition(ctx context.Context, params PositionParams) (map[string]models.Order, error) {
	return c.openPosition(ctx, params, true)
}

// OpenShortPosition opens a short and optionally attaches protective legs.
func (c *Client) OpenShortPosition(ctx context.Context, params PositionParams) (map[string]models.Order, error) {
	return c.openPosition(ctx, params, false)
}

func (c *Client) openPosition(ctx context.Context, params PositionParams, isLong bool) (map[string]models.Order, error) {
	referencePrice := 0.0
	if params.LimitPrice != nil {
		referencePrice = *params.LimitPrice
	} else {
		price, err := c.GetPrice(ctx, params.Symbol)
		if err != nil {
			return nil, err
		}
		referencePrice = price
	}

	if params.StopLossPrice != nil {
		if isLong && *params.StopLossPrice >= referencePrice {
			return nil, invalidArgumentf("stop loss price must be below entry price for longs")
		}
		if !isLong && *params.StopLossPrice <= referencePrice {
			return nil, invalidArgumentf("stop loss price must be above entry price for shorts")
		}
	}
	if params.TakeProfitPrice != nil {
		if isLong && *params.TakeProfitPrice <= referencePrice {
			return nil, invalidArgumentf("take profit price must be above entry price for longs")
		}
		if !isLong && *params.TakeProfitPrice >= referencePrice {
			return nil, invalidArgumentf("take profit price must be below entry price for shorts")
		}
	}

	var entry models.Order
	var err error
	if isLong {
		entry, err = c.Buy(ctx, params.Symbol, params.Size, params.LimitPrice)
	} else {
		entry, err = c.Sell(ctx, params.Symbol, params.Size, params.LimitPrice)
	}
	if err != nil {
		return nil, err
	}
	orders := map[string]models.Order{"entry": entry}

	// Protective legs close against the entry direction.
	legIsBuy := !isLong
	if params.StopLossPrice != nil {
		stopLoss, err := c.StopLoss(ctx, params.Symbol, params.Size, *params.StopLossPrice, legIsBuy)
		if err != nil {
			return orders, err
		}
		orders["stop_loss"] = stopLoss
	}
	if params.TakeProfitPrice != nil {
		takeProfit, err := c.TakeProfit(ctx, params.Symbol, params.Size, *params.TakeProfitPrice, legIsBuy)
		if err != nil {
			return orders, err
		}
		orders["take_profit"] = takeProfit
	}
	return orders, nil
}

func wireFromSpec(spec models.OrderTypeSpec, price float64) OrderTypeWire {
	if spec.Trigger != nil {
		return OrderTypeWire{
			Trigger: &TriggerWire{
				TriggerPrice: price,
				IsMarket:     spec.Trigger.IsMarket,
				Tag:          string(spec.Trigger.Tag),
			},
		}
	}
	tif := string(models.TimeInForceGtc)
	postOnly := false
	if spec.Limit != nil {
		if spec.Limit.Tif != "" {
			tif = string(spec.Limit.Tif)
		}
		postOnly = spec.Limit.PostOnly
	}
	return OrderTypeWire{Limit: &LimitWire{Tif: tif, PostOnly: postOnly}}
}
