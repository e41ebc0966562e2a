package hyperliquid

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/models"
)

// The exchange reports an order's kind as free text in the orderType field
// ("Stop Market", "Take Profit Limit", ...). The matching below is an
// external contract pinned by the exchange's frontend wording; all knowledge
// of it is isolated here.

// classifyOrderType derives an order's classification from its trigger flag
// and the exchange's textual order type.
func classifyOrderType(isTrigger bool, orderTypeText string) (models.OrderClass, models.TriggerTag) {
	if !isTrigger {
		return models.OrderClassLimit, ""
	}
	if strings.Contains(orderTypeText, "Take Profit") {
		return models.OrderClassTakeProfit, models.TriggerTagTakeProfit
	}
	if strings.Contains(orderTypeText, "Stop") {
		return models.OrderClassStopLoss, models.TriggerTagStopLoss
	}
	// Trigger order of unknown wording: keep the trigger shape but do not
	// guess a bracket role.
	return models.OrderClassLimit, ""
}

// convertOpenOrder maps one raw open-order entry into the domain shape.
func convertOpenOrder(raw map[string]interface{}) (models.Order, error) {
	oid := int64(rawFloat(raw, "oid"))
	if oid == 0 {
		return models.Order{}, fmt.Errorf("%w: open order missing oid", ErrUnexpectedResponseShape)
	}

	isTrigger := rawBool(raw, "isTrigger")
	orderTypeText := rawString(raw, "orderType", "")
	class, tag := classifyOrderType(isTrigger, orderTypeText)

	tif := models.TimeInForce(rawString(raw, "tif", string(models.TimeInForceGtc)))

	order := models.Order{
		OrderID:     strconv.FormatInt(oid, 10),
		Symbol:      rawString(raw, "coin", ""),
		IsBuy:       rawString(raw, "side", "") == "B", // B = bid, A = ask
		Size:        rawDecimal(raw, "sz"),
		ReduceOnly:  rawBool(raw, "reduceOnly"),
		Status:      models.OrderStatusOpen,
		TimeInForce: tif,
		CreatedAt:   time.UnixMilli(int64(rawFloat(raw, "timestamp"))),
		Class:       class,
	}

	if isTrigger {
		triggerPrice := rawDecimal(raw, "triggerPx")
		order.OrderType.Trigger = &models.TriggerOrderSpec{
			TriggerPrice: triggerPrice,
			// "Stop Limit" / "Take Profit Limit" rest as limit orders once
			// triggered; everything else executes at market.
			IsMarket: !strings.Contains(orderTypeText, "Limit"),
			Tag:      tag,
		}
		order.TriggerPrice = &triggerPrice
	} else {
		order.OrderType.Limit = &models.LimitOrderSpec{Tif: tif}
	}

	if limitPrice := rawOptDecimal(raw, "limitPx"); limitPrice != nil {
		order.LimitPrice = limitPrice
	}

	// The open-orders endpoint reports the remaining size in sz and the
	// original request in origSz; the difference is what already filled.
	origSize := rawDecimal(raw, "origSz")
	if !origSize.IsZero() {
		filled := origSize.Sub(order.Size)
		order.FilledSize = &filled
	}

	return order, nil
}

// GetBracketView derives the bracket for one symbol from the flat open-order
// set: the first resting limit order is treated as the entry, the first
// stop-loss and take-profit orders fill the protective legs. Empty fields
// mean no such leg is resting.
func (c *Client) GetBracketView(ctx context.Context, symbol string) (models.BracketView, error) {
	orders, err := c.GetOpenOrders(ctx, symbol)
	if err != nil {
		return models.BracketView{}, err
	}
	return bracketFromOrders(orders), nil
}

func bracketFromOrders(orders []models.Order) models.BracketView {
	var view models.BracketView
	for _, order := range orders {
		switch order.Class {
		case models.OrderClassStopLoss:
			if view.StopLossOrderID == "" {
				view.StopLossOrderID = order.OrderID
			}
		case models.OrderClassTakeProfit:
			if view.TakeProfitOrderID == "" {
				view.TakeProfitOrderID = order.OrderID
			}
		default:
			if view.EntryOrderID == "" {
				view.EntryOrderID = order.OrderID
			}
		}
	}
	return view
}
