package hyperliquid

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/models"
)

func TestClassifyOrderType(t *testing.T) {
	tests := []struct {
		name      string
		isTrigger bool
		text      string
		wantClass models.OrderClass
		wantTag   models.TriggerTag
	}{
		{"plain limit", false, "Limit", models.OrderClassLimit, ""},
		{"stop market", true, "Stop Market", models.OrderClassStopLoss, models.TriggerTagStopLoss},
		{"stop limit", true, "Stop Limit", models.OrderClassStopLoss, models.TriggerTagStopLoss},
		{"take profit market", true, "Take Profit Market", models.OrderClassTakeProfit, models.TriggerTagTakeProfit},
		{"take profit limit", true, "Take Profit Limit", models.OrderClassTakeProfit, models.TriggerTagTakeProfit},
		{"unknown trigger wording", true, "Twap", models.OrderClassLimit, models.TriggerTag("")},
		{"stop text without trigger flag", false, "Stop Market", models.OrderClassLimit, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, tag := classifyOrderType(tt.isTrigger, tt.text)
			assert.Equal(t, tt.wantClass, class)
			assert.Equal(t, tt.wantTag, tag)
		})
	}
}

func TestConvertOpenOrder(t *testing.T) {
	raw := openOrderFixture(123, "BTC", "B", "0.4")
	raw["origSz"] = "1.0"

	order, err := convertOpenOrder(raw)
	require.NoError(t, err)

	assert.Equal(t, "123", order.OrderID)
	assert.Equal(t, "BTC", order.Symbol)
	assert.True(t, order.IsBuy)
	assert.True(t, order.Size.Equal(decimal.RequireFromString("0.4")))
	assert.Equal(t, models.OrderStatusOpen, order.Status)
	assert.Equal(t, models.OrderClassLimit, order.Class)
	assert.Equal(t, models.TimeInForceGtc, order.TimeInForce)
	require.NotNil(t, order.LimitPrice)
	require.NotNil(t, order.FilledSize)
	assert.True(t, order.FilledSize.Equal(decimal.RequireFromString("0.6")))
}

func TestConvertOpenOrder_Trigger(t *testing.T) {
	order, err := convertOpenOrder(triggerOrderFixture(55, "ETH", "Stop Market", "2800.0"))
	require.NoError(t, err)

	assert.Equal(t, models.OrderClassStopLoss, order.Class)
	assert.True(t, order.ReduceOnly)
	assert.False(t, order.IsBuy)
	require.NotNil(t, order.TriggerPrice)
	assert.True(t, order.TriggerPrice.Equal(decimal.RequireFromString("2800.0")))
	require.NotNil(t, order.OrderType.Trigger)
	assert.Equal(t, models.TriggerTagStopLoss, order.OrderType.Trigger.Tag)
	assert.True(t, order.OrderType.Trigger.IsMarket)
}

func TestConvertOpenOrder_TriggerLimitVariants(t *testing.T) {
	// Stop Limit and Take Profit Limit rest as limit orders once triggered.
	order, err := convertOpenOrder(triggerOrderFixture(56, "ETH", "Stop Limit", "2800.0"))
	require.NoError(t, err)
	require.NotNil(t, order.OrderType.Trigger)
	assert.False(t, order.OrderType.Trigger.IsMarket)

	order, err = convertOpenOrder(triggerOrderFixture(57, "ETH", "Take Profit Limit", "3200.0"))
	require.NoError(t, err)
	require.NotNil(t, order.OrderType.Trigger)
	assert.False(t, order.OrderType.Trigger.IsMarket)
}

func TestConvertOpenOrder_MissingOID(t *testing.T) {
	_, err := convertOpenOrder(map[string]interface{}{"coin": "BTC"})
	assert.ErrorIs(t, err, ErrUnexpectedResponseShape)
}

func TestGetBracketView(t *testing.T) {
	info := &stubInfo{
		openOrders: []map[string]interface{}{
			openOrderFixture(1, "BTC", "B", "0.5"),
			triggerOrderFixture(2, "BTC", "Stop Market", "48000.0"),
			triggerOrderFixture(3, "BTC", "Take Profit Market", "55000.0"),
			// Duplicates must not displace the first match.
			triggerOrderFixture(4, "BTC", "Stop Market", "47000.0"),
		},
	}
	client := newTestClient(info, &stubExchange{})

	view, err := client.GetBracketView(context.Background(), "BTC")
	require.NoError(t, err)

	assert.Equal(t, "1", view.EntryOrderID)
	assert.Equal(t, "2", view.StopLossOrderID)
	assert.Equal(t, "3", view.TakeProfitOrderID)
}

func TestGetBracketView_Empty(t *testing.T) {
	client := newTestClient(&stubInfo{}, &stubExchange{})

	view, err := client.GetBracketView(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, models.BracketView{}, view)
}
