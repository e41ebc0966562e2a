package hyperliquid

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPositions(t *testing.T) {
	info := &stubInfo{
		userState: userStateFixture(
			positionFixture("BTC", "0.5"),
			positionFixture("ETH", "-2.0"),
		),
	}
	client := newTestClient(info, &stubExchange{})

	positions, err := client.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.True(t, positions[0].IsLong())
	assert.True(t, positions[1].IsShort())
}

func TestGetPositions_RequiresAuth(t *testing.T) {
	client := NewWithTransports(&stubInfo{}, nil, nil, nil)

	_, err := client.GetPositions(context.Background())
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestGetPosition(t *testing.T) {
	info := &stubInfo{userState: userStateFixture(positionFixture("BTC", "0.5"))}
	client := newTestClient(info, &stubExchange{})
	ctx := context.Background()

	position, err := client.GetPosition(ctx, "BTC")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, "BTC", position.Symbol)

	missing, err := client.GetPosition(ctx, "SOL")
	require.NoError(t, err)
	assert.Nil(t, missing)

	has, err := client.HasPosition(ctx, "BTC")
	require.NoError(t, err)
	assert.True(t, has)

	direction, err := client.GetPositionDirection(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, "long", direction)

	direction, err = client.GetPositionDirection(ctx, "SOL")
	require.NoError(t, err)
	assert.Equal(t, "", direction)
}

func TestGetPrice(t *testing.T) {
	info := &stubInfo{mids: map[string]string{"BTC": "50000.5", "ETH": "3000"}}
	client := newTestClient(info, &stubExchange{})
	ctx := context.Background()

	price, err := client.GetPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, 50000.5, price)

	_, err = client.GetPrice(ctx, "NOPE")
	var invalidArg *InvalidArgumentError
	assert.ErrorAs(t, err, &invalidArg)
}

func TestGetPerpBalance(t *testing.T) {
	client := newTestClient(&stubInfo{userState: userStateFixture()}, &stubExchange{})

	balance, err := client.GetPerpBalance(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("1000.0")))
}

func TestGetSpotState(t *testing.T) {
	info := &stubInfo{
		spotState: map[string]interface{}{
			"balances": []interface{}{
				map[string]interface{}{"coin": "HYPE", "total": "10.0", "hold": "0"},
				map[string]interface{}{"coin": "USDC", "total": "100.0", "hold": "0"},
				map[string]interface{}{"coin": "DUST", "total": "0"},
			},
		},
		mids: map[string]string{"HYPE": "25.0", "USDC": "1.0"},
	}
	client := newTestClient(info, &stubExchange{})

	state, err := client.GetSpotState(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, state.Tokens, 2)
	assert.True(t, state.TotalBalance.Equal(decimal.RequireFromString("350.0")))
}

func TestGetEVMBalance(t *testing.T) {
	info := &stubInfo{
		evmState: map[string]interface{}{"totalBalance": "50.0"},
	}
	client := newTestClient(info, &stubExchange{})

	balance, err := client.GetEVMBalance(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("50.0")))
}

func TestGetEVMBalance_MissingField(t *testing.T) {
	client := newTestClient(&stubInfo{evmState: map[string]interface{}{}}, &stubExchange{})

	balance, err := client.GetEVMBalance(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestGetAllBalances(t *testing.T) {
	info := &stubInfo{
		userState: userStateFixture(),
		spotState: map[string]interface{}{
			"balances": []interface{}{
				map[string]interface{}{"coin": "USDC", "total": "100.0", "hold": "0"},
			},
		},
		mids:     map[string]string{"USDC": "1.0"},
		evmState: map[string]interface{}{"totalBalance": "50.0"},
	}
	client := newTestClient(info, &stubExchange{})

	total, err := client.GetAllBalances(context.Background(), "")
	require.NoError(t, err)
	// 1000 perp + 100 spot + 50 evm.
	assert.True(t, total.Equal(decimal.RequireFromString("1150.0")))
}

func TestGetFundingRates(t *testing.T) {
	info := &stubInfo{
		metaAndCtxs: []interface{}{
			map[string]interface{}{
				"universe": []interface{}{
					map[string]interface{}{"name": "BTC"},
					map[string]interface{}{"name": "ETH"},
					map[string]interface{}{"name": "SOL"},
				},
			},
			[]interface{}{
				map[string]interface{}{"funding": "0.0000125"},
				map[string]interface{}{"funding": "0.0000300"},
				map[string]interface{}{"funding": "-0.0000100"},
			},
		},
	}
	client := newTestClient(info, &stubExchange{})
	ctx := context.Background()

	rates, err := client.GetFundingRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 3)
	// Sorted highest first.
	assert.Equal(t, "ETH", rates[0].Symbol)
	assert.Equal(t, "SOL", rates[2].Symbol)

	rate, err := client.GetFundingRate(ctx, "BTC")
	require.NoError(t, err)
	assert.InDelta(t, 0.0000125, rate, 1e-12)
}

func TestGetFundingRates_BadShape(t *testing.T) {
	client := newTestClient(&stubInfo{metaAndCtxs: []interface{}{map[string]interface{}{}}}, &stubExchange{})

	_, err := client.GetFundingRates(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedResponseShape)
}

func TestCalculatePositionSize(t *testing.T) {
	info := &stubInfo{mids: map[string]string{"ETH": "3000"}}
	client := newTestClient(info, &stubExchange{})
	ctx := context.Background()

	// Risking 150 USD with the stop 100 USD away sizes to 1.5 units.
	size, err := client.CalculatePositionSize(ctx, "ETH",
		decimal.NewFromInt(150), decimal.NewFromInt(2900))
	require.NoError(t, err)
	assert.True(t, size.Equal(decimal.RequireFromString("1.5")))

	// Shorts risk upward moves.
	size, err = client.CalculatePositionSize(ctx, "ETH",
		decimal.NewFromInt(300), decimal.NewFromInt(3100))
	require.NoError(t, err)
	assert.True(t, size.Equal(decimal.NewFromInt(3)))

	_, err = client.CalculatePositionSize(ctx, "ETH",
		decimal.NewFromInt(100), decimal.NewFromInt(3000))
	var invalidArg *InvalidArgumentError
	assert.ErrorAs(t, err, &invalidArg)
}

func TestIsAuthenticated(t *testing.T) {
	assert.True(t, newTestClient(&stubInfo{}, &stubExchange{}).IsAuthenticated())
	assert.False(t, NewWithTransports(&stubInfo{}, nil, nil, nil).IsAuthenticated())
}
