package hyperliquid

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
	hl "github.com/sonirico/go-hyperliquid"
)

// SDKExchangeClient implements ExchangeTransport on top of the
// go-hyperliquid SDK, which carries the wallet signing and action encoding.
// The rest of the system only sees the narrow ExchangeTransport contract.
type SDKExchangeClient struct {
	exchange *hl.Exchange
}

// NewSDKExchangeClient parses the private key, derives the wallet address
// when one is not supplied, fetches meta and builds the signing client.
func NewSDKExchangeClient(ctx context.Context, privateKeyHex, walletAddress, baseURL string) (*SDKExchangeClient, error) {
	pk, err := crypto.HexToECDSA(stripHexPrefix(privateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if walletAddress == "" {
		walletAddress = crypto.PubkeyToAddress(pk.PublicKey).Hex()
	}

	info := hl.NewInfo(ctx, baseURL, true, nil, nil)
	meta, err := info.Meta(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch meta: %w", err)
	}

	exchange := hl.NewExchange(ctx, pk, baseURL, meta, "", walletAddress, nil)
	return &SDKExchangeClient{exchange: exchange}, nil
}

func stripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func (c *SDKExchangeClient) SubmitOrder(ctx context.Context, req OrderSubmission) (*SubmissionResult, error) {
	res, err := c.exchange.Order(ctx, toSDKOrderRequest(req), nil)
	if err != nil {
		return nil, err
	}
	return fromSDKOrderStatus(res), nil
}

func (c *SDKExchangeClient) ModifyOrder(ctx context.Context, orderID int64, req OrderSubmission) (*SubmissionResult, error) {
	res, err := c.exchange.ModifyOrder(ctx, toSDKModifyRequest(orderID, req))
	if err != nil {
		return nil, err
	}
	return fromSDKOrderStatus(res), nil
}

func (c *SDKExchangeClient) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	_, err := c.exchange.Cancel(ctx, symbol, orderID)
	return err
}

func toSDKOrderRequest(req OrderSubmission) hl.CreateOrderRequest {
	out := hl.CreateOrderRequest{
		Coin:       req.Symbol,
		IsBuy:      req.IsBuy,
		Size:       req.Size,
		Price:      req.LimitPrice,
		ReduceOnly: req.ReduceOnly,
	}

	switch {
	case req.Type.Trigger != nil:
		out.OrderType = hl.OrderType{
			Trigger: &hl.TriggerOrderType{
				TriggerPx: req.Type.Trigger.TriggerPrice,
				IsMarket:  req.Type.Trigger.IsMarket,
				Tpsl:      hl.Tpsl(req.Type.Trigger.Tag),
			},
		}
	case req.Type.Limit != nil:
		tif := hl.Tif(req.Type.Limit.Tif)
		if req.Type.Limit.PostOnly {
			// Post-only maps to the add-liquidity-only time in force.
			tif = hl.TifAlo
		}
		out.OrderType = hl.OrderType{
			Limit: &hl.LimitOrderType{Tif: tif},
		}
	}
	return out
}

func toSDKModifyRequest(orderID int64, req OrderSubmission) hl.ModifyOrderRequest {
	return hl.ModifyOrderRequest{
		Oid:   &orderID,
		Order: toSDKOrderRequest(req),
	}
}

func fromSDKOrderStatus(res hl.OrderStatus) *SubmissionResult {
	out := &SubmissionResult{Status: "ok"}
	if res.Error != nil {
		out.Err = *res.Error
		return out
	}
	if res.Resting != nil {
		out.Resting = &RestingStatus{OrderID: res.Resting.Oid}
		return out
	}
	if res.Filled != nil {
		avgPx, _ := strconv.ParseFloat(res.Filled.AvgPx, 64)
		totalSz, _ := strconv.ParseFloat(res.Filled.TotalSz, 64)
		out.Filled = &FilledStatus{
			OrderID:      int64(res.Filled.Oid),
			AveragePrice: avgPx,
			TotalSize:    totalSz,
		}
		return out
	}
	return &SubmissionResult{Status: "ok"}
}
