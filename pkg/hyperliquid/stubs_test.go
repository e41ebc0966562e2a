package hyperliquid

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/models"
)

// stubInfo implements InfoTransport from canned data or per-method override
// functions, whichever a test sets.
type stubInfo struct {
	userState    map[string]interface{}
	userStateFn  func(address string) (map[string]interface{}, error)
	spotState    map[string]interface{}
	evmState     map[string]interface{}
	mids         map[string]string
	midsFn       func() (map[string]string, error)
	l2           map[string]interface{}
	l2Err        error
	openOrders   []map[string]interface{}
	openOrdersFn func() ([]map[string]interface{}, error)
	meta         map[string]interface{}
	metaAndCtxs  []interface{}
}

func (s *stubInfo) UserState(ctx context.Context, address string) (map[string]interface{}, error) {
	if s.userStateFn != nil {
		return s.userStateFn(address)
	}
	if s.userState == nil {
		return userStateFixture(), nil
	}
	return s.userState, nil
}

func (s *stubInfo) SpotState(ctx context.Context, address string) (map[string]interface{}, error) {
	return s.spotState, nil
}

func (s *stubInfo) EVMState(ctx context.Context, address string) (map[string]interface{}, error) {
	return s.evmState, nil
}

func (s *stubInfo) AllMids(ctx context.Context) (map[string]string, error) {
	if s.midsFn != nil {
		return s.midsFn()
	}
	if s.mids == nil {
		return map[string]string{}, nil
	}
	return s.mids, nil
}

func (s *stubInfo) L2Snapshot(ctx context.Context, symbol string) (map[string]interface{}, error) {
	if s.l2Err != nil {
		return nil, s.l2Err
	}
	return s.l2, nil
}

func (s *stubInfo) FrontendOpenOrders(ctx context.Context, address string) ([]map[string]interface{}, error) {
	if s.openOrdersFn != nil {
		return s.openOrdersFn()
	}
	return s.openOrders, nil
}

func (s *stubInfo) Meta(ctx context.Context) (map[string]interface{}, error) {
	return s.meta, nil
}

func (s *stubInfo) MetaAndAssetCtxs(ctx context.Context) ([]interface{}, error) {
	return s.metaAndCtxs, nil
}

// stubExchange records every call and answers with either an override
// function or a resting result with incrementing order IDs.
type stubExchange struct {
	mu          sync.Mutex
	submissions []OrderSubmission
	modified    []OrderSubmission
	modifiedIDs []int64
	cancelled   []int64
	nextOID     int64

	submitFn func(req OrderSubmission) (*SubmissionResult, error)
	modifyFn func(orderID int64, req OrderSubmission) (*SubmissionResult, error)
	cancelFn func(symbol string, orderID int64) error
}

func (s *stubExchange) SubmitOrder(ctx context.Context, req OrderSubmission) (*SubmissionResult, error) {
	s.mu.Lock()
	s.submissions = append(s.submissions, req)
	s.nextOID++
	oid := s.nextOID
	s.mu.Unlock()

	if s.submitFn != nil {
		return s.submitFn(req)
	}
	return &SubmissionResult{Status: "ok", Resting: &RestingStatus{OrderID: oid}}, nil
}

func (s *stubExchange) ModifyOrder(ctx context.Context, orderID int64, req OrderSubmission) (*SubmissionResult, error) {
	s.mu.Lock()
	s.modified = append(s.modified, req)
	s.modifiedIDs = append(s.modifiedIDs, orderID)
	s.mu.Unlock()

	if s.modifyFn != nil {
		return s.modifyFn(orderID, req)
	}
	return &SubmissionResult{Status: "ok", Resting: &RestingStatus{OrderID: orderID}}, nil
}

func (s *stubExchange) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	s.mu.Lock()
	s.cancelled = append(s.cancelled, orderID)
	s.mu.Unlock()

	if s.cancelFn != nil {
		return s.cancelFn(symbol, orderID)
	}
	return nil
}

func (s *stubExchange) lastSubmission() OrderSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissions[len(s.submissions)-1]
}

var testAccount = &models.Account{
	PublicAddress: "0x1234567890abcdef1234567890abcdef12345678",
	PrivateKey:    "abc123",
}

func newTestClient(info *stubInfo, exchange *stubExchange) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewWithTransports(info, exchange, testAccount, logger)
}

func positionFixture(coin, size string) map[string]interface{} {
	return map[string]interface{}{
		"type": "oneWay",
		"position": map[string]interface{}{
			"coin":           coin,
			"szi":            size,
			"entryPx":        "50000.0",
			"leverage":       map[string]interface{}{"type": "cross", "value": float64(10)},
			"liquidationPx":  "45000.0",
			"marginUsed":     "500.0",
			"positionValue":  "5000.0",
			"unrealizedPnl":  "25.0",
			"returnOnEquity": "0.05",
		},
	}
}

func userStateFixture(positions ...map[string]interface{}) map[string]interface{} {
	entries := make([]interface{}, 0, len(positions))
	for _, p := range positions {
		entries = append(entries, p)
	}
	return map[string]interface{}{
		"marginSummary": map[string]interface{}{
			"accountValue":    "1000.0",
			"totalMarginUsed": "100.0",
			"totalNtlPos":     "500.0",
			"totalRawUsd":     "1000.0",
		},
		"crossMarginSummary": map[string]interface{}{
			"accountValue": "1000.0",
		},
		"withdrawable":   "900.0",
		"assetPositions": entries,
	}
}

func openOrderFixture(oid int, coin, side, size string) map[string]interface{} {
	return map[string]interface{}{
		"oid":       float64(oid),
		"coin":      coin,
		"side":      side,
		"sz":        size,
		"origSz":    size,
		"limitPx":   "50000.0",
		"orderType": "Limit",
		"tif":       "Gtc",
		"timestamp": float64(1700000000000),
	}
}

func triggerOrderFixture(oid int, coin, orderType, triggerPx string) map[string]interface{} {
	order := openOrderFixture(oid, coin, "A", "0.1")
	order["orderType"] = orderType
	order["isTrigger"] = true
	order["triggerPx"] = triggerPx
	order["reduceOnly"] = true
	return order
}

func l2Fixture(bids, asks [][2]float64) map[string]interface{} {
	side := func(levels [][2]float64) []interface{} {
		out := make([]interface{}, 0, len(levels))
		for _, level := range levels {
			out = append(out, map[string]interface{}{
				"px": fmt.Sprintf("%v", level[0]),
				"sz": fmt.Sprintf("%v", level[1]),
				"n":  float64(1),
			})
		}
		return out
	}
	return map[string]interface{}{
		"coin":   "BTC",
		"levels": []interface{}{side(bids), side(asks)},
	}
}
