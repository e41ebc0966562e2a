package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	MainnetAPIURL = "https://api.hyperliquid.xyz"
	TestnetAPIURL = "https://api.hyperliquid-testnet.xyz"
)

// infoRequestsPerSecond caps unsigned /info traffic well below the exchange's
// published address-based limit.
const infoRequestsPerSecond = 10

// HTTPInfoClient implements InfoTransport against the unsigned /info
// endpoint. All calls are plain JSON POSTs; no credentials are involved.
type HTTPInfoClient struct {
	http    *resty.Client
	limiter *rate.Limiter
}

func NewHTTPInfoClient(baseURL string) *HTTPInfoClient {
	return &HTTPInfoClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
		limiter: rate.NewLimiter(rate.Limit(infoRequestsPerSecond), infoRequestsPerSecond),
	}
}

func (c *HTTPInfoClient) post(ctx context.Context, body map[string]interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/info")
	if err != nil {
		return fmt.Errorf("info request %q: %w", body["type"], err)
	}
	if resp.IsError() {
		return fmt.Errorf("info request %q: HTTP %d: %s", body["type"], resp.StatusCode(), resp.String())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("info request %q: decode: %w", body["type"], err)
	}
	return nil
}

func (c *HTTPInfoClient) UserState(ctx context.Context, address string) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.post(ctx, map[string]interface{}{"type": "clearinghouseState", "user": address}, &out)
	return out, err
}

func (c *HTTPInfoClient) SpotState(ctx context.Context, address string) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.post(ctx, map[string]interface{}{"type": "spotClearinghouseState", "user": address}, &out)
	return out, err
}

func (c *HTTPInfoClient) EVMState(ctx context.Context, address string) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.post(ctx, map[string]interface{}{"type": "evmState", "user": address}, &out)
	return out, err
}

func (c *HTTPInfoClient) AllMids(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	err := c.post(ctx, map[string]interface{}{"type": "allMids"}, &out)
	return out, err
}

func (c *HTTPInfoClient) L2Snapshot(ctx context.Context, symbol string) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.post(ctx, map[string]interface{}{"type": "l2Book", "coin": symbol}, &out)
	return out, err
}

func (c *HTTPInfoClient) FrontendOpenOrders(ctx context.Context, address string) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	err := c.post(ctx, map[string]interface{}{"type": "frontendOpenOrders", "user": address}, &out)
	return out, err
}

func (c *HTTPInfoClient) Meta(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.post(ctx, map[string]interface{}{"type": "meta"}, &out)
	return out, err
}

func (c *HTTPInfoClient) MetaAndAssetCtxs(ctx context.Context) ([]interface{}, error) {
	var out []interface{}
	err := c.post(ctx, map[string]interface{}{"type": "metaAndAssetCtxs"}, &out)
	return out, err
}
