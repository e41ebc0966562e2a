package hyperliquid

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/models"
)

const (
	EnvMainnet = "mainnet"
	EnvTestnet = "testnet"
)

// Client is a simplified facade over the Hyperliquid API: account state,
// order lifecycle, position management and pricing conveniences. A client
// without an account serves public endpoints only.
type Client struct {
	env         string
	baseURL     string
	info        InfoTransport
	exchange    ExchangeTransport
	account     *models.Account
	marketSpecs map[string]models.MarketSpec
	logger      *logrus.Logger
}

// New builds a client for the given environment. A nil account first tries
// the HYPERLIQUID_* environment variables and falls back to unauthenticated
// mode if they are absent; an explicit account that fails validation is an
// error.
func New(account *models.Account, env string, logger *logrus.Logger) (*Client, error) {
	if env != EnvMainnet && env != EnvTestnet {
		return nil, invalidArgumentf("env must be %q or %q, got %q", EnvMainnet, EnvTestnet, env)
	}
	if logger == nil {
		logger = logrus.New()
	}

	baseURL := MainnetAPIURL
	if env == EnvTestnet {
		baseURL = TestnetAPIURL
	}

	c := &Client{
		env:     env,
		baseURL: baseURL,
		info:    NewHTTPInfoClient(baseURL),
		logger:  logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if specs, err := c.fetchMarketSpecs(ctx); err != nil {
		logger.WithError(err).Warn("Failed to fetch market specs, using defaults")
		c.marketSpecs = models.DefaultMarketSpecs()
	} else {
		c.marketSpecs = specs
	}

	explicit := account != nil
	if account == nil {
		if envAccount, err := models.AccountFromEnv(); err == nil {
			account = &envAccount
		} else {
			logger.WithError(err).Debug("Running unauthenticated, only public endpoints available")
		}
	}

	if account != nil {
		if err := c.authenticate(ctx, *account); err != nil {
			if explicit {
				return nil, err
			}
			logger.WithError(err).Debug("Running unauthenticated, only public endpoints available")
		}
	}

	return c, nil
}

// NewWithTransports builds a client over explicit transports. Used by tests
// and by callers that bring their own signing implementation.
func NewWithTransports(info InfoTransport, exchange ExchangeTransport, account *models.Account, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		env:         EnvMainnet,
		info:        info,
		exchange:    exchange,
		account:     account,
		marketSpecs: models.DefaultMarketSpecs(),
		logger:      logger,
	}
}

func (c *Client) authenticate(ctx context.Context, account models.Account) error {
	if err := account.Validate(); err != nil {
		return invalidArgumentf("account: %v", err)
	}
	exchange, err := NewSDKExchangeClient(ctx, account.PrivateKey, account.PublicAddress, c.baseURL)
	if err != nil {
		return fmt.Errorf("set up signing client: %w", err)
	}
	c.account = &account
	c.exchange = exchange
	return nil
}

// IsAuthenticated reports whether signing credentials are configured.
func (c *Client) IsAuthenticated() bool {
	return c.account != nil && c.exchange != nil
}

func (c *Client) requireAuth() error {
	if !c.IsAuthenticated() {
		return ErrAuthenticationRequired
	}
	return nil
}

// resolveAddress returns the given address or the authenticated one, and
// validates its shape.
func (c *Client) resolveAddress(address string) (string, error) {
	if address == "" {
		if !c.IsAuthenticated() {
			return "", ErrAuthenticationRequired
		}
		address = c.account.PublicAddress
	}
	if err := models.ValidateAddress(address); err != nil {
		return "", invalidArgumentf("%v", err)
	}
	return address, nil
}

// GetUserState fetches and normalizes the perpetuals account state for the
// given address, or the authenticated address when empty.
func (c *Client) GetUserState(ctx context.Context, address string) (models.UserState, error) {
	address, err := c.resolveAddress(address)
	if err != nil {
		return models.UserState{}, err
	}
	raw, err := c.info.UserState(ctx, address)
	if err != nil {
		return models.UserState{}, fmt.Errorf("fetch user state: %w", err)
	}
	return normalizeUserState(raw)
}

// GetPositions returns the authenticated user's open positions.
func (c *Client) GetPositions(ctx context.Context) ([]models.Position, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	state, err := c.GetUserState(ctx, "")
	if err != nil {
		return nil, err
	}
	return state.Positions(), nil
}

// GetPosition returns the open position for a symbol, or nil when there is
// none.
func (c *Client) GetPosition(ctx context.Context, symbol string) (*models.Position, error) {
	positions, err := c.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range positions {
		if positions[i].Symbol == symbol {
			return &positions[i], nil
		}
	}
	return nil, nil
}

// HasPosition reports whether a non-zero position exists for the symbol.
func (c *Client) HasPosition(ctx context.Context, symbol string) (bool, error) {
	position, err := c.GetPosition(ctx, symbol)
	if err != nil {
		return false, err
	}
	return position != nil && !position.Size.IsZero(), nil
}

// GetPositionSize returns the signed position size, or nil if no position.
func (c *Client) GetPositionSize(ctx context.Context, symbol string) (*decimal.Decimal, error) {
	position, err := c.GetPosition(ctx, symbol)
	if err != nil || position == nil {
		return nil, err
	}
	size := position.Size
	return &size, nil
}

// GetPositionDirection returns "long" or "short", or "" if no position.
func (c *Client) GetPositionDirection(ctx context.Context, symbol string) (string, error) {
	position, err := c.GetPosition(ctx, symbol)
	if err != nil || position == nil {
		return "", err
	}
	if position.IsShort() {
		return "short", nil
	}
	return "long", nil
}

// GetPrice returns the current mid price for a symbol. No authentication
// required.
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := c.GetAllPrices(ctx)
	if err != nil {
		return 0, err
	}
	price, ok := prices[symbol]
	if !ok {
		return 0, invalidArgumentf("symbol %s not found", symbol)
	}
	return price, nil
}

// GetAllPrices returns the current mid price for every symbol.
func (c *Client) GetAllPrices(ctx context.Context) (map[string]float64, error) {
	raw, err := c.info.AllMids(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarketDataUnavailable, err)
	}
	prices := make(map[string]float64, len(raw))
	for symbol, priceStr := range raw {
		if d, err := decimal.NewFromString(priceStr); err == nil {
			prices[symbol], _ = d.Float64()
		}
	}
	return prices, nil
}

// GetPerpBalance returns the perpetuals account value in USD.
func (c *Client) GetPerpBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	state, err := c.GetUserState(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return state.MarginSummary.AccountValue, nil
}

// GetSpotState returns the spot balances for an address, priced at current
// mids. Zero balances are omitted.
func (c *Client) GetSpotState(ctx context.Context, address string) (models.SpotState, error) {
	address, err := c.resolveAddress(address)
	if err != nil {
		return models.SpotState{}, err
	}
	raw, err := c.info.SpotState(ctx, address)
	if err != nil {
		return models.SpotState{}, fmt.Errorf("fetch spot state: %w", err)
	}
	prices, err := c.info.AllMids(ctx)
	if err != nil {
		return models.SpotState{}, fmt.Errorf("%w: %v", ErrMarketDataUnavailable, err)
	}

	state := models.SpotState{
		TotalBalance: decimal.Zero,
		Tokens:       make(map[string]models.SpotTokenBalance),
	}
	for _, entry := range rawSlice(raw, "balances") {
		entryMap, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		balance, ok := normalizeSpotBalance(entryMap, prices)
		if !ok {
			continue
		}
		state.Tokens[balance.Token] = balance
		state.TotalBalance = state.TotalBalance.Add(balance.USDValue)
	}
	return state, nil
}

// GetSpotBalance returns the total spot balance in USD.
func (c *Client) GetSpotBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	state, err := c.GetSpotState(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return state.TotalBalance, nil
}

// GetEVMBalance returns the HyperEVM chain balance in USD. A missing
// totalBalance field normalizes to zero like every other amount.
func (c *Client) GetEVMBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	address, err := c.resolveAddress(address)
	if err != nil {
		return decimal.Zero, err
	}
	raw, err := c.info.EVMState(ctx, address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch evm state: %w", err)
	}
	return rawDecimal(raw, "totalBalance"), nil
}

// GetAllBalances returns the sum of perp, spot and EVM balances in USD.
func (c *Client) GetAllBalances(ctx context.Context, address string) (decimal.Decimal, error) {
	perp, err := c.GetPerpBalance(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	spot, err := c.GetSpotBalance(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	evm, err := c.GetEVMBalance(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return perp.Add(spot).Add(evm), nil
}

// MarketSpecs returns the precision table currently in use.
func (c *Client) MarketSpecs() map[string]models.MarketSpec {
	specs := make(map[string]models.MarketSpec, len(c.marketSpecs))
	for symbol, spec := range c.marketSpecs {
		specs[symbol] = spec
	}
	return specs
}

// RefreshMarketSpecs refetches the precision table from the exchange.
func (c *Client) RefreshMarketSpecs(ctx context.Context) error {
	specs, err := c.fetchMarketSpecs(ctx)
	if err != nil {
		return err
	}
	c.marketSpecs = specs
	return nil
}

func (c *Client) fetchMarketSpecs(ctx context.Context) (map[string]models.MarketSpec, error) {
	meta, err := c.info.Meta(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch meta: %w", err)
	}
	return normalizeMarketSpecs(meta)
}

// GetFundingRates returns current funding rates for all symbols, sorted from
// highest to lowest.
func (c *Client) GetFundingRates(ctx context.Context) ([]models.FundingRate, error) {
	response, err := c.info.MetaAndAssetCtxs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarketDataUnavailable, err)
	}
	if len(response) < 2 {
		return nil, fmt.Errorf("%w: metaAndAssetCtxs returned %d elements", ErrUnexpectedResponseShape, len(response))
	}
	meta, ok := response[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: metaAndAssetCtxs meta element", ErrUnexpectedResponseShape)
	}
	ctxs, ok := response[1].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: metaAndAssetCtxs context element", ErrUnexpectedResponseShape)
	}

	universe := rawSlice(meta, "universe")
	rates := make([]models.FundingRate, 0, len(universe))
	for i, entry := range universe {
		if i >= len(ctxs) {
			break
		}
		market, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		assetCtx, ok := ctxs[i].(map[string]interface{})
		if !ok {
			continue
		}
		name := rawString(market, "name", "")
		if name == "" {
			continue
		}
		rates = append(rates, models.FundingRate{
			Symbol: name,
			Rate:   rawFloat(assetCtx, "funding"),
		})
	}

	sort.Slice(rates, func(i, j int) bool { return rates[i].Rate > rates[j].Rate })
	return rates, nil
}

// GetFundingRate returns the current funding rate for one symbol.
func (c *Client) GetFundingRate(ctx context.Context, symbol string) (float64, error) {
	rates, err := c.GetFundingRates(ctx)
	if err != nil {
		return 0, err
	}
	for _, rate := range rates {
		if rate.Symbol == symbol {
			return rate.Rate, nil
		}
	}
	return 0, invalidArgumentf("symbol %s not found", symbol)
}

// CalculatePositionSize sizes a position so the loss at the stop equals the
// given risk amount, quantized to the symbol's size decimals.
func (c *Client) CalculatePositionSize(ctx context.Context, symbol string, riskAmount, stopLossPrice decimal.Decimal) (decimal.Decimal, error) {
	price, err := c.GetPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	currentPrice := decimal.NewFromFloat(price)

	var riskPerUnit decimal.Decimal
	switch currentPrice.Cmp(stopLossPrice) {
	case 1:
		riskPerUnit = currentPrice.Sub(stopLossPrice)
	case -1:
		riskPerUnit = stopLossPrice.Sub(currentPrice)
	default:
		return decimal.Zero, invalidArgumentf("stop loss price equals current price")
	}

	size := riskAmount.Div(riskPerUnit)
	decimals := int32(models.DefaultSizeDecimals)
	if spec, ok := c.marketSpecs[symbol]; ok {
		decimals = int32(spec.SizeDecimals)
	}
	return size.Round(decimals), nil
}
