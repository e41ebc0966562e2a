package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	MainnetWSURL = "wss://api.hyperliquid.xyz/ws"
	TestnetWSURL = "wss://api.hyperliquid-testnet.xyz/ws"
)

// PriceHandler receives mid-price updates keyed by symbol.
type PriceHandler func(prices map[string]float64)

// PriceStream maintains a websocket subscription to the allMids feed and
// caches the latest mid prices. It is a live alternative to polling the
// info endpoint for prices.
type PriceStream struct {
	url       string
	conn      *websocket.Conn
	mu        sync.Mutex
	connected bool
	handler   PriceHandler
	prices    map[string]float64
	logger    *logrus.Logger
}

type wsSubscribeMessage struct {
	Method       string         `json:"method"`
	Subscription wsSubscription `json:"subscription"`
}

type wsSubscription struct {
	Type string `json:"type"`
}

type wsEnvelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type wsAllMids struct {
	Mids map[string]string `json:"mids"`
}

// NewPriceStream returns a stream for the given websocket endpoint. The
// handler may be nil when only GetPrice polling of the cache is needed.
func NewPriceStream(url string, handler PriceHandler, logger *logrus.Logger) *PriceStream {
	return &PriceStream{
		url:     url,
		handler: handler,
		prices:  make(map[string]float64),
		logger:  logger,
	}
}

// Connect dials the endpoint, subscribes to allMids and starts the read and
// keepalive loops. Connecting twice is a no-op.
func (ps *PriceStream) Connect(ctx context.Context) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.connected {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, ps.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}

	sub := wsSubscribeMessage{
		Method:       "subscribe",
		Subscription: wsSubscription{Type: "allMids"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe to allMids: %w", err)
	}

	ps.conn = conn
	ps.connected = true

	go ps.readLoop(ctx)
	go ps.keepAlive(ctx)

	return nil
}

// GetPrice returns the cached mid price for a symbol.
func (ps *PriceStream) GetPrice(symbol string) (float64, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	price, ok := ps.prices[symbol]
	return price, ok
}

// Connected reports whether the stream currently holds a live connection.
func (ps *PriceStream) Connected() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.connected
}

func (ps *PriceStream) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ps.handleDisconnect()
			return
		default:
			var msg wsEnvelope
			err := ps.conn.ReadJSON(&msg)
			if err != nil {
				ps.logger.WithError(err).Error("Failed to read websocket message")
				ps.handleDisconnect()
				return
			}

			if msg.Channel != "allMids" {
				continue
			}
			var mids wsAllMids
			if err := json.Unmarshal(msg.Data, &mids); err != nil {
				ps.logger.WithError(err).Error("Failed to decode allMids payload")
				continue
			}
			ps.applyMids(mids.Mids)
		}
	}
}

func (ps *PriceStream) applyMids(mids map[string]string) {
	snapshot := make(map[string]float64, len(mids))

	ps.mu.Lock()
	for symbol, raw := range mids {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		ps.prices[symbol] = price
		snapshot[symbol] = price
	}
	handler := ps.handler
	ps.mu.Unlock()

	if handler != nil && len(snapshot) > 0 {
		handler(snapshot)
	}
}

func (ps *PriceStream) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ps.mu.Lock()
			if ps.connected {
				if err := ps.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					ps.logger.WithError(err).Error("Failed to send ping")
					ps.mu.Unlock()
					ps.handleDisconnect()
					continue
				}
			}
			ps.mu.Unlock()
		}
	}
}

func (ps *PriceStream) handleDisconnect() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.connected = false
	if ps.conn != nil {
		ps.conn.Close()
	}
}
