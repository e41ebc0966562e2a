package hyperliquid

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trailingWorld is a mutable exchange state backing the trailing stop tests:
// one position, one resting stop order, one mid price.
type trailingWorld struct {
	mu           sync.Mutex
	price        float64
	positionSize string // "" means no position
	stopPrice    float64
	stopOID      int
}

func (w *trailingWorld) info() *stubInfo {
	return &stubInfo{
		userStateFn: func(address string) (map[string]interface{}, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.positionSize == "" {
				return userStateFixture(), nil
			}
			return userStateFixture(positionFixture("BTC", w.positionSize)), nil
		},
		midsFn: func() (map[string]string, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			return map[string]string{"BTC": fmt.Sprintf("%v", w.price)}, nil
		},
		openOrdersFn: func() ([]map[string]interface{}, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.stopPrice == 0 {
				return nil, nil
			}
			return []map[string]interface{}{
				triggerOrderFixture(w.stopOID, "BTC", "Stop Market", fmt.Sprintf("%v", w.stopPrice)),
			}, nil
		},
	}
}

func (w *trailingWorld) exchange() *stubExchange {
	ex := &stubExchange{}
	ex.submitFn = func(req OrderSubmission) (*SubmissionResult, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if req.Type.Trigger != nil {
			w.stopOID++
			w.stopPrice = req.Type.Trigger.TriggerPrice
		}
		return &SubmissionResult{Status: "ok", Resting: &RestingStatus{OrderID: int64(w.stopOID)}}, nil
	}
	ex.modifyFn = func(orderID int64, req OrderSubmission) (*SubmissionResult, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if req.Type.Trigger != nil {
			w.stopPrice = req.Type.Trigger.TriggerPrice
		}
		return &SubmissionResult{Status: "ok", Resting: &RestingStatus{OrderID: orderID}}, nil
	}
	return ex
}

func (w *trailingWorld) setPrice(p float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.price = p
}

func (w *trailingWorld) stop() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopPrice
}

func TestNewTrailingStopController_Validation(t *testing.T) {
	client := newTestClient(&stubInfo{}, &stubExchange{})
	var invalidArg *InvalidArgumentError

	_, err := NewTrailingStopController(client, TrailingStopConfig{TrailPercent: 2})
	assert.ErrorAs(t, err, &invalidArg)

	_, err = NewTrailingStopController(client, TrailingStopConfig{Symbol: "BTC", TrailPercent: 0})
	assert.ErrorAs(t, err, &invalidArg)

	_, err = NewTrailingStopController(client, TrailingStopConfig{Symbol: "BTC", TrailPercent: 100})
	assert.ErrorAs(t, err, &invalidArg)

	controller, err := NewTrailingStopController(client, TrailingStopConfig{Symbol: "BTC", TrailPercent: 2})
	require.NoError(t, err)
	assert.NotNil(t, controller)
}

func TestTrailingStop_LongRatchetsUpOnly(t *testing.T) {
	world := &trailingWorld{price: 100, positionSize: "1.0", stopPrice: 98, stopOID: 1}
	client := newTestClient(world.info(), world.exchange())

	controller, err := NewTrailingStopController(client, TrailingStopConfig{Symbol: "BTC", TrailPercent: 2})
	require.NoError(t, err)
	controller.referencePrice = 100
	ctx := context.Background()

	// Price moves up: the stop follows at 2% behind.
	world.setPrice(110)
	done, err := controller.tick(ctx, true)
	require.NoError(t, err)
	assert.False(t, done)
	assert.InDelta(t, 107.8, world.stop(), 1e-9)

	// Retracement: the stop stays where it is.
	world.setPrice(105)
	done, err = controller.tick(ctx, true)
	require.NoError(t, err)
	assert.False(t, done)
	assert.InDelta(t, 107.8, world.stop(), 1e-9)

	// New high: the stop advances again.
	world.setPrice(120)
	done, err = controller.tick(ctx, true)
	require.NoError(t, err)
	assert.False(t, done)
	assert.InDelta(t, 117.6, world.stop(), 1e-9)
}

func TestTrailingStop_ShortRatchetsDownOnly(t *testing.T) {
	world := &trailingWorld{price: 100, positionSize: "-1.0", stopPrice: 102, stopOID: 1}
	client := newTestClient(world.info(), world.exchange())

	controller, err := NewTrailingStopController(client, TrailingStopConfig{Symbol: "BTC", TrailPercent: 2})
	require.NoError(t, err)
	controller.referencePrice = 100
	ctx := context.Background()

	world.setPrice(90)
	done, err := controller.tick(ctx, false)
	require.NoError(t, err)
	assert.False(t, done)
	assert.InDelta(t, 91.8, world.stop(), 1e-9)

	// Bounce: stop does not retreat.
	world.setPrice(95)
	_, err = controller.tick(ctx, false)
	require.NoError(t, err)
	assert.InDelta(t, 91.8, world.stop(), 1e-9)
}

func TestTrailingStop_TerminalConditions(t *testing.T) {
	world := &trailingWorld{price: 100, positionSize: "1.0", stopPrice: 98, stopOID: 1}
	client := newTestClient(world.info(), world.exchange())

	controller, err := NewTrailingStopController(client, TrailingStopConfig{Symbol: "BTC", TrailPercent: 2})
	require.NoError(t, err)
	controller.referencePrice = 100
	ctx := context.Background()

	// Stop order vanished: terminal, not an error.
	world.mu.Lock()
	world.stopPrice = 0
	world.mu.Unlock()
	done, err := controller.tick(ctx, true)
	require.NoError(t, err)
	assert.True(t, done)

	// Position closed: terminal as well.
	world.mu.Lock()
	world.stopPrice = 98
	world.positionSize = ""
	world.mu.Unlock()
	done, err = controller.tick(ctx, true)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestTrailingStop_SeedKeepsTighterExistingStop(t *testing.T) {
	// Stop at 99 is tighter than the 2% trail behind the mid at 100;
	// starting the controller must leave it alone.
	world := &trailingWorld{price: 100, positionSize: "1.0", stopPrice: 99, stopOID: 1}
	client := newTestClient(world.info(), world.exchange())

	controller, err := NewTrailingStopController(client, TrailingStopConfig{Symbol: "BTC", TrailPercent: 2})
	require.NoError(t, err)

	require.NoError(t, controller.seed(context.Background(), 100, true))
	assert.InDelta(t, 99, world.stop(), 1e-9)
}

func TestTrailingStop_SeedPlacesStopWhenAbsent(t *testing.T) {
	world := &trailingWorld{price: 100, positionSize: "1.0"}
	client := newTestClient(world.info(), world.exchange())

	controller, err := NewTrailingStopController(client, TrailingStopConfig{Symbol: "BTC", TrailPercent: 2})
	require.NoError(t, err)

	require.NoError(t, controller.seed(context.Background(), 100, true))
	assert.InDelta(t, 98, world.stop(), 1e-9)
}

func TestTrailingStop_SeedTightensLooseStop(t *testing.T) {
	world := &trailingWorld{price: 100, positionSize: "1.0", stopPrice: 90, stopOID: 1}
	client := newTestClient(world.info(), world.exchange())

	controller, err := NewTrailingStopController(client, TrailingStopConfig{Symbol: "BTC", TrailPercent: 2})
	require.NoError(t, err)

	require.NoError(t, controller.seed(context.Background(), 100, true))
	assert.InDelta(t, 98, world.stop(), 1e-9)
}

func TestTrailingStop_RunRequiresPosition(t *testing.T) {
	client := newTestClient(&stubInfo{userState: userStateFixture()}, &stubExchange{})

	controller, err := NewTrailingStopController(client, TrailingStopConfig{Symbol: "BTC", TrailPercent: 2})
	require.NoError(t, err)

	var notFound *PositionNotFoundError
	err = controller.Run(context.Background())
	assert.ErrorAs(t, err, &notFound)
}

func TestTrailingStop_StopFor(t *testing.T) {
	controller := &TrailingStopController{config: TrailingStopConfig{TrailPercent: 2}}

	assert.InDelta(t, 98, controller.stopFor(100, true), 1e-9)
	assert.InDelta(t, 102, controller.stopFor(100, false), 1e-9)
}
