package hyperliquid

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// TrailingStopConfig configures a trailing stop loop for one symbol.
type TrailingStopConfig struct {
	Symbol       string
	TrailPercent float64
	// Interval between price checks. Defaults to 30s.
	Interval time.Duration
}

// TrailingStopController ratchets a position's stop loss behind the best
// observed price. The stop only ever moves in the position's favor: a price
// retracement leaves it where it is.
type TrailingStopController struct {
	client *Client
	config TrailingStopConfig
	logger *logrus.Logger

	// referencePrice is the best price seen since the loop started, from the
	// position's point of view.
	referencePrice float64
}

// NewTrailingStopController validates the config and returns a controller
// ready to Run.
func NewTrailingStopController(client *Client, config TrailingStopConfig) (*TrailingStopController, error) {
	if config.Symbol == "" {
		return nil, invalidArgumentf("symbol is required")
	}
	if config.TrailPercent <= 0 || config.TrailPercent >= 100 {
		return nil, invalidArgumentf("trail percent must be within (0, 100), got %v", config.TrailPercent)
	}
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	return &TrailingStopController{
		client: client,
		config: config,
		logger: client.logger,
	}, nil
}

// Run seeds the initial stop and then polls until the context is cancelled,
// the position disappears, or the stop order vanishes out from under us.
// Position-gone and stop-vanished are normal terminal conditions, not
// errors.
func (t *TrailingStopController) Run(ctx context.Context) error {
	position, err := t.client.GetPosition(ctx, t.config.Symbol)
	if err != nil {
		return err
	}
	if position == nil || position.Size.IsZero() {
		return &PositionNotFoundError{Symbol: t.config.Symbol}
	}
	isLong := position.IsLong()

	price, err := t.client.GetPrice(ctx, t.config.Symbol)
	if err != nil {
		return err
	}
	t.referencePrice = price

	if err := t.seed(ctx, price, isLong); err != nil {
		return err
	}

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			done, err := t.tick(ctx, isLong)
			if err != nil {
				t.logger.WithError(err).WithField("symbol", t.config.Symbol).Error("Trailing stop check failed")
				continue
			}
			if done {
				return nil
			}
		}
	}
}

// seed places the initial stop, but only when no stop rests yet or when the
// trailed level is tighter than the one already in place. A pre-existing
// tighter stop is never loosened.
func (t *TrailingStopController) seed(ctx context.Context, price float64, isLong bool) error {
	candidate := t.stopFor(price, isLong)

	currentStop, err := t.client.GetStopLossPrice(ctx, t.config.Symbol)
	if err != nil {
		return err
	}
	if currentStop != nil {
		stop, _ := currentStop.Float64()
		tighter := (isLong && candidate > stop) || (!isLong && candidate < stop)
		if !tighter {
			t.logger.WithFields(logrus.Fields{
				"symbol": t.config.Symbol,
				"price":  price,
				"stop":   stop,
				"trail":  t.config.TrailPercent,
			}).Info("Trailing stop started, keeping existing stop")
			return nil
		}
	}

	if _, err := t.client.UpdateStopLoss(ctx, t.config.Symbol, candidate); err != nil {
		return fmt.Errorf("seed trailing stop: %w", err)
	}
	t.logger.WithFields(logrus.Fields{
		"symbol": t.config.Symbol,
		"price":  price,
		"stop":   candidate,
		"trail":  t.config.TrailPercent,
	}).Info("Trailing stop started")
	return nil
}

// tick runs one trailing check. It returns done=true on a terminal
// condition and a non-nil error for transient failures worth retrying.
func (t *TrailingStopController) tick(ctx context.Context, isLong bool) (bool, error) {
	position, err := t.client.GetPosition(ctx, t.config.Symbol)
	if err != nil {
		return false, err
	}
	if position == nil || position.Size.IsZero() {
		t.logger.WithField("symbol", t.config.Symbol).Info("Position closed, trailing stop finished")
		return true, nil
	}

	currentStop, err := t.client.GetStopLossPrice(ctx, t.config.Symbol)
	if err != nil {
		return false, err
	}
	if currentStop == nil {
		t.logger.WithField("symbol", t.config.Symbol).Warn("Stop loss order vanished, stopping trail")
		return true, nil
	}

	price, err := t.client.GetPrice(ctx, t.config.Symbol)
	if err != nil {
		return false, err
	}

	improved := (isLong && price > t.referencePrice) || (!isLong && price < t.referencePrice)
	if !improved {
		return false, nil
	}
	t.referencePrice = price

	candidate := t.stopFor(price, isLong)
	stop, _ := currentStop.Float64()
	tighter := (isLong && candidate > stop) || (!isLong && candidate < stop)
	if !tighter {
		return false, nil
	}

	if _, err := t.client.UpdateStopLoss(ctx, t.config.Symbol, candidate); err != nil {
		return false, err
	}
	t.logger.WithFields(logrus.Fields{
		"symbol": t.config.Symbol,
		"price":  price,
		"stop":   candidate,
	}).Info("Trailing stop advanced")
	return false, nil
}

func (t *TrailingStopController) stopFor(price float64, isLong bool) float64 {
	if isLong {
		return price * (1 - t.config.TrailPercent/100)
	}
	return price * (1 + t.config.TrailPercent/100)
}
