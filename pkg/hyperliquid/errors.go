package hyperliquid

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired is returned when an operation needs signing
	// credentials and the client was built without an account.
	ErrAuthenticationRequired = errors.New("hyperliquid: authentication required")

	// ErrMarketDataUnavailable is returned when a book or price fetch failed
	// and no fallback is defined for the operation.
	ErrMarketDataUnavailable = errors.New("hyperliquid: market data unavailable")

	// ErrUnexpectedResponseShape is returned when an exchange response is
	// missing the keys the operation requires.
	ErrUnexpectedResponseShape = errors.New("hyperliquid: unexpected response shape")
)

// InvalidArgumentError reports a malformed caller input: bad address, out of
// range urgency factor, invalid side, non-positive size or price.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("hyperliquid: invalid argument: %s", e.Reason)
}

func invalidArgumentf(format string, args ...interface{}) error {
	return &InvalidArgumentError{Reason: fmt.Sprintf(format, args...)}
}

// PositionNotFoundError reports an SL/TP/close request for a symbol with no
// open position.
type PositionNotFoundError struct {
	Symbol string
}

func (e *PositionNotFoundError) Error() string {
	return fmt.Sprintf("hyperliquid: no open position for %s", e.Symbol)
}

// OrderRejectedError carries the exchange's structured rejection message
// verbatim.
type OrderRejectedError struct {
	Symbol  string
	Message string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("hyperliquid: order rejected for %s: %s", e.Symbol, e.Message)
}

// OrderModificationFailedError reports a modify request that failed or
// returned an unexpected shape.
type OrderModificationFailedError struct {
	OrderID string
	Cause   error
}

func (e *OrderModificationFailedError) Error() string {
	return fmt.Sprintf("hyperliquid: modification of order %s failed: %v", e.OrderID, e.Cause)
}

func (e *OrderModificationFailedError) Unwrap() error {
	return e.Cause
}
