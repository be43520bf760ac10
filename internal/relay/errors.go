package relay

import (
	"errors"
	"fmt"

	"github.com/trogers1052/watchlist-alert-relay/internal/models"
)

// Input errors, detected before any external call
var (
	ErrMissingFields = errors.New("missing required fields: ticker and price")
	ErrInvalidPrice  = errors.New("price must be positive")
)

// NotFoundError reports a ticker with no watchlist entry
type NotFoundError struct {
	Ticker string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ticker %s not found in watchlist", e.Ticker)
}

func (e *NotFoundError) Unwrap() error {
	return models.ErrTickerNotFound
}

// LookupError wraps a watchlist store failure
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string {
	return "watchlist lookup failed: " + e.Err.Error()
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// DeliveryError wraps a notification transport failure
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return "notification delivery failed: " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
