package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Level identifies which technical level triggered a price alert
type Level string

// Alert level constants
const (
	LevelExecution    Level = "execution"
	LevelDemand       Level = "demand"
	LevelPivot        Level = "pivot"
	LevelStrength     Level = "strength"
	LevelInvalidation Level = "invalidation"
)

// DefaultLevel is used when an alert does not name a level
const DefaultLevel = LevelExecution

// AlertRequest is an inbound price alert for a watchlist ticker
type AlertRequest struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
	Level  Level           `json:"level,omitempty"`
}

// Normalize returns a copy with the ticker uppercased and the level defaulted
func (a AlertRequest) Normalize() AlertRequest {
	a.Ticker = strings.ToUpper(strings.TrimSpace(a.Ticker))
	if a.Level == "" {
		a.Level = DefaultLevel
	}
	return a
}

// HasRequiredFields reports whether both ticker and a non-zero price are present
func (a AlertRequest) HasRequiredFields() bool {
	return strings.TrimSpace(a.Ticker) != "" && !a.Price.IsZero()
}
