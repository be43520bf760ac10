package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventTypeAlertRelayed is published after an alert has been delivered
const EventTypeAlertRelayed = "ALERT_RELAYED"

// AlertRelayedEvent represents a Kafka event for a delivered alert
type AlertRelayedEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	Level     Level           `json:"level"`
	Tier      string          `json:"tier,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	HasChart  bool            `json:"has_chart"`
	Timestamp time.Time       `json:"timestamp"`
}
