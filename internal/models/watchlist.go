package models

import "errors"

// ErrTickerNotFound is returned by watchlist backends when no entry matches a ticker
var ErrTickerNotFound = errors.New("ticker not found in watchlist")

// TierRadar marks a lower-confidence watchlist entry that needs review before acting
const TierRadar = "Radar"

// PropertyKind discriminates the variants of a watchlist property value
type PropertyKind string

// Property kind constants
const (
	PropertyTitle    PropertyKind = "title"
	PropertyRichText PropertyKind = "rich_text"
	PropertySelect   PropertyKind = "select"
)

// TextSpan is one run of text inside a title or rich text property
type TextSpan struct {
	PlainText string `json:"plain_text"`
}

// SelectOption is the chosen option of a select property
type SelectOption struct {
	Name string `json:"name"`
}

// Property is a typed value from an external watchlist page. Only the field
// matching Kind carries data; kinds this service does not read are kept with
// their Kind and no content.
type Property struct {
	Kind     PropertyKind  `json:"type"`
	Title    []TextSpan    `json:"title,omitempty"`
	RichText []TextSpan    `json:"rich_text,omitempty"`
	Select   *SelectOption `json:"select,omitempty"`
}

// Properties is a page's property bag keyed by property name
type Properties map[string]Property

// WatchlistRecord is the flattened view of a watchlist entry used for alerts
type WatchlistRecord struct {
	Ticker            string `json:"ticker"`
	Tier              string `json:"tier,omitempty"`
	EntryConditions   string `json:"entry_conditions,omitempty"`
	InvalidationLevel string `json:"invalidation_level,omitempty"`
	IndustryETF       string `json:"industry_etf,omitempty"`
	DemandZone        string `json:"demand_zone,omitempty"`
	StrengthLevel     string `json:"strength_level,omitempty"`
	PivotLevel        string `json:"pivot_level,omitempty"`
	ExecutionLines    string `json:"execution_lines,omitempty"`
}
