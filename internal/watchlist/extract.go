// Package watchlist reads watchlist entries from external stores and
// flattens their typed properties into plain records.
package watchlist

import (
	"strings"

	"github.com/trogers1052/watchlist-alert-relay/internal/models"
)

// Watchlist property names
const (
	FieldTicker            = "Ticker"
	FieldTier              = "Tier"
	FieldEntryConditions   = "Entry Conditions"
	FieldInvalidationLevel = "Invalidation Level"
	FieldIndustryETF       = "Industry ETF"
	FieldDemandZone        = "Demand Zone"
	FieldStrengthLevel     = "Strength Level"
	FieldPivotLevel        = "Pivot Level"
	FieldExecutionLines    = "Execution Lines"
)

// PlainText returns the concatenated text of a rich text property, or "" if the
// property is missing or of another kind.
func PlainText(props models.Properties, name string) string {
	prop, ok := props[name]
	if !ok || prop.Kind != models.PropertyRichText {
		return ""
	}
	return joinSpans(prop.RichText)
}

// TitleText returns the text of a title property, or ""
func TitleText(props models.Properties, name string) string {
	prop, ok := props[name]
	if !ok || prop.Kind != models.PropertyTitle {
		return ""
	}
	return joinSpans(prop.Title)
}

// SelectName returns the selected option label of a select property, or ""
func SelectName(props models.Properties, name string) string {
	prop, ok := props[name]
	if !ok || prop.Kind != models.PropertySelect || prop.Select == nil {
		return ""
	}
	return prop.Select.Name
}

// RecordFromProperties flattens a page's properties into a WatchlistRecord
func RecordFromProperties(props models.Properties) models.WatchlistRecord {
	return models.WatchlistRecord{
		Ticker:            TitleText(props, FieldTicker),
		Tier:              SelectName(props, FieldTier),
		EntryConditions:   PlainText(props, FieldEntryConditions),
		InvalidationLevel: PlainText(props, FieldInvalidationLevel),
		IndustryETF:       PlainText(props, FieldIndustryETF),
		DemandZone:        PlainText(props, FieldDemandZone),
		StrengthLevel:     PlainText(props, FieldStrengthLevel),
		PivotLevel:        PlainText(props, FieldPivotLevel),
		ExecutionLines:    PlainText(props, FieldExecutionLines),
	}
}

// RecordFromFields builds a record from a flat name/value map such as a Redis hash
func RecordFromFields(ticker string, fields map[string]string) models.WatchlistRecord {
	return models.WatchlistRecord{
		Ticker:            ticker,
		Tier:              fields[FieldTier],
		EntryConditions:   fields[FieldEntryConditions],
		InvalidationLevel: fields[FieldInvalidationLevel],
		IndustryETF:       fields[FieldIndustryETF],
		DemandZone:        fields[FieldDemandZone],
		StrengthLevel:     fields[FieldStrengthLevel],
		PivotLevel:        fields[FieldPivotLevel],
		ExecutionLines:    fields[FieldExecutionLines],
	}
}

// FieldsFromRecord is the inverse of RecordFromFields; empty values are skipped
func FieldsFromRecord(rec models.WatchlistRecord) map[string]string {
	fields := map[string]string{
		FieldTier:              rec.Tier,
		FieldEntryConditions:   rec.EntryConditions,
		FieldInvalidationLevel: rec.InvalidationLevel,
		FieldIndustryETF:       rec.IndustryETF,
		FieldDemandZone:        rec.DemandZone,
		FieldStrengthLevel:     rec.StrengthLevel,
		FieldPivotLevel:        rec.PivotLevel,
		FieldExecutionLines:    rec.ExecutionLines,
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return fields
}

func joinSpans(spans []models.TextSpan) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.PlainText)
	}
	return b.String()
}
