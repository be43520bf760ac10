// Package alert derives risk warnings from watchlist entries and renders
// price alerts into webhook payloads.
package alert

import "github.com/trogers1052/watchlist-alert-relay/internal/models"

// RadarColor overrides the level colour for Radar tier entries
const RadarColor = 0xe74c3c

// LevelStyle is the emoji and embed colour for an alert level
type LevelStyle struct {
	Emoji string
	Color int
}

var levelStyles = map[models.Level]LevelStyle{
	models.LevelExecution:    {Emoji: "🔵", Color: 0x3498db},
	models.LevelDemand:       {Emoji: "🟡", Color: 0xf1c40f},
	models.LevelPivot:        {Emoji: "⚪", Color: 0x95a5a6},
	models.LevelStrength:     {Emoji: "🟢", Color: 0x2ecc71},
	models.LevelInvalidation: {Emoji: "🔴", Color: 0xe74c3c},
}

// StyleFor returns the style for a level. Unknown levels use the execution style.
func StyleFor(level models.Level) LevelStyle {
	if style, ok := levelStyles[level]; ok {
		return style
	}
	return levelStyles[models.LevelExecution]
}

// EmbedColor returns the embed colour for a level and tier
func EmbedColor(level models.Level, tier string) int {
	if tier == models.TierRadar {
		return RadarColor
	}
	return StyleFor(level).Color
}
