package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/trogers1052/watchlist-alert-relay/internal/models"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Input is everything a renderer needs. Alert must already be normalized.
type Input struct {
	Alert     models.AlertRequest
	Record    models.WatchlistRecord
	Warnings  []string
	Chart     *models.Attachment
	Timestamp time.Time
}

// Renderer turns an alert and its watchlist context into a webhook payload
type Renderer interface {
	Render(in Input) models.NotificationPayload
	// WantsChart reports whether the renderer can use a chart image
	WantsChart() bool
}

// NewRenderer returns the renderer for a configured format name
func NewRenderer(format, chartLinkBase string) (Renderer, error) {
	switch format {
	case "embed", "":
		return &EmbedRenderer{ChartLinkBase: chartLinkBase}, nil
	case "text":
		return &TextRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown alert format: %s", format)
	}
}

// EmbedRenderer renders a rich embed with warnings, levels and a chart link
type EmbedRenderer struct {
	ChartLinkBase string
}

func (r *EmbedRenderer) WantsChart() bool { return true }

func (r *EmbedRenderer) Render(in Input) models.NotificationPayload {
	rec := in.Record
	ticker := in.Alert.Ticker
	style := StyleFor(in.Alert.Level)

	var b strings.Builder

	if len(in.Warnings) > 0 {
		b.WriteString(strings.Join(in.Warnings, "\n"))
		b.WriteString("\n\n")
	}

	if rec.Tier != "" {
		fmt.Fprintf(&b, "**Tier:** %s\n\n", rec.Tier)
	}

	b.WriteString("**LEVELS:**\n")
	fmt.Fprintf(&b, "🟢 Strength: %s\n", orDash(rec.StrengthLevel))
	fmt.Fprintf(&b, "⚪ Pivot: %s\n", orDash(rec.PivotLevel))
	fmt.Fprintf(&b, "🟡 Demand: %s\n", orDash(rec.DemandZone))
	fmt.Fprintf(&b, "🔵 Execution: %s\n", orDash(rec.ExecutionLines))
	fmt.Fprintf(&b, "🔴 Invalidation: %s\n\n", orDash(rec.InvalidationLevel))

	if rec.EntryConditions != "" {
		fmt.Fprintf(&b, "**PLAY:**\n%s\n\n", rec.EntryConditions)
	}

	if rec.IndustryETF != "" {
		fmt.Fprintf(&b, "**Sector:** %s\n\n", rec.IndustryETF)
	}

	fmt.Fprintf(&b, "📈 [View Chart](%s%s)", r.ChartLinkBase, ticker)

	embed := models.Embed{
		Title:       fmt.Sprintf("%s %s hit $%s [%s]", style.Emoji, ticker, in.Alert.Price.String(), in.Alert.Level),
		Description: b.String(),
		Color:       EmbedColor(in.Alert.Level, rec.Tier),
		Timestamp:   in.Timestamp.UTC().Format(timestampLayout),
	}

	payload := models.NotificationPayload{}
	if in.Chart != nil {
		embed.Image = &models.EmbedImage{URL: "attachment://" + in.Chart.Filename}
		payload.Attachment = in.Chart
	}
	payload.Embeds = []models.Embed{embed}

	return payload
}

// TextRenderer renders a plain markdown message without warnings or chart
type TextRenderer struct{}

func (r *TextRenderer) WantsChart() bool { return false }

func (r *TextRenderer) Render(in Input) models.NotificationPayload {
	rec := in.Record
	lines := []string{fmt.Sprintf("**%s** hit $%s", in.Alert.Ticker, in.Alert.Price.String())}

	if rec.Tier != "" {
		lines = append(lines, "Tier: "+rec.Tier)
	}
	if rec.DemandZone != "" {
		lines = append(lines, "Demand Zone: "+rec.DemandZone)
	}

	var details []string
	if rec.EntryConditions != "" {
		details = append(details, rec.EntryConditions)
	}
	if rec.InvalidationLevel != "" {
		details = append(details, "Invalidation: "+rec.InvalidationLevel)
	}
	if rec.IndustryETF != "" {
		details = append(details, "Sector: "+rec.IndustryETF)
	}
	if len(details) > 0 {
		lines = append(lines, "")
		lines = append(lines, details...)
	}

	return models.NotificationPayload{Content: strings.Join(lines, "\n")}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
