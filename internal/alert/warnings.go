package alert

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/trogers1052/watchlist-alert-relay/internal/models"
)

// Warning messages, in the order they are emitted
const (
	WarningRadar  = "⚠️ RADAR STOCK - Review before acting"
	WarningPaused = "🛑 ENTRY PAUSED"
	WarningStale  = "⏰ STALE ANALYSIS - Refresh before acting"
)

// DefaultStaleAfter is how old an entry date may be before the analysis is stale
const DefaultStaleAfter = 7 * 24 * time.Hour

// ws also matches Unicode separators such as the no-break space Notion emits
const ws = `[\s\p{Z}\x{FEFF}]`

var entryDatePattern = regexp.MustCompile(`(?i)ENTRY DATE:` + ws + `*(\d{1,2})` + ws + `+(\w+)` + ws + `+(\d{4})`)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// DeriveWarnings returns the risk warnings for a watchlist entry evaluated at now
func DeriveWarnings(tier, entryConditions string, now time.Time, staleAfter time.Duration) []string {
	var warnings []string

	if tier == models.TierRadar {
		warnings = append(warnings, WarningRadar)
	}

	if strings.Contains(entryConditions, "PAUSED") || strings.Contains(entryConditions, "DO NOT ENTER") {
		warnings = append(warnings, WarningPaused)
	}

	if entryDate, ok := ParseEntryDate(entryConditions); ok && IsStale(entryDate, now, staleAfter) {
		warnings = append(warnings, WarningStale)
	}

	return warnings
}

// ParseEntryDate extracts an "ENTRY DATE: 14 Jan 2026" token as local midnight.
// ok is false when there is no token or the month name is not recognised.
func ParseEntryDate(entryConditions string) (time.Time, bool) {
	match := entryDatePattern.FindStringSubmatch(entryConditions)
	if match == nil {
		return time.Time{}, false
	}

	month, ok := months[strings.ToLower(match[2])]
	if !ok {
		return time.Time{}, false
	}

	// The pattern guarantees digits, so these cannot fail
	day, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[3])

	return time.Date(year, month, day, 0, 0, 0, 0, time.Local), true
}

// IsStale reports whether entryDate is strictly more than staleAfter before now
func IsStale(entryDate, now time.Time, staleAfter time.Duration) bool {
	age := now.Sub(entryDate).Truncate(time.Millisecond)
	return age > staleAfter
}
