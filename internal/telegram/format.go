package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jlow/kalshipulse/internal/models"
)

// FormatCategorySection formats one category's ranked events as a MarkdownV2
// message section. At most maxOptions options are listed per event, with an
// "...and N more" line for the remainder. In price_change mode each option
// carries its signed 24h move.
func FormatCategorySection(events []models.Event, category, sortBy string, maxOptions int) string {
	emoji := "💰"
	if strings.EqualFold(category, "Politics") {
		emoji = "🏛️"
	}
	sortLabel := "24h Volume"
	if sortBy == models.SortByPriceChange {
		sortLabel = "24h Movers"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("%s *Top %d %s* \\(by %s\\)\n", emoji, len(events), EscapeMarkdownV2(category), sortLabel))

	if len(events) == 0 {
		lines = append(lines, "_No events found\\._")
		return strings.Join(lines, "\n")
	}

	for i, event := range events {
		lines = append(lines, fmt.Sprintf("*%d\\. %s*", i+1, EscapeMarkdownV2(event.Title)))

		for _, option := range event.TopOptions(maxOptions) {
			name := EscapeMarkdownV2(option.Name)
			if sortBy == models.SortByPriceChange && option.PriceChange24h != 0 {
				sign := "\\+"
				if option.PriceChange24h < 0 {
					sign = "\\-"
				}
				change := option.PriceChange24h
				if change < 0 {
					change = -change
				}
				lines = append(lines, fmt.Sprintf("  • %s: %d%% \\(%s%d%%\\)", name, option.Probability, sign, change))
			} else {
				lines = append(lines, fmt.Sprintf("  • %s: %d%%", name, option.Probability))
			}
		}

		if remaining := len(event.Options) - maxOptions; remaining > 0 {
			lines = append(lines, fmt.Sprintf("  _\\.\\.\\.and %d more options_", remaining))
		}

		lines = append(lines, fmt.Sprintf("  📊 Vol: %s\n", EscapeMarkdownV2(humanize.Comma(event.TotalVolume))))
	}

	return strings.Join(lines, "\n")
}

// FormatUpdate assembles a complete market update from per-category sections.
func FormatUpdate(now time.Time, sortBy string, sections []string) string {
	sortLabel := "24h Volume"
	if sortBy == models.SortByPriceChange {
		sortLabel = "Biggest Movers"
	}
	header := fmt.Sprintf("📊 *Kalshi Markets Update*\n_%s_ \\| Sorted by %s\n\n",
		EscapeMarkdownV2(now.Format("2006-01-02 15:04")), sortLabel)
	return header + strings.Join(sections, "\n")
}

// EscapeMarkdownV2 escapes the characters Telegram's MarkdownV2 parser treats
// as markup: _ * [ ] ( ) ~ ` > # + - = | { } . !
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// formatHourDisplay renders an hour as a 12-hour clock label, e.g. "4:00 PM".
func formatHourDisplay(hour int) string {
	switch {
	case hour == 0:
		return "12:00 AM"
	case hour < 12:
		return fmt.Sprintf("%d:00 AM", hour)
	case hour == 12:
		return "12:00 PM"
	default:
		return fmt.Sprintf("%d:00 PM", hour-12)
	}
}
