// internal/utils/formatters.go

package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EscapeTelegramMarkdown escapes the characters legacy Markdown treats specially.
func EscapeTelegramMarkdown(text string) string {
	var replacer = strings.NewReplacer(
		"_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[",
	)
	return replacer.Replace(text)
}

// FormatMoney renders an amount with two decimals and the currency code, e.g. "30.00 ETB".
func FormatMoney(amount decimal.Decimal, currency string) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", amount.StringFixed(2), currency))
}

// FormatDate renders a timestamp for chat messages and reports.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006 15:04")
}

// ShortID returns the first block of a UUID string for compact display.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
