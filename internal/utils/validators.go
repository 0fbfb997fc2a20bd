package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	accountNumberRegex = regexp.MustCompile(`^\d{6,20}$`)
	phoneDigitsRegex   = regexp.MustCompile(`[^\d+]`)
)

// ValidateName trims a typed name and checks its length.
func ValidateName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("name cannot start with /")
	}
	n := utf8.RuneCountInString(name)
	if n < 2 {
		return "", fmt.Errorf("name is too short")
	}
	if n > 64 {
		return "", fmt.Errorf("name is too long (max 64 characters)")
	}
	return name, nil
}

// ValidateAccountNumber strips separators and checks the account is 6-20 digits.
// TeleBirr accounts are phone numbers, so a leading +251 is rewritten to 0.
func ValidateAccountNumber(raw string) (string, error) {
	cleaned := phoneDigitsRegex.ReplaceAllString(strings.TrimSpace(raw), "")
	if strings.HasPrefix(cleaned, "+251") {
		cleaned = "0" + strings.TrimPrefix(cleaned, "+251")
	}
	if !accountNumberRegex.MatchString(cleaned) {
		return "", fmt.Errorf("account number must contain 6 to 20 digits")
	}
	return cleaned, nil
}

// NormalizePhone keeps digits and a leading plus sign.
func NormalizePhone(raw string) string {
	cleaned := phoneDigitsRegex.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned != "" && !strings.HasPrefix(cleaned, "+") && strings.HasPrefix(cleaned, "251") {
		cleaned = "+" + cleaned
	}
	return cleaned
}

// ParseAmount reads a positive money amount with at most two decimals.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(raw, ",", ".")))
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "ETB"))
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", raw)
	}
	if !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive")
	}
	if !v.Equal(v.Round(2)) {
		return decimal.Zero, fmt.Errorf("at most two decimal places are allowed")
	}
	return v, nil
}
