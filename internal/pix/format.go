package pix

import (
	"fmt"
	"strings"
)

// FormatCents renders an amount in cents/minor units as the bank expects it:
// exactly two decimal digits with a literal dot separator, locale independent.
// The sign is dropped, payload amounts are always absolute values.
func FormatCents(cents int64) string {
	if cents < 0 {
		cents = -cents
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// StripAgencyZeros removes leading zeros from a branch/agency code.
// An all-zero (or empty) agency collapses to "0".
func StripAgencyZeros(agency string) string {
	if agency == "" {
		return ""
	}
	stripped := strings.TrimLeft(agency, "0")
	if stripped == "" {
		return "0"
	}
	return stripped
}

// DigitsOnly strips every non-digit character, used for documents (CPF/CNPJ)
// and account numbers that may carry punctuation
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PersonType returns the bank's one-letter person type code:
// J for legal entities, F for natural persons
func PersonType(isCompany bool) string {
	if isCompany {
		return "J"
	}
	return "F"
}

// freeTextLimit is the bank-imposed cap on the user-to-user message field
const freeTextLimit = 140

// TruncateFreeText caps the user-to-user message at the wire limit
func TruncateFreeText(text string) string {
	runes := []rune(text)
	if len(runes) <= freeTextLimit {
		return text
	}
	return string(runes[:freeTextLimit])
}
