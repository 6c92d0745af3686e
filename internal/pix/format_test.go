package pix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		expected string
	}{
		{name: "plain amount", cents: 123450, expected: "1234.50"},
		{name: "zero", cents: 0, expected: "0.00"},
		{name: "single cent", cents: 1, expected: "0.01"},
		{name: "round units", cents: 50000, expected: "500.00"},
		{name: "negative uses absolute value", cents: -123450, expected: "1234.50"},
		{name: "sub one unit", cents: 99, expected: "0.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCents(tt.cents))
		})
	}
}

func TestStripAgencyZeros(t *testing.T) {
	tests := []struct {
		name     string
		agency   string
		expected string
	}{
		{name: "leading zeros stripped", agency: "00123", expected: "123"},
		{name: "all zeros collapse", agency: "0000", expected: "0"},
		{name: "no leading zeros", agency: "4567", expected: "4567"},
		{name: "empty stays empty", agency: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripAgencyZeros(tt.agency))
		})
	}
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "12345678000195", DigitsOnly("12.345.678/0001-95"))
	assert.Equal(t, "12345601", DigitsOnly("123456-01"))
	assert.Equal(t, "", DigitsOnly("no digits here"))
}

func TestPersonType(t *testing.T) {
	assert.Equal(t, "J", PersonType(true))
	assert.Equal(t, "F", PersonType(false))
}

func TestTruncateFreeText(t *testing.T) {
	short := "pagamento fornecedor"
	assert.Equal(t, short, TruncateFreeText(short))

	long := strings.Repeat("x", 200)
	truncated := TruncateFreeText(long)
	assert.Len(t, truncated, 140)

	// multi-byte runes count as one character, not one byte
	accented := strings.Repeat("ç", 150)
	assert.Equal(t, 140, len([]rune(TruncateFreeText(accented))))
}
