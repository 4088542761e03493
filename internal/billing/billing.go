// Package billing holds the invoice arithmetic and numbering rules.
package billing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NumberPrefix starts every invoice number.
const NumberPrefix = "INV-"

// Line is a single billable line: quantity × unit price.
type Line struct {
	Quantity float64
	Price    float64
}

// Totals are the derived monetary fields of an invoice.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// Round2 rounds half away from zero to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LineAmount returns quantity × price rounded to cents.
func LineAmount(l Line) float64 {
	return Round2(l.Quantity * l.Price)
}

// Calculate derives subtotal, tax and total for the given lines and a
// tax rate expressed in percent (0-100).
func Calculate(lines []Line, taxRate float64) Totals {
	var sum float64
	for _, l := range lines {
		sum += l.Quantity * l.Price
	}
	subtotal := Round2(sum)
	tax := Round2(subtotal * taxRate / 100)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     Round2(subtotal + tax),
	}
}

// FormatNumber renders the n-th invoice number of a user, e.g. INV-007.
func FormatNumber(n int64) string {
	return fmt.Sprintf("%s%03d", NumberPrefix, n)
}

// ParseNumber extracts the numeric suffix of an invoice number.
func ParseNumber(s string) (int64, error) {
	if !strings.HasPrefix(s, NumberPrefix) {
		return 0, fmt.Errorf("invoice number %q lacks %s prefix", s, NumberPrefix)
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(s, NumberPrefix), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invoice number %q has no numeric suffix", s)
	}
	return n, nil
}
