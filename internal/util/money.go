package util

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Prices travel as strings end to end: digits with at most two fractional digits.
var priceRe = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// ValidatePrice checks a price string against the wire format: non-negative,
// at most two fractional digits.
func ValidatePrice(price string) error {
	if price == "" {
		return fmt.Errorf("price is empty")
	}
	if !priceRe.MatchString(price) {
		return fmt.Errorf("invalid price format: %q", price)
	}
	return nil
}

// FormatPrice normalizes a valid price string to two decimal places,
// e.g. "12.5" -> "12.50". Invalid input is returned unchanged.
func FormatPrice(price string) string {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return price
	}
	return d.StringFixed(2)
}

// SumPrices adds price strings exactly (to the cent) and returns the
// total with two decimal places. Unparseable entries are skipped.
func SumPrices(prices []string) string {
	total := decimal.Zero
	for _, p := range prices {
		d, err := decimal.NewFromString(p)
		if err != nil {
			continue
		}
		total = total.Add(d)
	}
	return total.StringFixed(2)
}
