package persistence

import "github.com/shopspring/decimal"

// parseDecimalColumn parses a numeric column scanned as text. Empty means the
// aggregate saw no rows.
func parseDecimalColumn(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
