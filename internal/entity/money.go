package entity

import "github.com/shopspring/decimal"

// UseNumericJSON makes amounts marshal as JSON numbers, which is what the shop
// backend and the browser clients expect. It flips a process-wide setting of
// the decimal package, so only main and TestMain call it.
func UseNumericJSON() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Display renders an amount the way the storefront shows it: two decimals, no symbol.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}
