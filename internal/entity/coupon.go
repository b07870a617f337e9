package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Coupon is the last validated coupon result. Validity is decided by the shop backend.
type Coupon struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
