package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
)

const msgInvalidCoupon = "Invalid coupon code"

// CouponValidator asks the shop backend whether a code applies to a cart total.
// It never computes discounts itself.
type CouponValidator struct {
	gw  CouponGateway
	tel Telemetry
}

func NewCouponValidator(gw CouponGateway, tel Telemetry) *CouponValidator {
	if tel == nil {
		tel = NopTelemetry{}
	}
	return &CouponValidator{gw: gw, tel: tel}
}

// Validate returns the backend verdict. A transport failure is returned as an
// error and says nothing about the coupon.
func (v *CouponValidator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (CouponResult, error) {
	code = entity.NormalizeCouponCode(code)
	if code == "" {
		return CouponResult{}, invalid(ErrCouponCodeRequired, "Please enter a coupon code")
	}

	res, err := v.gw.ValidateCoupon(ctx, code, subtotal)
	if err != nil {
		return CouponResult{}, fmt.Errorf("validate coupon: %w", err)
	}
	v.tel.CouponChecked(res.Valid)

	if !res.Valid {
		msg := res.Message
		if msg == "" {
			msg = msgInvalidCoupon
		}
		return CouponResult{Valid: false, DiscountAmount: decimal.Zero, Message: msg}, nil
	}

	applied := entity.Coupon{Code: code, DiscountAmount: res.DiscountAmount}
	if res.Coupon != nil && res.Coupon.Code != "" {
		applied.Code = entity.NormalizeCouponCode(res.Coupon.Code)
	}
	res.Coupon = &applied
	return res, nil
}
