package upstream

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

type CouponClient struct{ c *Client }

func NewCouponClient(c *Client) *CouponClient { return &CouponClient{c: c} }

type validateCouponReq struct {
	Code      string          `json:"code"`
	CartTotal decimal.Decimal `json:"cart_total"`
}

type validateCouponResp struct {
	Success        bool            `json:"success"`
	Valid          bool            `json:"valid"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Message        string          `json:"message"`
	Coupon         *struct {
		Code string `json:"code"`
	} `json:"coupon"`
}

// ValidateCoupon relays the backend verdict; a coupon counts only when the
// backend reports both success and valid. A 400 is the backend refusing the
// request itself (for example a blank code) and is reported as invalid.
func (cc *CouponClient) ValidateCoupon(ctx context.Context, code string, cartTotal decimal.Decimal) (usecase.CouponResult, error) {
	var out validateCouponResp
	err := cc.c.call(ctx, http.MethodPost, "/api/coupons/validate", nil,
		validateCouponReq{Code: code, CartTotal: cartTotal}, &out)

	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusBadRequest {
		return usecase.CouponResult{Valid: false, Message: backendMessage(se.Body)}, nil
	}
	if err != nil {
		return usecase.CouponResult{}, err
	}

	if !out.Success || !out.Valid {
		return usecase.CouponResult{Valid: false, Message: out.Message}, nil
	}
	res := usecase.CouponResult{Valid: true, DiscountAmount: out.DiscountAmount, Message: out.Message}
	c := entity.Coupon{Code: code, DiscountAmount: out.DiscountAmount}
	if out.Coupon != nil && out.Coupon.Code != "" {
		c.Code = out.Coupon.Code
	}
	res.Coupon = &c
	return res, nil
}

var _ usecase.CouponGateway = (*CouponClient)(nil)
