package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouponValidator_Validate(t *testing.T) {
	gw := &fakeCoupons{Discounts: map[string]decimal.Decimal{"SAVE50": decimal.NewFromInt(50)}}
	tel := &countingTelemetry{}
	v := NewCouponValidator(gw, tel)

	res, err := v.Validate(context.Background(), "  save50 ", decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.NotNil(t, res.Coupon)
	assert.Equal(t, "SAVE50", res.Coupon.Code)
	assert.True(t, res.Coupon.DiscountAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, gw.LastTotal.Equal(decimal.NewFromInt(200)))

	res, err = v.Validate(context.Background(), "BOGUS", decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Nil(t, res.Coupon)
	assert.Equal(t, "Coupon has expired", res.Message)
	assert.True(t, res.DiscountAmount.IsZero())

	assert.Equal(t, 1, tel.ValidCoupon)
	assert.Equal(t, 1, tel.BadCoupon)
}

func TestCouponValidator_EmptyCodeNeverCallsBackend(t *testing.T) {
	gw := &fakeCoupons{}
	v := NewCouponValidator(gw, nil)

	_, err := v.Validate(context.Background(), "   ", decimal.NewFromInt(10))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please enter a coupon code", ve.Msg)
	assert.Zero(t, gw.Calls)
}

func TestCouponValidator_TransportError(t *testing.T) {
	down := errors.New("connection refused")
	v := NewCouponValidator(&fakeCoupons{Err: down}, nil)

	_, err := v.Validate(context.Background(), "SAVE50", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, down)
}

func TestCouponValidator_DefaultInvalidMessage(t *testing.T) {
	v := NewCouponValidator(couponGatewayFunc(func(string, decimal.Decimal) (CouponResult, error) {
		return CouponResult{Valid: false}, nil
	}), nil)

	res, err := v.Validate(context.Background(), "X", decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "Invalid coupon code", res.Message)
}

type couponGatewayFunc func(string, decimal.Decimal) (CouponResult, error)

func (f couponGatewayFunc) ValidateCoupon(_ context.Context, code string, total decimal.Decimal) (CouponResult, error) {
	return f(code, total)
}
