package entity

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

var (
	ErrEmptyOrder    = errors.New("order has no items")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingBuyer  = errors.New("order is missing customer details")
	ErrInvalidStatus = errors.New("invalid order status")
)

// Totals is always recomputed from its inputs, never adjusted in place.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeTotals returns subtotal - discount + shippingFee, clamped at zero.
func ComputeTotals(cart Cart, discount, shippingFee decimal.Decimal) Totals {
	sub := cart.Subtotal()
	total := sub.Sub(discount).Add(shippingFee)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{
		Subtotal:    sub,
		Discount:    discount,
		ShippingFee: shippingFee,
		Total:       total,
	}
}

// Order is the payload handed to the shop backend. It is built once and never mutated.
type Order struct {
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	ShippingAddress string          `json:"shipping_address"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	ZipCode         string          `json:"zip_code"`
	MapLink         string          `json:"map_link,omitempty"`
	Items           Cart            `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CouponCode      *string         `json:"coupon_code"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
}

func NewOrder(snap ShippingSnapshot, cart Cart, coupon *Coupon) Order {
	discount := decimal.Zero
	var code *string
	if coupon != nil {
		discount = coupon.DiscountAmount
		c := coupon.Code
		code = &c
	}
	t := ComputeTotals(cart, discount, snap.ShippingFee)
	return Order{
		CustomerName:    snap.CustomerName,
		CustomerEmail:   snap.CustomerEmail,
		CustomerPhone:   snap.CustomerPhone,
		ShippingAddress: snap.ShippingAddress,
		City:            snap.City,
		State:           snap.State,
		ZipCode:         snap.ZipCode,
		MapLink:         snap.MapLink,
		Items:           cart.Clone(),
		Subtotal:        t.Subtotal,
		TotalAmount:     t.Total,
		CouponCode:      code,
		DiscountAmount:  t.Discount,
		ShippingFee:     t.ShippingFee,
		FinalAmount:     t.Total,
	}
}

func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	if o.CustomerName == "" || o.CustomerEmail == "" || o.CustomerPhone == "" {
		return ErrMissingBuyer
	}
	if o.FinalAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// TrackedOrder is what the storefront knows about a placed order.
type TrackedOrder struct {
	OrderNumber string          `json:"order_number"`
	Email       string          `json:"customer_email,omitempty"`
	Status      Status          `json:"status"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	PlacedAt    time.Time       `json:"order_date"`
}
