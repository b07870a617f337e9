package usecase

import "errors"

var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrSessionNotFound       = errors.New("checkout session not found")
	ErrSessionClosed         = errors.New("checkout session already handed off to payment")
	ErrSessionNotReady       = errors.New("checkout session is still initializing")
	ErrNoSnapshot            = errors.New("checkout details missing")
	ErrOrderInProgress       = errors.New("order submission already in progress")
	ErrProductNotFound       = errors.New("product not found")
	ErrProductUnavailable    = errors.New("product is currently unavailable")
	ErrLocationNotSet        = errors.New("delivery location not set")
	ErrLocationNotConfirmed  = errors.New("delivery location not confirmed")
	ErrUnknownLocationSource = errors.New("unknown location source")
	ErrMissingContact        = errors.New("contact details missing")
	ErrCouponCodeRequired    = errors.New("coupon code required")
	ErrCouponLocked          = errors.New("a coupon is already applied")
	ErrPaymentNotConfirmed   = errors.New("payment not confirmed")
	ErrInvalidOrder          = errors.New("order is incomplete")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderNumberRequired   = errors.New("order number required")
	ErrLoginRequired         = errors.New("login required")
)

// ValidationError blocks a transition and carries the message shown to the user.
type ValidationError struct {
	Err error
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error, msg string) error {
	return &ValidationError{Err: err, Msg: msg}
}

// RejectedError is a logical refusal relayed verbatim from the shop backend.
type RejectedError struct {
	Msg string
}

func (e *RejectedError) Error() string { return e.Msg }
