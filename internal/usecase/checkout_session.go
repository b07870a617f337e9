package usecase

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
)

type SessionState string

const (
	StateInitializing     SessionState = "initializing"
	StateAwaitingLocation SessionState = "awaiting_location"
	StateLocationSet      SessionState = "location_set"
	StateReadyForPayment  SessionState = "ready_for_payment"
)

const (
	msgEmptyCart       = "Your cart is empty."
	msgSelectLocation  = "Please select a location on the map first."
	msgConfirmLocation = "Please select and confirm your delivery location on the map."
	msgMissingContact  = "Please fill in your Name, Email, and Phone Number."
	msgCouponLocked    = "Remove the applied coupon before entering a new code."
	msgSessionClosed   = "This checkout was already sent to payment."
	msgSessionNotReady = "Checkout is still loading."
	msgCouponApplied   = "Coupon applied successfully!"
)

type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

func (c Contact) complete() bool {
	return strings.TrimSpace(c.Name) != "" &&
		strings.TrimSpace(c.Email) != "" &&
		strings.TrimSpace(c.Phone) != ""
}

// Session is one tab's checkout. It holds no I/O; CheckoutService loads it,
// applies one transition and stores it back.
type Session struct {
	ID              string                `json:"id"`
	Owner           string                `json:"owner"`
	State           SessionState          `json:"state"`
	Origin          entity.GeoPoint       `json:"origin"`
	RatePerKm       float64               `json:"rate_per_km"`
	MinimumFee      float64               `json:"minimum_fee"`
	Cart            entity.Cart           `json:"cart"`
	Point           *entity.GeoPoint      `json:"point,omitempty"`
	Quote           *entity.ShippingQuote `json:"quote,omitempty"`
	Contact         Contact               `json:"contact"`
	MapLink         string                `json:"map_link,omitempty"`
	ShippingAddress string                `json:"shipping_address,omitempty"`
	Coupon          *entity.Coupon        `json:"coupon,omitempty"`
	CouponMessage   string                `json:"coupon_message,omitempty"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func NewSession(id, owner string, origin entity.GeoPoint, minimumFee float64) *Session {
	return &Session{
		ID:         id,
		Owner:      owner,
		State:      StateInitializing,
		Origin:     origin,
		MinimumFee: minimumFee,
	}
}

// Start finishes initialization with the fetched rate and the loaded cart.
func (s *Session) Start(rate float64, cart entity.Cart) error {
	if s.State != StateInitializing {
		return s.editable()
	}
	if cart.IsEmpty() {
		return invalid(ErrEmptyCart, msgEmptyCart)
	}
	s.RatePerKm = rate
	s.Cart = cart
	s.State = StateAwaitingLocation
	return nil
}

func (s *Session) editable() error {
	switch s.State {
	case StateInitializing:
		return invalid(ErrSessionNotReady, msgSessionNotReady)
	case StateReadyForPayment:
		return invalid(ErrSessionClosed, msgSessionClosed)
	}
	return nil
}

func (s *Session) policy() entity.FeePolicy {
	return entity.FeePolicy{Origin: s.Origin, RatePerKm: s.RatePerKm, MinimumFee: s.MinimumFee}
}

// SetLocation quotes the point. Moving the point drops any confirmed map link.
func (s *Session) SetLocation(p entity.GeoPoint) (entity.ShippingQuote, error) {
	if err := s.editable(); err != nil {
		return entity.ShippingQuote{}, err
	}
	q := s.policy().Quote(p)
	s.Point = &p
	s.Quote = &q
	s.MapLink = ""
	s.ShippingAddress = ""
	s.State = StateLocationSet
	return q, nil
}

func (s *Session) ConfirmLocation() error {
	if err := s.editable(); err != nil {
		return err
	}
	if s.Point == nil {
		return invalid(ErrLocationNotSet, msgSelectLocation)
	}
	s.MapLink = entity.MapLink(*s.Point)
	s.ShippingAddress = entity.MapAddress(s.MapLink)
	return nil
}

func (s *Session) UpdateContact(c Contact) error {
	if err := s.editable(); err != nil {
		return err
	}
	c.Email = strings.TrimSpace(c.Email)
	s.Contact = c
	return nil
}

// CouponLocked is true while a coupon is applied; the code can't change until removed.
func (s *Session) CouponLocked() bool { return s.Coupon != nil }

// ApplyCoupon records the backend verdict. An invalid result clears any coupon.
func (s *Session) ApplyCoupon(res CouponResult) error {
	if err := s.editable(); err != nil {
		return err
	}
	if !res.Valid || res.Coupon == nil {
		s.Coupon = nil
		s.CouponMessage = res.Message
		return nil
	}
	c := *res.Coupon
	s.Coupon = &c
	s.CouponMessage = msgCouponApplied
	return nil
}

func (s *Session) ClearCoupon() error {
	if err := s.editable(); err != nil {
		return err
	}
	s.Coupon = nil
	s.CouponMessage = ""
	return nil
}

func (s *Session) Discount() decimal.Decimal {
	if s.Coupon == nil {
		return decimal.Zero
	}
	return s.Coupon.DiscountAmount
}

func (s *Session) ShippingFee() decimal.Decimal {
	if s.Quote == nil {
		return decimal.Zero
	}
	return s.Quote.Fee
}

func (s *Session) Totals() entity.Totals {
	return entity.ComputeTotals(s.Cart, s.Discount(), s.ShippingFee())
}

// CartChanged replaces the cart from a change feed and reports whether it emptied.
func (s *Session) CartChanged(c entity.Cart) bool {
	s.Cart = c.Clone()
	return s.Cart.IsEmpty()
}

// Ready checks the hand-off preconditions in the order the user sees them.
func (s *Session) Ready() error {
	if err := s.editable(); err != nil {
		return err
	}
	if s.Cart.IsEmpty() {
		return invalid(ErrEmptyCart, msgEmptyCart)
	}
	if s.MapLink == "" {
		return invalid(ErrLocationNotConfirmed, msgConfirmLocation)
	}
	if !s.Contact.complete() {
		return invalid(ErrMissingContact, msgMissingContact)
	}
	return nil
}

// HandOff closes the session and returns the record the payment step reads.
func (s *Session) HandOff(now time.Time) (entity.ShippingSnapshot, error) {
	if err := s.Ready(); err != nil {
		return entity.ShippingSnapshot{}, err
	}
	snap := entity.ShippingSnapshot{
		CustomerName:    strings.TrimSpace(s.Contact.Name),
		CustomerEmail:   s.Contact.Email,
		CustomerPhone:   strings.TrimSpace(s.Contact.Phone),
		ShippingAddress: s.ShippingAddress,
		City:            s.Contact.City,
		State:           s.Contact.State,
		ZipCode:         s.Contact.ZipCode,
		MapLink:         s.MapLink,
		ShippingFee:     s.ShippingFee(),
		CapturedAt:      now.UTC(),
	}
	if s.Quote != nil {
		snap.DistanceKm = s.Quote.DistanceKm
	}
	s.State = StateReadyForPayment
	return snap, nil
}

// Summary is the view rendered by the checkout page.
type Summary struct {
	SessionID       string                `json:"session_id"`
	State           SessionState          `json:"state"`
	Cart            entity.Cart           `json:"cart"`
	Location        *entity.GeoPoint      `json:"location,omitempty"`
	Quote           *entity.ShippingQuote `json:"quote,omitempty"`
	MapLink         string                `json:"map_link,omitempty"`
	ShippingAddress string                `json:"shipping_address,omitempty"`
	Contact         Contact               `json:"contact"`
	Coupon          *entity.Coupon        `json:"coupon,omitempty"`
	CouponLocked    bool                  `json:"coupon_locked"`
	CouponMessage   string                `json:"coupon_message,omitempty"`
	Totals          entity.Totals         `json:"totals"`
}

func (s *Session) Summary() Summary {
	return Summary{
		SessionID:       s.ID,
		State:           s.State,
		Cart:            s.Cart,
		Location:        s.Point,
		Quote:           s.Quote,
		MapLink:         s.MapLink,
		ShippingAddress: s.ShippingAddress,
		Contact:         s.Contact,
		Coupon:          s.Coupon,
		CouponLocked:    s.CouponLocked(),
		CouponMessage:   s.CouponMessage,
		Totals:          s.Totals(),
	}
}
