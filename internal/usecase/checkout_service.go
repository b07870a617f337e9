package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
)

// Page-session keys. The snapshot and coupon names are the ones the storefront
// pages have always used.
const (
	keySession  = "checkoutSession"
	keySnapshot = "shophubCheckoutShipping"
	keyCoupon   = "appliedCoupon"
	keyPayment  = "paymentState"
)

type LocationSource string

const (
	SourceMapClick    LocationSource = "map_click"
	SourceMarkerDrag  LocationSource = "marker_drag"
	SourceGeolocation LocationSource = "geolocation"
)

func (s LocationSource) Valid() bool {
	switch s {
	case SourceMapClick, SourceMarkerDrag, SourceGeolocation:
		return true
	}
	return false
}

type CheckoutConfig struct {
	Origin     entity.GeoPoint
	MinimumFee float64
}

// CheckoutService drives checkout sessions: it loads a Session from page-session
// storage, applies one transition and stores it back.
type CheckoutService struct {
	carts    *CartStore
	rates    *RateLoader
	coupons  *CouponValidator
	sessions SessionStorage
	cfg      CheckoutConfig
	tel      Telemetry
	now      func() time.Time
}

func NewCheckoutService(carts *CartStore, rates *RateLoader, coupons *CouponValidator,
	sessions SessionStorage, cfg CheckoutConfig, tel Telemetry) *CheckoutService {
	if tel == nil {
		tel = NopTelemetry{}
	}
	return &CheckoutService{
		carts:    carts,
		rates:    rates,
		coupons:  coupons,
		sessions: sessions,
		cfg:      cfg,
		tel:      tel,
		now:      time.Now,
	}
}

// Begin starts (or restarts) checkout in the tab identified by sid. An empty sid
// opens a new tab scope. A sid held by another identity is not found. Contact
// fields are restored from the tab's own last hand-off, else prefilled with the
// account email.
func (s *CheckoutService) Begin(ctx context.Context, id entity.Identity, sid string) (Summary, error) {
	resumed := false
	if sid == "" {
		sid = uuid.NewString()
	} else {
		var prev Session
		found, err := s.sessions.Get(ctx, sid, keySession, &prev)
		if err != nil {
			return Summary{}, err
		}
		if found && prev.Owner != id.Key() {
			return Summary{}, ErrSessionNotFound
		}
		resumed = found
	}
	sess := NewSession(sid, id.Key(), s.cfg.Origin, s.cfg.MinimumFee)

	var snap entity.ShippingSnapshot
	found := false
	if resumed {
		var err error
		found, err = s.sessions.Get(ctx, sid, keySnapshot, &snap)
		if err != nil {
			logging.FromCtx(ctx).Warn("read stored shipping info", "sid", sid, "err", err)
		}
	}
	if found {
		sess.Contact = Contact{
			Name:    snap.CustomerName,
			Email:   snap.CustomerEmail,
			Phone:   snap.CustomerPhone,
			City:    snap.City,
			State:   snap.State,
			ZipCode: snap.ZipCode,
		}
	} else if u, ok := id.(entity.Authenticated); ok {
		sess.Contact.Email = u.Email
	}

	rate := s.rates.Rate(ctx)
	cart, err := s.carts.Load(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	if err := sess.Start(rate, cart); err != nil {
		return Summary{}, err
	}
	if err := s.store(ctx, sess); err != nil {
		return Summary{}, err
	}
	return sess.Summary(), nil
}

func (s *CheckoutService) Summary(ctx context.Context, id entity.Identity, sid string) (Summary, error) {
	sess, err := s.load(ctx, id, sid)
	if err != nil {
		return Summary{}, err
	}
	return sess.Summary(), nil
}

func (s *CheckoutService) SetLocation(ctx context.Context, id entity.Identity, sid string, p entity.GeoPoint, src LocationSource) (Summary, error) {
	if src == "" {
		src = SourceMapClick
	}
	if !src.Valid() {
		return Summary{}, invalid(ErrUnknownLocationSource, "Unknown location source.")
	}
	return s.update(ctx, id, sid, func(sess *Session) error {
		q, err := sess.SetLocation(p)
		if err != nil {
			return err
		}
		s.tel.QuoteComputed(q.DistanceKm)
		logging.FromCtx(ctx).Debug("shipping quoted",
			"sid", sid, "source", src, "distance_km", q.DistanceKm, "fee", q.Fee.String())
		return nil
	})
}

func (s *CheckoutService) ConfirmLocation(ctx context.Context, id entity.Identity, sid string) (Summary, error) {
	return s.update(ctx, id, sid, (*Session).ConfirmLocation)
}

func (s *CheckoutService) UpdateContact(ctx context.Context, id entity.Identity, sid string, c Contact) (Summary, error) {
	return s.update(ctx, id, sid, func(sess *Session) error { return sess.UpdateContact(c) })
}

// ApplyCoupon validates code against the session subtotal. Re-applying the code
// already applied is a no-op; a different code must wait until the coupon is removed.
func (s *CheckoutService) ApplyCoupon(ctx context.Context, id entity.Identity, sid, code string) (Summary, error) {
	sess, err := s.load(ctx, id, sid)
	if err != nil {
		return Summary{}, err
	}
	if err := sess.editable(); err != nil {
		return Summary{}, err
	}
	if sess.CouponLocked() {
		if entity.NormalizeCouponCode(code) == sess.Coupon.Code {
			return sess.Summary(), nil
		}
		return Summary{}, invalid(ErrCouponLocked, msgCouponLocked)
	}

	res, err := s.coupons.Validate(ctx, code, sess.Cart.Subtotal())
	if err != nil {
		return Summary{}, err
	}
	if err := sess.ApplyCoupon(res); err != nil {
		return Summary{}, err
	}
	if err := s.store(ctx, sess); err != nil {
		return Summary{}, err
	}
	return sess.Summary(), nil
}

func (s *CheckoutService) RemoveCoupon(ctx context.Context, id entity.Identity, sid string) (Summary, error) {
	return s.update(ctx, id, sid, (*Session).ClearCoupon)
}

// CartChanged folds a cart feed update into the session. emptied tells the
// caller to send the user back to the cart page.
func (s *CheckoutService) CartChanged(ctx context.Context, id entity.Identity, sid string, cart entity.Cart) (sum Summary, emptied bool, err error) {
	sum, err = s.update(ctx, id, sid, func(sess *Session) error {
		emptied = sess.CartChanged(cart)
		return nil
	})
	return sum, emptied, err
}

// ContinueToPayment re-reads the cart, checks the hand-off preconditions and
// writes the shipping snapshot and applied coupon for the payment step.
func (s *CheckoutService) ContinueToPayment(ctx context.Context, id entity.Identity, sid string) (entity.ShippingSnapshot, error) {
	sess, err := s.load(ctx, id, sid)
	if err != nil {
		return entity.ShippingSnapshot{}, err
	}
	if err := sess.editable(); err != nil {
		return entity.ShippingSnapshot{}, err
	}
	if cart, err := s.carts.Load(ctx, id); err != nil {
		logging.FromCtx(ctx).Warn("refresh cart before payment", "sid", sid, "err", err)
	} else {
		sess.CartChanged(cart)
	}

	snap, err := sess.HandOff(s.now())
	if err != nil {
		return entity.ShippingSnapshot{}, err
	}
	if err := s.sessions.Put(ctx, sid, keySnapshot, snap); err != nil {
		return entity.ShippingSnapshot{}, err
	}
	if sess.Coupon != nil {
		err = s.sessions.Put(ctx, sid, keyCoupon, sess.Coupon)
	} else {
		err = s.sessions.Delete(ctx, sid, keyCoupon)
	}
	if err != nil {
		return entity.ShippingSnapshot{}, err
	}
	if err := s.store(ctx, sess); err != nil {
		return entity.ShippingSnapshot{}, err
	}
	return snap, nil
}

func (s *CheckoutService) load(ctx context.Context, id entity.Identity, sid string) (*Session, error) {
	if sid == "" {
		return nil, ErrSessionNotFound
	}
	var sess Session
	found, err := s.sessions.Get(ctx, sid, keySession, &sess)
	if err != nil {
		return nil, err
	}
	if !found || sess.Owner != id.Key() {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *CheckoutService) store(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = s.now().UTC()
	return s.sessions.Put(ctx, sess.ID, keySession, sess)
}

// update applies fn and persists the session only if fn succeeds, so a blocked
// transition leaves the stored session as it was.
func (s *CheckoutService) update(ctx context.Context, id entity.Identity, sid string, fn func(*Session) error) (Summary, error) {
	sess, err := s.load(ctx, id, sid)
	if err != nil {
		return Summary{}, err
	}
	if err := fn(sess); err != nil {
		return Summary{}, err
	}
	if err := s.store(ctx, sess); err != nil {
		return Summary{}, err
	}
	return sess.Summary(), nil
}
