package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
)

var shopOrigin = entity.GeoPoint{Lat: 30.9432184, Lng: 75.8584566}

type checkoutFixture struct {
	svc      *CheckoutService
	carts    *CartStore
	authed   *memBackend
	sessions *memSessions
	coupons  *fakeCoupons
	settings *fakeSettings
	tel      *countingTelemetry
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	g, a := newMemBackend("guest"), newMemBackend("realtime")
	a.set(userID, entity.Cart{{ID: 1, Name: "Thali", Price: decimal.NewFromInt(100), Quantity: 2}})

	f := &checkoutFixture{
		authed:   a,
		sessions: newMemSessions(),
		coupons:  &fakeCoupons{Discounts: map[string]decimal.Decimal{"SAVE50": decimal.NewFromInt(50)}},
		settings: &fakeSettings{Rate: 5},
		tel:      &countingTelemetry{},
	}
	f.carts = NewCartStore(g, a, testCatalog())
	f.svc = NewCheckoutService(f.carts, NewRateLoader(f.settings, 5), NewCouponValidator(f.coupons, f.tel),
		f.sessions, CheckoutConfig{Origin: shopOrigin, MinimumFee: 10}, f.tel)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *checkoutFixture) readyForHandOff(t *testing.T, sid string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.SetLocation(ctx, userID, sid, shopOrigin, SourceGeolocation)
	require.NoError(t, err)
	_, err = f.svc.ConfirmLocation(ctx, userID, sid)
	require.NoError(t, err)
	_, err = f.svc.UpdateContact(ctx, userID, sid, Contact{Name: "Asha", Email: "asha@example.com", Phone: "9999999999", City: "Ludhiana"})
	require.NoError(t, err)
}

func TestCheckout_Begin(t *testing.T) {
	f := newCheckoutFixture(t)

	sum, err := f.svc.Begin(context.Background(), userID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, sum.SessionID)
	assert.Equal(t, StateAwaitingLocation, sum.State)
	assert.Equal(t, "asha@example.com", sum.Contact.Email)
	assert.True(t, sum.Totals.Subtotal.Equal(decimal.NewFromInt(200)))
	assert.True(t, sum.Totals.ShippingFee.IsZero())
	assert.Equal(t, 1, f.settings.Calls)
}

func TestCheckout_Begin_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.authed.set(userID, nil)

	_, err := f.svc.Begin(context.Background(), userID, "tab-1")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.False(t, f.sessions.has("tab-1", keySession))
}

func TestCheckout_Begin_RestoresStoredShippingInfo(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)
	require.NoError(t, f.sessions.Put(ctx, "tab-1", keySnapshot, entity.ShippingSnapshot{
		CustomerName: "Asha", CustomerEmail: "other@example.com", CustomerPhone: "123", ZipCode: "141001",
	}))

	sum, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, "tab-1", sum.SessionID)
	assert.Equal(t, Contact{Name: "Asha", Email: "other@example.com", Phone: "123", ZipCode: "141001"}, sum.Contact)
	assert.Nil(t, sum.Location)
}

func TestCheckout_Begin_ForeignSessionIsRejected(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)
	f.readyForHandOff(t, "tab-1")
	_, err = f.svc.ContinueToPayment(ctx, userID, "tab-1")
	require.NoError(t, err)

	mallory := entity.NewAuthenticated("mallory@example.com")
	f.authed.set(mallory, entity.Cart{{ID: 1, Name: "Thali", Price: decimal.NewFromInt(100), Quantity: 1}})
	_, err = f.svc.Begin(ctx, mallory, "tab-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	sum, err := f.svc.Summary(ctx, userID, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", sum.Contact.Name)
}

func TestCheckout_Begin_OrphanSnapshotIsNotRestored(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Put(ctx, "tab-9", keySnapshot, entity.ShippingSnapshot{
		CustomerName: "Asha", CustomerEmail: "other@example.com", CustomerPhone: "123",
	}))

	sum, err := f.svc.Begin(ctx, userID, "tab-9")
	require.NoError(t, err)
	assert.Empty(t, sum.Contact.Name)
	assert.Equal(t, "asha@example.com", sum.Contact.Email)
}

func TestCheckout_Begin_RateFailureUsesDefault(t *testing.T) {
	f := newCheckoutFixture(t)
	f.settings.Err = errors.New("503")
	ctx := context.Background()

	sum, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)

	north := entity.GeoPoint{Lat: shopOrigin.Lat + 0.1, Lng: shopOrigin.Lng}
	sum, err = f.svc.SetLocation(ctx, userID, sum.SessionID, north, SourceMapClick)
	require.NoError(t, err)
	assert.Equal(t, "56", sum.Quote.Fee.String())
}

func TestCheckout_LocationFlow(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	sum, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)

	_, err = f.svc.ConfirmLocation(ctx, userID, "tab-1")
	assert.ErrorIs(t, err, ErrLocationNotSet)

	_, err = f.svc.SetLocation(ctx, userID, "tab-1", shopOrigin, "teleport")
	assert.ErrorIs(t, err, ErrUnknownLocationSource)

	sum, err = f.svc.SetLocation(ctx, userID, "tab-1", shopOrigin, "")
	require.NoError(t, err)
	assert.Equal(t, StateLocationSet, sum.State)
	assert.Equal(t, "10", sum.Quote.Fee.String())
	assert.Empty(t, sum.MapLink)

	sum, err = f.svc.ConfirmLocation(ctx, userID, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=30.9432184,75.8584566", sum.MapLink)
	assert.Equal(t, "Map Location: "+sum.MapLink, sum.ShippingAddress)

	// Dragging the marker re-quotes and needs a new confirmation.
	sum, err = f.svc.SetLocation(ctx, userID, "tab-1", entity.GeoPoint{Lat: 30.95, Lng: 75.86}, SourceMarkerDrag)
	require.NoError(t, err)
	assert.Equal(t, StateLocationSet, sum.State)
	assert.Empty(t, sum.MapLink)
	assert.Equal(t, 2, f.tel.Quotes)
}

func TestCheckout_Coupon(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)
	_, err = f.svc.SetLocation(ctx, userID, "tab-1", shopOrigin, SourceMapClick)
	require.NoError(t, err)

	sum, err := f.svc.ApplyCoupon(ctx, userID, "tab-1", "BOGUS")
	require.NoError(t, err)
	assert.Nil(t, sum.Coupon)
	assert.False(t, sum.CouponLocked)
	assert.Equal(t, "Coupon has expired", sum.CouponMessage)

	sum, err = f.svc.ApplyCoupon(ctx, userID, "tab-1", "save50")
	require.NoError(t, err)
	require.NotNil(t, sum.Coupon)
	assert.True(t, sum.CouponLocked)
	assert.Equal(t, "160", sum.Totals.Total.String())

	calls := f.coupons.Calls
	_, err = f.svc.ApplyCoupon(ctx, userID, "tab-1", "SAVE50")
	require.NoError(t, err)
	assert.Equal(t, calls, f.coupons.Calls)

	_, err = f.svc.ApplyCoupon(ctx, userID, "tab-1", "OTHER")
	assert.ErrorIs(t, err, ErrCouponLocked)

	sum, err = f.svc.RemoveCoupon(ctx, userID, "tab-1")
	require.NoError(t, err)
	assert.Nil(t, sum.Coupon)
	assert.Equal(t, "210", sum.Totals.Total.String())
}

func TestCheckout_Coupon_TransportErrorKeepsState(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)

	f.coupons.Err = errors.New("connection reset")
	_, err = f.svc.ApplyCoupon(ctx, userID, "tab-1", "SAVE50")
	require.Error(t, err)

	sum, err := f.svc.Summary(ctx, userID, "tab-1")
	require.NoError(t, err)
	assert.Nil(t, sum.Coupon)
	assert.Empty(t, sum.CouponMessage)
}

func TestCheckout_ContinueToPayment_Validation(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)

	_, err = f.svc.ContinueToPayment(ctx, userID, "tab-1")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please select and confirm your delivery location on the map.", ve.Msg)

	_, err = f.svc.SetLocation(ctx, userID, "tab-1", shopOrigin, SourceMapClick)
	require.NoError(t, err)
	_, err = f.svc.ConfirmLocation(ctx, userID, "tab-1")
	require.NoError(t, err)

	_, err = f.svc.ContinueToPayment(ctx, userID, "tab-1")
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, ErrMissingContact)

	sum, err := f.svc.Summary(ctx, userID, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, StateLocationSet, sum.State)
	assert.False(t, f.sessions.has("tab-1", keySnapshot))
}

func TestCheckout_ContinueToPayment_WritesSnapshotAndCoupon(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)
	f.readyForHandOff(t, "tab-1")
	_, err = f.svc.ApplyCoupon(ctx, userID, "tab-1", "SAVE50")
	require.NoError(t, err)

	snap, err := f.svc.ContinueToPayment(ctx, userID, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", snap.CustomerName)
	assert.Equal(t, "10", snap.ShippingFee.String())
	assert.Equal(t, "Map Location: "+snap.MapLink, snap.ShippingAddress)

	var stored entity.ShippingSnapshot
	ok, err := f.sessions.Get(ctx, "tab-1", keySnapshot, &stored)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.MapLink, stored.MapLink)

	var c entity.Coupon
	ok, err = f.sessions.Get(ctx, "tab-1", keyCoupon, &c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "SAVE50", c.Code)

	_, err = f.svc.SetLocation(ctx, userID, "tab-1", shopOrigin, SourceMapClick)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestCheckout_ContinueToPayment_ClearsStaleCoupon(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Put(ctx, "tab-1", keyCoupon, entity.Coupon{Code: "OLD"}))
	_, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)
	f.readyForHandOff(t, "tab-1")

	_, err = f.svc.ContinueToPayment(ctx, userID, "tab-1")
	require.NoError(t, err)
	assert.False(t, f.sessions.has("tab-1", keyCoupon))
}

func TestCheckout_ContinueToPayment_CartEmptiedElsewhere(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)
	f.readyForHandOff(t, "tab-1")
	f.authed.set(userID, entity.Cart{})

	_, err = f.svc.ContinueToPayment(ctx, userID, "tab-1")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_CartChanged(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)

	sum, emptied, err := f.svc.CartChanged(ctx, userID, "tab-1",
		entity.Cart{{ID: 2, Name: "Lassi", Price: decimal.NewFromInt(30), Quantity: 1}})
	require.NoError(t, err)
	assert.False(t, emptied)
	assert.Equal(t, "30", sum.Totals.Subtotal.String())

	_, emptied, err = f.svc.CartChanged(ctx, userID, "tab-1", entity.Cart{})
	require.NoError(t, err)
	assert.True(t, emptied)
}

func TestCheckout_SessionBelongsToOwner(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, userID, "tab-1")
	require.NoError(t, err)

	_, err = f.svc.Summary(ctx, entity.NewAuthenticated("mallory@example.com"), "tab-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Summary(ctx, userID, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCheckout_CorruptSessionReadsAsMissing(t *testing.T) {
	f := newCheckoutFixture(t)
	f.sessions.raw("tab-1", keySession, "{not json")

	_, err := f.svc.Summary(context.Background(), userID, "tab-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
