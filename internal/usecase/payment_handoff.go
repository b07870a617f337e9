package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
)

const (
	msgNoSnapshot      = "Please complete checkout details first."
	msgNotConfirmed    = "Please confirm payment before placing the order."
	msgQRUnavailable   = "Unable to load QR code. Please try again."
	msgOrderIncomplete = "Unable to place order. Please try again."
)

// PaymentState is the per-tab progress of the two manual gates.
type PaymentState struct {
	Confirmed   bool   `json:"confirmed"`
	OrderPlaced bool   `json:"order_placed"`
	OrderNumber string `json:"order_number,omitempty"`
}

type PaymentView struct {
	SessionID string                  `json:"session_id"`
	Shipping  entity.ShippingSnapshot `json:"shipping"`
	Cart      entity.Cart             `json:"cart"`
	Coupon    *entity.Coupon          `json:"coupon,omitempty"`
	Totals    entity.Totals           `json:"totals"`
	QR        *PaymentQR              `json:"qr,omitempty"`
	QRMessage string                  `json:"qr_message,omitempty"`
	Payment   PaymentState            `json:"payment"`
}

type CartNotice string

const (
	NoticeCartUpdated CartNotice = "cart_updated"
	NoticeCartEmptied CartNotice = "cart_emptied"
	// NoticeSuppressed: the cart emptied because the order went through.
	NoticeSuppressed  CartNotice = "suppressed"
)

// PaymentService is the payment page: it reads what checkout handed off, shows
// the QR reference and submits the order once the user confirms payment.
type PaymentService struct {
	carts    *CartStore
	sessions SessionStorage
	qr       PaymentQRGateway
	orders   OrderGateway
	idem     IdempotencyStore
	outbox   OutboxRepo
	tel      Telemetry
	now      func() time.Time
}

// NewPaymentService wires the payment step. outbox may be nil when order
// events are disabled.
func NewPaymentService(carts *CartStore, sessions SessionStorage, qr PaymentQRGateway,
	orders OrderGateway, idem IdempotencyStore, outbox OutboxRepo, tel Telemetry) *PaymentService {
	if tel == nil {
		tel = NopTelemetry{}
	}
	return &PaymentService{
		carts:    carts,
		sessions: sessions,
		qr:       qr,
		orders:   orders,
		idem:     idem,
		outbox:   outbox,
		tel:      tel,
		now:      time.Now,
	}
}

func (s *PaymentService) Open(ctx context.Context, id entity.Identity, sid string) (PaymentView, error) {
	if err := s.checkOwner(ctx, id, sid); err != nil {
		return PaymentView{}, err
	}
	snap, err := s.snapshot(ctx, sid)
	if err != nil {
		return PaymentView{}, err
	}
	coupon := s.coupon(ctx, sid)
	state, err := s.state(ctx, sid)
	if err != nil {
		return PaymentView{}, err
	}

	cart, err := s.carts.Load(ctx, id)
	if err != nil {
		return PaymentView{}, err
	}
	if cart.IsEmpty() {
		return PaymentView{}, invalid(ErrEmptyCart, msgEmptyCart)
	}

	view := PaymentView{
		SessionID: sid,
		Shipping:  snap,
		Cart:      cart,
		Coupon:    coupon,
		Totals:    totalsFor(cart, snap, coupon),
		Payment:   state,
	}
	qr, err := s.qr.PaymentQR(ctx, view.Totals.Total)
	if err != nil {
		logging.FromCtx(ctx).Warn("payment qr unavailable", "sid", sid, "err", err)
		view.QRMessage = msgQRUnavailable
	} else {
		view.QR = &qr
	}
	return view, nil
}

// ConfirmPaid records the user's "I have paid". Nothing is verified.
func (s *PaymentService) ConfirmPaid(ctx context.Context, id entity.Identity, sid string) (PaymentState, error) {
	if err := s.checkOwner(ctx, id, sid); err != nil {
		return PaymentState{}, err
	}
	if _, err := s.snapshot(ctx, sid); err != nil {
		return PaymentState{}, err
	}
	state, err := s.state(ctx, sid)
	if err != nil {
		return PaymentState{}, err
	}
	if state.Confirmed {
		return state, nil
	}
	state.Confirmed = true
	if err := s.sessions.Put(ctx, sid, keyPayment, state); err != nil {
		return PaymentState{}, err
	}
	return state, nil
}

// PlaceOrder submits the order at most once per tab. A repeat after success
// returns the same order number; a concurrent attempt gets ErrOrderInProgress.
// On failure nothing is cleared and the user may retry.
func (s *PaymentService) PlaceOrder(ctx context.Context, id entity.Identity, sid string) (OrderReceipt, error) {
	log := logging.FromCtx(ctx)
	if err := s.checkOwner(ctx, id, sid); err != nil {
		return OrderReceipt{}, err
	}
	state, err := s.state(ctx, sid)
	if err != nil {
		return OrderReceipt{}, err
	}
	if state.OrderPlaced {
		return OrderReceipt{OrderNumber: state.OrderNumber}, nil
	}
	if n, ok, err := s.idem.Recall(ctx, id.Key(), sid); err != nil {
		return OrderReceipt{}, err
	} else if ok {
		return OrderReceipt{OrderNumber: n}, nil
	}
	if !state.Confirmed {
		return OrderReceipt{}, invalid(ErrPaymentNotConfirmed, msgNotConfirmed)
	}
	snap, err := s.snapshot(ctx, sid)
	if err != nil {
		return OrderReceipt{}, err
	}

	locked, err := s.idem.TryLock(ctx, id.Key(), sid)
	if err != nil {
		return OrderReceipt{}, err
	}
	if !locked {
		return OrderReceipt{}, ErrOrderInProgress
	}
	release := func() {
		if err := s.idem.Release(context.WithoutCancel(ctx), id.Key(), sid); err != nil {
			log.Warn("release order lock", "sid", sid, "err", err)
		}
	}

	cart, err := s.carts.Load(ctx, id)
	if err != nil {
		release()
		return OrderReceipt{}, err
	}
	if cart.IsEmpty() {
		release()
		return OrderReceipt{}, invalid(ErrEmptyCart, msgEmptyCart)
	}
	order := entity.NewOrder(snap, cart, s.coupon(ctx, sid))
	if err := order.Validate(); err != nil {
		release()
		log.Warn("order failed validation", "sid", sid, "err", err)
		return OrderReceipt{}, invalid(ErrInvalidOrder, msgOrderIncomplete)
	}

	receipt, err := s.orders.SubmitOrder(ctx, order)
	s.tel.OrderSubmitted(err == nil)
	if err != nil {
		release()
		return OrderReceipt{}, err
	}
	log.Info("order placed", "sid", sid, "order_number", receipt.OrderNumber,
		"final_amount", order.FinalAmount.String())

	// The order exists upstream now; every step below is best effort.
	bg := context.WithoutCancel(ctx)
	if err := s.idem.Remember(bg, id.Key(), sid, receipt.OrderNumber); err != nil {
		log.Warn("remember order number", "sid", sid, "err", err)
	}
	state.OrderPlaced = true
	state.OrderNumber = receipt.OrderNumber
	if err := s.sessions.Put(bg, sid, keyPayment, state); err != nil {
		log.Warn("store payment state", "sid", sid, "err", err)
	}
	if _, err := s.carts.Clear(bg, id); err != nil {
		log.Warn("clear cart after order", "sid", sid, "err", err)
	}
	for _, k := range []string{keySnapshot, keyCoupon} {
		if err := s.sessions.Delete(bg, sid, k); err != nil {
			log.Warn("delete checkout record", "sid", sid, "key", k, "err", err)
		}
	}
	s.recordPlaced(bg, id, order, receipt)
	return receipt, nil
}

// CartChanged decides what the payment page shows for a cart feed update.
func (s *PaymentService) CartChanged(ctx context.Context, sid string, cart entity.Cart) (CartNotice, error) {
	state, err := s.state(ctx, sid)
	if err != nil {
		return "", err
	}
	switch {
	case state.OrderPlaced:
		return NoticeSuppressed, nil
	case cart.IsEmpty():
		return NoticeCartEmptied, nil
	default:
		return NoticeCartUpdated, nil
	}
}

func (s *PaymentService) recordPlaced(ctx context.Context, id entity.Identity, o entity.Order, r OrderReceipt) {
	if s.outbox == nil {
		return
	}
	email := entity.NormalizeEmail(o.CustomerEmail)
	if u, ok := id.(entity.Authenticated); ok {
		email = entity.NormalizeEmail(u.Email)
	}
	payload, err := json.Marshal(OrderPlacedMsg{
		OrderNumber: r.OrderNumber,
		Email:       email,
		FinalAmount: o.FinalAmount,
		Items:       o.Items.Count(),
		PlacedAt:    s.now().UTC(),
	})
	if err == nil {
		err = s.outbox.InsertOrderPlaced(ctx, payload)
	}
	if err != nil {
		logging.FromCtx(ctx).Error("record order placed", "order_number", r.OrderNumber, "err", err)
	}
}

func (s *PaymentService) checkOwner(ctx context.Context, id entity.Identity, sid string) error {
	if sid == "" {
		return ErrSessionNotFound
	}
	var sess Session
	found, err := s.sessions.Get(ctx, sid, keySession, &sess)
	if err != nil {
		return err
	}
	if !found || sess.Owner != id.Key() {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PaymentService) snapshot(ctx context.Context, sid string) (entity.ShippingSnapshot, error) {
	var snap entity.ShippingSnapshot
	found, err := s.sessions.Get(ctx, sid, keySnapshot, &snap)
	if err != nil {
		return snap, err
	}
	if !found {
		return snap, invalid(ErrNoSnapshot, msgNoSnapshot)
	}
	return snap, nil
}

func (s *PaymentService) coupon(ctx context.Context, sid string) *entity.Coupon {
	var c entity.Coupon
	found, err := s.sessions.Get(ctx, sid, keyCoupon, &c)
	if err != nil {
		logging.FromCtx(ctx).Warn("read applied coupon", "sid", sid, "err", err)
		return nil
	}
	if !found || c.Code == "" {
		return nil
	}
	return &c
}

func (s *PaymentService) state(ctx context.Context, sid string) (PaymentState, error) {
	var st PaymentState
	if _, err := s.sessions.Get(ctx, sid, keyPayment, &st); err != nil {
		return PaymentState{}, err
	}
	return st, nil
}

func totalsFor(cart entity.Cart, snap entity.ShippingSnapshot, c *entity.Coupon) entity.Totals {
	discount := decimal.Zero
	if c != nil {
		discount = c.DiscountAmount
	}
	return entity.ComputeTotals(cart, discount, snap.ShippingFee)
}
