package usecase

import (
	"context"
	"time"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/shopspring/decimal"
)

// CartBackend persists one identity's cart. Guest and authenticated storage both
// satisfy it, so the store can subscribe to either the same way.
type CartBackend interface {
	Load(ctx context.Context, id entity.Identity) (entity.Cart, error)
	Save(ctx context.Context, id entity.Identity, cart entity.Cart) error
	// Subscribe delivers carts written through this backend until ctx is done.
	Subscribe(ctx context.Context, id entity.Identity) (<-chan entity.Cart, error)
	Name() string
}

type Product struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	Image     string
	Available bool
}

type ProductCatalog interface {
	Product(ctx context.Context, id int64) (Product, error)
}

type ShippingSettings interface {
	ShippingRate(ctx context.Context) (float64, error)
}

type CouponResult struct {
	Valid          bool            `json:"valid"`
	Coupon         *entity.Coupon  `json:"coupon,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Message        string          `json:"message,omitempty"`
}

type CouponGateway interface {
	ValidateCoupon(ctx context.Context, code string, cartTotal decimal.Decimal) (CouponResult, error)
}

type OrderReceipt struct {
	OrderNumber string `json:"order_number"`
}

type OrderGateway interface {
	// SubmitOrder returns *RejectedError when the backend refuses the order.
	SubmitOrder(ctx context.Context, o entity.Order) (OrderReceipt, error)
}

type PaymentQR struct {
	QRCode string `json:"qrCode"`
	UPIID  string `json:"upiId"`
	UPIURL string `json:"upiUrl"`
}

type PaymentQRGateway interface {
	PaymentQR(ctx context.Context, amount decimal.Decimal) (PaymentQR, error)
}

type OrderLookup interface {
	TrackOrder(ctx context.Context, orderNumber string) (entity.TrackedOrder, error)
	OrdersByEmail(ctx context.Context, email string) ([]entity.TrackedOrder, error)
}

// SessionStorage is page-session scoped storage: values live under a scope (the
// checkout session id) until deleted or expired. Corrupted values read as absent.
type SessionStorage interface {
	Get(ctx context.Context, scope, key string, v any) (bool, error)
	Put(ctx context.Context, scope, key string, v any) error
	Delete(ctx context.Context, scope, key string) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OutboxRepo interface {
	InsertOrderPlaced(ctx context.Context, payload []byte) error
}

type OrderStatusCache interface {
	Get(ctx context.Context, orderNumber string) (entity.TrackedOrder, bool, error)
	Put(ctx context.Context, o entity.TrackedOrder) error
	SetStatus(ctx context.Context, orderNumber string, status entity.Status) error
	Remember(ctx context.Context, email string, o entity.TrackedOrder) error
	// Seed caches a newly placed order without replacing a known status and
	// files it under email when one is given.
	Seed(ctx context.Context, email string, o entity.TrackedOrder) error
	Orders(ctx context.Context, email string) ([]entity.TrackedOrder, error)
}

type Telemetry interface {
	QuoteComputed(distanceKm float64)
	CouponChecked(valid bool)
	OrderSubmitted(ok bool)
	CartSaveFailed(backend string)
}

type NopTelemetry struct{}

func (NopTelemetry) QuoteComputed(float64) {}
func (NopTelemetry) CouponChecked(bool)    {}
func (NopTelemetry) OrderSubmitted(bool)   {}
func (NopTelemetry) CartSaveFailed(string) {}

// RetryPolicy controls extra save attempts after a failed cart save.
// The zero value saves once and gives up.
type RetryPolicy struct {
	Retries int
	Backoff time.Duration
}
