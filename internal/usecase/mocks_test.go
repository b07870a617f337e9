package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
)

// memBackend implements CartBackend in memory. FailSaves makes the next n saves fail.
type memBackend struct {
	mu        sync.Mutex
	name      string
	carts     map[string]entity.Cart
	FailSaves int
	SaveCalls int
	LoadErr   error
	feed      chan entity.Cart
}

func newMemBackend(name string) *memBackend {
	return &memBackend{name: name, carts: map[string]entity.Cart{}, feed: make(chan entity.Cart, 4)}
}

func (m *memBackend) Name() string { return m.name }

func (m *memBackend) Load(_ context.Context, id entity.Identity) (entity.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.carts[id.Key()].Clone(), nil
}

func (m *memBackend) Save(_ context.Context, id entity.Identity, cart entity.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.FailSaves > 0 {
		m.FailSaves--
		return errBackendDown
	}
	m.carts[id.Key()] = cart.Clone()
	return nil
}

func (m *memBackend) Subscribe(ctx context.Context, _ entity.Identity) (<-chan entity.Cart, error) {
	out := make(chan entity.Cart)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-m.feed:
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *memBackend) set(id entity.Identity, cart entity.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[id.Key()] = cart
}

func (m *memBackend) get(id entity.Identity) entity.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[id.Key()]
}

type errString string

func (e errString) Error() string { return string(e) }

const errBackendDown = errString("backend down")

type fakeCatalog map[int64]Product

func (f fakeCatalog) Product(_ context.Context, id int64) (Product, error) {
	p, ok := f[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

type fakeSettings struct {
	mu    sync.Mutex
	Rate  float64
	Err   error
	Calls int
}

func (f *fakeSettings) ShippingRate(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	return f.Rate, f.Err
}

// fakeCoupons accepts the codes in Discounts and rejects everything else.
type fakeCoupons struct {
	Discounts map[string]decimal.Decimal
	Err       error
	Calls     int
	LastTotal decimal.Decimal
}

func (f *fakeCoupons) ValidateCoupon(_ context.Context, code string, total decimal.Decimal) (CouponResult, error) {
	f.Calls++
	f.LastTotal = total
	if f.Err != nil {
		return CouponResult{}, f.Err
	}
	d, ok := f.Discounts[code]
	if !ok {
		return CouponResult{Valid: false, Message: "Coupon has expired"}, nil
	}
	return CouponResult{Valid: true, Coupon: &entity.Coupon{Code: code}, DiscountAmount: d}, nil
}

type fakeOrders struct {
	mu        sync.Mutex
	Number    string
	Err       error
	Submitted []entity.Order
}

func (f *fakeOrders) SubmitOrder(_ context.Context, o entity.Order) (OrderReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return OrderReceipt{}, f.Err
	}
	f.Submitted = append(f.Submitted, o)
	return OrderReceipt{OrderNumber: f.Number}, nil
}

type fakeQR struct {
	Err    error
	Amount decimal.Decimal
}

func (f *fakeQR) PaymentQR(_ context.Context, amount decimal.Decimal) (PaymentQR, error) {
	f.Amount = amount
	if f.Err != nil {
		return PaymentQR{}, f.Err
	}
	return PaymentQR{QRCode: "data:image/png;base64,AAAA", UPIID: "shop@upi", UPIURL: "upi://pay?am=" + amount.String()}, nil
}

// memSessions round-trips values through JSON like the Redis store does.
type memSessions struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSessions() *memSessions { return &memSessions{data: map[string][]byte{}} }

func (m *memSessions) Get(_ context.Context, scope, key string, v any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[scope+"/"+key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		delete(m.data, scope+"/"+key)
		return false, nil
	}
	return true, nil
}

func (m *memSessions) Put(_ context.Context, scope, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[scope+"/"+key] = b
	return nil
}

func (m *memSessions) Delete(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, scope+"/"+key)
	return nil
}

func (m *memSessions) has(scope, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[scope+"/"+key]
	return ok
}

func (m *memSessions) raw(scope, key string, b string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[scope+"/"+key] = []byte(b)
}

type memIdem struct {
	mu     sync.Mutex
	locks  map[string]bool
	values map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locks: map[string]bool{}, values: map[string]string{}}
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[scope+key] {
		return false, nil
	}
	m.locks[scope+key] = true
	return true, nil
}

func (m *memIdem) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, scope+key)
	return nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[scope+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[scope+key]
	return v, ok, nil
}

type memOutbox struct {
	Payloads [][]byte
}

func (m *memOutbox) InsertOrderPlaced(_ context.Context, payload []byte) error {
	m.Payloads = append(m.Payloads, payload)
	return nil
}

type fakeLookup struct {
	Orders map[string]entity.TrackedOrder
	ByUser map[string][]entity.TrackedOrder
	Err    error
	Calls  int
}

func (f *fakeLookup) TrackOrder(_ context.Context, n string) (entity.TrackedOrder, error) {
	f.Calls++
	if f.Err != nil {
		return entity.TrackedOrder{}, f.Err
	}
	o, ok := f.Orders[n]
	if !ok {
		return entity.TrackedOrder{}, ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeLookup) OrdersByEmail(_ context.Context, email string) ([]entity.TrackedOrder, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.ByUser[email], nil
}

type memStatusCache struct {
	orders map[string]entity.TrackedOrder
	byUser map[string][]entity.TrackedOrder
}

func newMemStatusCache() *memStatusCache {
	return &memStatusCache{orders: map[string]entity.TrackedOrder{}, byUser: map[string][]entity.TrackedOrder{}}
}

func (m *memStatusCache) Get(_ context.Context, n string) (entity.TrackedOrder, bool, error) {
	o, ok := m.orders[n]
	return o, ok, nil
}

func (m *memStatusCache) Put(_ context.Context, o entity.TrackedOrder) error {
	m.orders[o.OrderNumber] = o
	return nil
}

func (m *memStatusCache) SetStatus(_ context.Context, n string, st entity.Status) error {
	o := m.orders[n]
	o.OrderNumber = n
	o.Status = st
	m.orders[n] = o
	return nil
}

func (m *memStatusCache) Remember(_ context.Context, email string, o entity.TrackedOrder) error {
	m.byUser[email] = append(m.byUser[email], o)
	return nil
}

func (m *memStatusCache) Seed(_ context.Context, email string, o entity.TrackedOrder) error {
	if prev, ok := m.orders[o.OrderNumber]; ok && prev.Status != "" {
		o.Status = prev.Status
	}
	m.orders[o.OrderNumber] = o
	if email != "" {
		m.byUser[email] = append(m.byUser[email], o)
	}
	return nil
}

func (m *memStatusCache) Orders(_ context.Context, email string) ([]entity.TrackedOrder, error) {
	return m.byUser[email], nil
}

type countingTelemetry struct {
	mu          sync.Mutex
	Quotes      int
	ValidCoupon int
	BadCoupon   int
	OrdersOK    int
	OrdersFail  int
	SaveFailed  map[string]int
}

func (c *countingTelemetry) QuoteComputed(float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Quotes++
}

func (c *countingTelemetry) CouponChecked(valid bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if valid {
		c.ValidCoupon++
	} else {
		c.BadCoupon++
	}
}

func (c *countingTelemetry) OrderSubmitted(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.OrdersOK++
	} else {
		c.OrdersFail++
	}
}

func (c *countingTelemetry) CartSaveFailed(backend string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SaveFailed == nil {
		c.SaveFailed = map[string]int{}
	}
	c.SaveFailed[backend]++
}

var (
	_ CartBackend      = (*memBackend)(nil)
	_ ProductCatalog   = fakeCatalog(nil)
	_ ShippingSettings = (*fakeSettings)(nil)
	_ CouponGateway    = (*fakeCoupons)(nil)
	_ OrderGateway     = (*fakeOrders)(nil)
	_ PaymentQRGateway = (*fakeQR)(nil)
	_ SessionStorage   = (*memSessions)(nil)
	_ IdempotencyStore = (*memIdem)(nil)
	_ OutboxRepo       = (*memOutbox)(nil)
	_ OrderLookup      = (*fakeLookup)(nil)
	_ OrderStatusCache = (*memStatusCache)(nil)
	_ Telemetry        = (*countingTelemetry)(nil)
)
