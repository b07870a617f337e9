package upstream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

const msgOrderRejected = "Unable to place order. Please try again."

type OrderClient struct{ c *Client }

func NewOrderClient(c *Client) *OrderClient { return &OrderClient{c: c} }

// SubmitOrder posts the order. A 4xx or success=false is a refusal relayed to
// the user; 5xx and transport failures come back as errors.
func (oc *OrderClient) SubmitOrder(ctx context.Context, o entity.Order) (usecase.OrderReceipt, error) {
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
		Order   struct {
			OrderNumber string `json:"order_number"`
		} `json:"order"`
	}
	err := oc.c.call(ctx, http.MethodPost, "/api/orders", nil, o, &out)

	var se *StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
		msg := backendMessage(se.Body)
		if msg == "" {
			msg = msgOrderRejected
		}
		return usecase.OrderReceipt{}, &usecase.RejectedError{Msg: msg}
	}
	if err != nil {
		return usecase.OrderReceipt{}, err
	}
	if !out.Success || out.Order.OrderNumber == "" {
		msg := out.Message
		if msg == "" {
			msg = msgOrderRejected
		}
		return usecase.OrderReceipt{}, &usecase.RejectedError{Msg: msg}
	}
	return usecase.OrderReceipt{OrderNumber: out.Order.OrderNumber}, nil
}

type orderRow struct {
	OrderNumber   string           `json:"order_number"`
	CustomerEmail string           `json:"customer_email"`
	Status        string           `json:"status"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	FinalAmount   *decimal.Decimal `json:"final_amount"`
	OrderDate     string           `json:"order_date"`
}

func (r orderRow) tracked() entity.TrackedOrder {
	o := entity.TrackedOrder{
		OrderNumber: r.OrderNumber,
		Email:       entity.NormalizeEmail(r.CustomerEmail),
		Status:      entity.Status(r.Status),
		FinalAmount: r.TotalAmount,
		PlacedAt:    parseOrderDate(r.OrderDate),
	}
	if r.FinalAmount != nil {
		o.FinalAmount = *r.FinalAmount
	}
	return o
}

var orderDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseOrderDate(s string) time.Time {
	for _, l := range orderDateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (oc *OrderClient) TrackOrder(ctx context.Context, orderNumber string) (entity.TrackedOrder, error) {
	seg, err := segment(orderNumber)
	if err != nil {
		return entity.TrackedOrder{}, usecase.ErrOrderNotFound
	}
	var out orderRow
	err = oc.c.call(ctx, http.MethodGet, "/api/orders/track/"+seg, nil, nil, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return entity.TrackedOrder{}, usecase.ErrOrderNotFound
	}
	if err != nil {
		return entity.TrackedOrder{}, err
	}
	return out.tracked(), nil
}

func (oc *OrderClient) OrdersByEmail(ctx context.Context, email string) ([]entity.TrackedOrder, error) {
	var out struct {
		Success bool       `json:"success"`
		Orders  []orderRow `json:"orders"`
	}
	seg, err := segment(email)
	if err != nil {
		return nil, err
	}
	if err := oc.c.call(ctx, http.MethodGet, "/api/orders/user/"+seg, nil, nil, &out); err != nil {
		return nil, err
	}
	orders := make([]entity.TrackedOrder, 0, len(out.Orders))
	for _, r := range out.Orders {
		orders = append(orders, r.tracked())
	}
	return orders, nil
}

var (
	_ usecase.OrderGateway = (*OrderClient)(nil)
	_ usecase.OrderLookup  = (*OrderClient)(nil)
)
