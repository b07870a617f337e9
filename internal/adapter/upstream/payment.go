package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

type PaymentClient struct{ c *Client }

func NewPaymentClient(c *Client) *PaymentClient { return &PaymentClient{c: c} }

// PaymentQR fetches the QR reference for amount. The image itself is rendered
// by the backend.
func (pc *PaymentClient) PaymentQR(ctx context.Context, amount decimal.Decimal) (usecase.PaymentQR, error) {
	var out usecase.PaymentQR
	q := url.Values{"amount": {amount.StringFixed(2)}}
	if err := pc.c.call(ctx, http.MethodGet, "/api/payment/qrcode", q, nil, &out); err != nil {
		return usecase.PaymentQR{}, err
	}
	return out, nil
}

var _ usecase.PaymentQRGateway = (*PaymentClient)(nil)
