package upstream

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

type ProductClient struct{ c *Client }

func NewProductClient(c *Client) *ProductClient { return &ProductClient{c: c} }

type productResp struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	IsAvailable *bool           `json:"is_available"`
}

func (pc *ProductClient) Product(ctx context.Context, id int64) (usecase.Product, error) {
	var out productResp
	err := pc.c.call(ctx, http.MethodGet, "/api/products/"+strconv.FormatInt(id, 10), nil, nil, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return usecase.Product{}, usecase.ErrProductNotFound
	}
	if err != nil {
		return usecase.Product{}, err
	}
	return usecase.Product{
		ID:    out.ID,
		Name:  out.Name,
		Price: out.Price,
		Image: out.Image,
		// Products predating the availability flag are on sale.
		Available: out.IsAvailable == nil || *out.IsAvailable,
	}, nil
}

var _ usecase.ProductCatalog = (*ProductClient)(nil)
