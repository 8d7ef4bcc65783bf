package medsysapi

import (
	"context"
	"fmt"
	"net/http"

	"medsys/m/domain"
)

func (c *Client) ListSales(ctx context.Context) ([]domain.Sale, error) {
	var out []domain.Sale
	if err := c.do(ctx, http.MethodGet, "/venda", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	var out domain.Sale
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/venda/%d", id), nil, &out); err != nil {
		return domain.Sale{}, err
	}
	return out, nil
}

func (c *Client) CreateSale(ctx context.Context, in domain.SaleCreate) (domain.Sale, error) {
	var out domain.Sale
	if err := c.do(ctx, http.MethodPost, "/venda", in, &out); err != nil {
		return domain.Sale{}, err
	}
	return out, nil
}

func (c *Client) UpdateSale(ctx context.Context, id int64, in domain.SaleCreate) (domain.Sale, error) {
	var out domain.Sale
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/venda/%d", id), in, &out); err != nil {
		return domain.Sale{}, err
	}
	return out, nil
}

func (c *Client) DeleteSale(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/venda/%d", id), nil, nil)
}
