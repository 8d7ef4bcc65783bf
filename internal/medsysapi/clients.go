package medsysapi

import (
	"context"
	"fmt"
	"net/http"

	"medsys/m/domain"
)

func (c *Client) ListClients(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	if err := c.do(ctx, http.MethodGet, "/cliente", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateClient(ctx context.Context, in domain.ClientInput) (domain.Client, error) {
	var out domain.Client
	if err := c.do(ctx, http.MethodPost, "/cliente", in, &out); err != nil {
		return domain.Client{}, err
	}
	return out, nil
}

func (c *Client) UpdateClient(ctx context.Context, id int64, in domain.ClientInput) (domain.Client, error) {
	var out domain.Client
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/cliente/%d", id), in, &out); err != nil {
		return domain.Client{}, err
	}
	return out, nil
}

func (c *Client) DeleteClient(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cliente/%d", id), nil, nil)
}
