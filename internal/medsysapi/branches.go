package medsysapi

import (
	"context"
	"fmt"
	"net/http"

	"medsys/m/domain"
)

func (c *Client) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	var out []domain.Branch
	if err := c.do(ctx, http.MethodGet, "/filial", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBranch(ctx context.Context, in domain.BranchInput) (domain.Branch, error) {
	var out domain.Branch
	if err := c.do(ctx, http.MethodPost, "/filial", in, &out); err != nil {
		return domain.Branch{}, err
	}
	return out, nil
}

func (c *Client) UpdateBranch(ctx context.Context, id int64, in domain.BranchInput) (domain.Branch, error) {
	var out domain.Branch
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/filial/%d", id), in, &out); err != nil {
		return domain.Branch{}, err
	}
	return out, nil
}

func (c *Client) DeleteBranch(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/filial/%d", id), nil, nil)
}
