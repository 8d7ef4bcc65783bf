package medsysapi

import (
	"context"
	"fmt"
	"net/http"

	"medsys/m/domain"
)

func (c *Client) ListMedications(ctx context.Context) ([]domain.Medication, error) {
	var out []domain.Medication
	if err := c.do(ctx, http.MethodGet, "/medicamento", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMedication(ctx context.Context, in domain.MedicationInput) (domain.Medication, error) {
	var out domain.Medication
	if err := c.do(ctx, http.MethodPost, "/medicamento", in, &out); err != nil {
		return domain.Medication{}, err
	}
	return out, nil
}

func (c *Client) UpdateMedication(ctx context.Context, id int64, in domain.MedicationInput) (domain.Medication, error) {
	var out domain.Medication
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/medicamento/%d", id), in, &out); err != nil {
		return domain.Medication{}, err
	}
	return out, nil
}

func (c *Client) DeleteMedication(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/medicamento/%d", id), nil, nil)
}
