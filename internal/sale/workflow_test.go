package sale

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"medsys/m/domain"
	"medsys/m/internal/medsysapi"
)

type fakeSaleAPI struct {
	createCalls int
	updateCalls int
	deleteCalls int

	createErr error
	updateErr error
	deleteErr error

	lastPayload domain.SaleCreate
	result      domain.Sale
}

func (f *fakeSaleAPI) CreateSale(ctx context.Context, in domain.SaleCreate) (domain.Sale, error) {
	f.createCalls++
	f.lastPayload = in
	if f.createErr != nil {
		return domain.Sale{}, f.createErr
	}
	return f.result, nil
}

func (f *fakeSaleAPI) UpdateSale(ctx context.Context, id int64, in domain.SaleCreate) (domain.Sale, error) {
	f.updateCalls++
	f.lastPayload = in
	if f.updateErr != nil {
		return domain.Sale{}, f.updateErr
	}
	return f.result, nil
}

func (f *fakeSaleAPI) DeleteSale(ctx context.Context, id int64) error {
	f.deleteCalls++
	return f.deleteErr
}

func validDraft() *Draft {
	return draftWith(Line{MedicationID: "5", Quantity: "2", Prescription: true})
}

func TestSubmitNewValidationFailureSkipsNetwork(t *testing.T) {
	api := &fakeSaleAPI{}
	wf := NewWorkflow(api)
	d := draftWith(Line{MedicationID: "5", Quantity: "2"}) // controlled, no prescription
	before := *d

	_, err := wf.SubmitNew(context.Background(), d, testSnapshot(t))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if wf.State() != Failed {
		t.Errorf("state = %s, want failed", wf.State())
	}
	if api.createCalls != 0 {
		t.Error("validation failure must not reach the network")
	}
	if !reflect.DeepEqual(before.Lines, d.Lines) {
		t.Error("draft mutated on validation failure")
	}
}

func TestSubmitNewSuccessResetsDraftAndRefreshes(t *testing.T) {
	api := &fakeSaleAPI{result: domain.Sale{ID: 42, ClientID: 1, BranchID: 1}}
	wf := NewWorkflow(api)
	refreshed := false
	wf.OnRefresh = func() { refreshed = true }

	d := validDraft()
	created, err := wf.SubmitNew(context.Background(), d, testSnapshot(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 42 {
		t.Errorf("created.ID = %d, want 42", created.ID)
	}
	if wf.State() != Succeeded {
		t.Errorf("state = %s, want succeeded", wf.State())
	}
	if !reflect.DeepEqual(d, NewDraft()) {
		t.Error("draft not reset after successful create")
	}
	if !refreshed {
		t.Error("list refresh not scheduled after successful create")
	}
	want := domain.SaleCreate{
		ClientID: 1,
		BranchID: 1,
		Items:    []domain.SaleItemCreate{{MedicationID: 5, Quantity: 2, Prescription: true}},
	}
	if !equalSaleCreate(api.lastPayload, want) {
		t.Errorf("payload = %+v, want %+v", api.lastPayload, want)
	}
}

func TestSubmitNewAPIFailurePreservesDraft(t *testing.T) {
	api := &fakeSaleAPI{createErr: &medsysapi.ServerError{Status: 500, Message: "internal error"}}
	wf := NewWorkflow(api)
	refreshed := false
	wf.OnRefresh = func() { refreshed = true }

	d := validDraft()
	before := *d
	_, err := wf.SubmitNew(context.Background(), d, testSnapshot(t))
	if err == nil || err.Error() != "[500] internal error" {
		t.Fatalf("err = %v, want [500] internal error", err)
	}
	if wf.State() != Failed {
		t.Errorf("state = %s, want failed", wf.State())
	}
	if wf.Err() != err {
		t.Error("workflow did not retain the failure")
	}
	if !reflect.DeepEqual(before, *d) {
		t.Error("draft must be preserved unchanged so the user can retry")
	}
	if refreshed {
		t.Error("no list refresh may be triggered on failure")
	}
}

func TestSubmitEditKeepsDraft(t *testing.T) {
	api := &fakeSaleAPI{result: domain.Sale{ID: 7}}
	wf := NewWorkflow(api)

	d := validDraft()
	updated, err := wf.SubmitEdit(context.Background(), 7, d, testSnapshot(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ID != 7 {
		t.Errorf("updated.ID = %d, want 7", updated.ID)
	}
	if api.updateCalls != 1 {
		t.Errorf("updateCalls = %d, want 1", api.updateCalls)
	}
	if len(d.Lines) != 1 || d.Lines[0].MedicationID != "5" {
		t.Error("edit draft must survive submission")
	}
}

func TestDeleteWithoutConfirmationNeverCallsAPI(t *testing.T) {
	api := &fakeSaleAPI{}
	wf := NewWorkflow(api)

	if err := wf.Delete(context.Background(), 3, func() bool { return false }); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err = %v, want ErrNotConfirmed", err)
	}
	if err := wf.Delete(context.Background(), 3, nil); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err = %v, want ErrNotConfirmed", err)
	}
	if api.deleteCalls != 0 {
		t.Error("unconfirmed delete reached the network")
	}
}

func TestDeleteConfirmed(t *testing.T) {
	api := &fakeSaleAPI{}
	wf := NewWorkflow(api)
	if err := wf.Delete(context.Background(), 3, func() bool { return true }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.deleteCalls != 1 {
		t.Errorf("deleteCalls = %d, want 1", api.deleteCalls)
	}
}

func TestAckReturnsToIdle(t *testing.T) {
	api := &fakeSaleAPI{createErr: &medsysapi.NoResponseError{}}
	wf := NewWorkflow(api)
	_, _ = wf.SubmitNew(context.Background(), validDraft(), testSnapshot(t))
	if wf.State() != Failed {
		t.Fatalf("state = %s, want failed", wf.State())
	}
	wf.Ack()
	if wf.State() != Idle || wf.Err() != nil {
		t.Errorf("state = %s err = %v after ack", wf.State(), wf.Err())
	}
}
