package sale

import (
	"context"
	"errors"

	"medsys/m/domain"
	"medsys/m/internal/catalog"
)

// SaleAPI is the slice of the MedSys API the workflow calls.
type SaleAPI interface {
	CreateSale(ctx context.Context, in domain.SaleCreate) (domain.Sale, error)
	UpdateSale(ctx context.Context, id int64, in domain.SaleCreate) (domain.Sale, error)
	DeleteSale(ctx context.Context, id int64) error
}

// State tracks a submission through its lifecycle. Terminal states stick
// until acknowledged or a new submission starts.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ErrNotConfirmed is returned by Delete when the confirmation gate
// declines. No network call is made in that case.
var ErrNotConfirmed = errors.New("delete not confirmed")

// Workflow drives a draft through validate, submit and reconcile. One
// workflow per screen. A failed submission leaves the draft untouched so
// the user retries without re-entering data, and nothing here retries
// automatically: a naive retry of SubmitNew could double-submit a sale.
type Workflow struct {
	api   SaleAPI
	state State
	err   error

	// OnRefresh, when set, runs after a successful create so the owning
	// screen refreshes its sale list.
	OnRefresh func()
}

func NewWorkflow(api SaleAPI) *Workflow {
	return &Workflow{api: api}
}

func (w *Workflow) State() State { return w.state }

// Err returns the failure that put the workflow into Failed, if any.
func (w *Workflow) Err() error { return w.err }

// Ack returns the workflow to Idle after a terminal state has been shown.
func (w *Workflow) Ack() {
	w.state = Idle
	w.err = nil
}

// SubmitNew validates and creates a sale. On success the draft is reset
// to a fresh blank draft and OnRefresh fires; on any failure the draft is
// preserved unchanged and no refresh is scheduled.
func (w *Workflow) SubmitNew(ctx context.Context, draft *Draft, snap *catalog.Snapshot) (domain.Sale, error) {
	w.state, w.err = Validating, nil
	if err := Validate(draft, snap); err != nil {
		w.state, w.err = Failed, err
		return domain.Sale{}, err
	}

	w.state = Submitting
	created, err := w.api.CreateSale(ctx, draft.WirePayload())
	if err != nil {
		w.state, w.err = Failed, err
		return domain.Sale{}, err
	}

	w.state = Succeeded
	draft.Reset()
	if w.OnRefresh != nil {
		w.OnRefresh()
	}
	return created, nil
}

// SubmitEdit validates and updates the sale with the given id. The draft
// is kept either way; on success the caller navigates to the detail view.
func (w *Workflow) SubmitEdit(ctx context.Context, id int64, draft *Draft, snap *catalog.Snapshot) (domain.Sale, error) {
	w.state, w.err = Validating, nil
	if err := Validate(draft, snap); err != nil {
		w.state, w.err = Failed, err
		return domain.Sale{}, err
	}

	w.state = Submitting
	updated, err := w.api.UpdateSale(ctx, id, draft.WirePayload())
	if err != nil {
		w.state, w.err = Failed, err
		return domain.Sale{}, err
	}

	w.state = Succeeded
	return updated, nil
}

// Delete removes a sale after the confirmation gate approves. Without
// confirmation the endpoint is never called. On success the caller prunes
// the sale from its displayed list; on failure the list stays as it was.
func (w *Workflow) Delete(ctx context.Context, id int64, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return ErrNotConfirmed
	}
	return w.api.DeleteSale(ctx, id)
}
