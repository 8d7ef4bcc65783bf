// Package sale holds the in-progress sale draft, the business-rule
// validator and the submission workflow shared by the compose, list and
// detail screens.
package sale

import (
	"strconv"
	"strings"

	"medsys/m/domain"
)

// Line is one medication entry on a draft. MedicationID and Quantity keep
// the raw form values; coercion happens in WirePayload.
type Line struct {
	MedicationID string
	Quantity     string
	Prescription bool
}

func blankLine() Line { return Line{Quantity: "1"} }

// Draft is the mutable sale being composed or edited. A draft is owned
// exclusively by the screen composing it and is discarded on navigation
// or successful submission.
type Draft struct {
	ClientID string
	BranchID string
	Lines    []Line
}

// NewDraft returns an empty draft with a single blank line.
func NewDraft() *Draft {
	return &Draft{Lines: []Line{blankLine()}}
}

// FromSale populates a draft from a fetched sale for editing.
func FromSale(s domain.Sale) *Draft {
	d := &Draft{
		ClientID: strconv.FormatInt(s.ClientID, 10),
		BranchID: strconv.FormatInt(s.BranchID, 10),
	}
	for _, it := range s.Items {
		d.Lines = append(d.Lines, Line{
			MedicationID: strconv.FormatInt(it.MedicationID, 10),
			Quantity:     strconv.FormatInt(it.Quantity, 10),
			Prescription: it.Prescription,
		})
	}
	if len(d.Lines) == 0 {
		d.Lines = []Line{blankLine()}
	}
	return d
}

// SetClient replaces the selected client. No validation happens at set
// time; everything is checked at submission.
func (d *Draft) SetClient(id string) { d.ClientID = id }

// SetBranch replaces the selected branch.
func (d *Draft) SetBranch(id string) { d.BranchID = id }

// AddLine appends a blank line (quantity 1, no prescription).
func (d *Draft) AddLine() {
	d.Lines = append(d.Lines, blankLine())
}

// LinePatch carries the fields of a line to change. Nil fields are left
// alone.
type LinePatch struct {
	MedicationID *string
	Quantity     *string
	Prescription *bool
}

// UpdateLine applies patch to the line at index. Changing the medication
// resets the prescription flag to false even when the patch says
// otherwise: selecting a different medication voids any prior
// prescription acknowledgment.
func (d *Draft) UpdateLine(index int, patch LinePatch) {
	if index < 0 || index >= len(d.Lines) {
		return
	}
	line := &d.Lines[index]
	if patch.Quantity != nil {
		line.Quantity = *patch.Quantity
	}
	if patch.Prescription != nil {
		line.Prescription = *patch.Prescription
	}
	if patch.MedicationID != nil && *patch.MedicationID != line.MedicationID {
		line.MedicationID = *patch.MedicationID
		line.Prescription = false
	}
}

// RemoveLine drops the line at index. The last remaining line is never
// removed; that call is a no-op.
func (d *Draft) RemoveLine(index int) {
	if index < 0 || index >= len(d.Lines) || len(d.Lines) == 1 {
		return
	}
	d.Lines = append(d.Lines[:index], d.Lines[index+1:]...)
}

// Reset returns the draft to the new-sale state: empty selections, one
// blank line.
func (d *Draft) Reset() {
	*d = *NewDraft()
}

// WirePayload converts the draft to the create/update body. User-entered
// strings are coerced to integers with no rounding beyond truncation;
// nothing is validated here.
func (d *Draft) WirePayload() domain.SaleCreate {
	payload := domain.SaleCreate{
		ClientID: coerceInt(d.ClientID),
		BranchID: coerceInt(d.BranchID),
		Items:    make([]domain.SaleItemCreate, 0, len(d.Lines)),
	}
	for _, line := range d.Lines {
		payload.Items = append(payload.Items, domain.SaleItemCreate{
			MedicationID: coerceInt(line.MedicationID),
			Quantity:     coerceInt(line.Quantity),
			Prescription: line.Prescription,
		})
	}
	return payload
}

func coerceInt(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
