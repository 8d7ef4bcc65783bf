package sale

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"medsys/m/domain"
)

func strptr(s string) *string { return &s }

func boolptr(b bool) *bool { return &b }

func TestNewDraftStartsWithOneBlankLine(t *testing.T) {
	d := NewDraft()
	if len(d.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(d.Lines))
	}
	if d.Lines[0].MedicationID != "" || d.Lines[0].Quantity != "1" || d.Lines[0].Prescription {
		t.Errorf("unexpected blank line: %+v", d.Lines[0])
	}
}

func TestUpdateLineMedicationChangeResetsPrescription(t *testing.T) {
	d := NewDraft()
	d.UpdateLine(0, LinePatch{MedicationID: strptr("5")})
	d.UpdateLine(0, LinePatch{Prescription: boolptr(true)})
	if !d.Lines[0].Prescription {
		t.Fatal("prescription flag not applied")
	}

	// Changing the medication must void the acknowledgment even though the
	// patch says nothing about the flag.
	d.UpdateLine(0, LinePatch{MedicationID: strptr("7")})
	if d.Lines[0].MedicationID != "7" {
		t.Errorf("medication = %q, want 7", d.Lines[0].MedicationID)
	}
	if d.Lines[0].Prescription {
		t.Error("prescription flag survived a medication change")
	}
}

func TestUpdateLineMedicationChangeOverridesPatchFlag(t *testing.T) {
	d := NewDraft()
	d.UpdateLine(0, LinePatch{MedicationID: strptr("5"), Prescription: boolptr(true)})
	if d.Lines[0].Prescription {
		t.Error("prescription flag must not survive when the same patch changes the medication")
	}
}

func TestUpdateLineSameMedicationKeepsPrescription(t *testing.T) {
	d := NewDraft()
	d.UpdateLine(0, LinePatch{MedicationID: strptr("5")})
	d.UpdateLine(0, LinePatch{Prescription: boolptr(true)})
	d.UpdateLine(0, LinePatch{MedicationID: strptr("5"), Quantity: strptr("3")})
	if !d.Lines[0].Prescription {
		t.Error("prescription flag reset although the medication did not change")
	}
	if d.Lines[0].Quantity != "3" {
		t.Errorf("quantity = %q, want 3", d.Lines[0].Quantity)
	}
}

func TestUpdateLineOutOfRangeIsNoop(t *testing.T) {
	d := NewDraft()
	before := *d
	d.UpdateLine(5, LinePatch{Quantity: strptr("9")})
	d.UpdateLine(-1, LinePatch{Quantity: strptr("9")})
	if !reflect.DeepEqual(before.Lines, d.Lines) {
		t.Error("out-of-range patch mutated the draft")
	}
}

func TestRemoveLineKeepsAtLeastOne(t *testing.T) {
	d := NewDraft()
	d.RemoveLine(0)
	if len(d.Lines) != 1 {
		t.Fatalf("last line was removed; %d lines left", len(d.Lines))
	}

	d.AddLine()
	d.AddLine()
	d.UpdateLine(1, LinePatch{MedicationID: strptr("2")})
	d.RemoveLine(1)
	if len(d.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(d.Lines))
	}
	if d.Lines[1].MedicationID == "2" {
		t.Error("wrong line removed")
	}
}

func TestWirePayloadCoercionAndIdempotence(t *testing.T) {
	d := &Draft{
		ClientID: " 3 ",
		BranchID: "1",
		Lines: []Line{
			{MedicationID: "5", Quantity: "2", Prescription: true},
			{MedicationID: "8", Quantity: "2.9"},
			{MedicationID: "bogus", Quantity: ""},
		},
	}
	want := domain.SaleCreate{
		ClientID: 3,
		BranchID: 1,
		Items: []domain.SaleItemCreate{
			{MedicationID: 5, Quantity: 2, Prescription: true},
			{MedicationID: 8, Quantity: 2},
			{MedicationID: 0, Quantity: 0},
		},
	}
	first := d.WirePayload()
	if !reflect.DeepEqual(first, want) {
		t.Errorf("payload = %+v, want %+v", first, want)
	}
	second := d.WirePayload()
	if !reflect.DeepEqual(first, second) {
		t.Error("WirePayload is not idempotent on an unmodified draft")
	}
}

func TestFromSale(t *testing.T) {
	s := domain.Sale{
		ID:       9,
		ClientID: 1,
		BranchID: 2,
		Total:    decimal.NewFromInt(30),
		Items: []domain.SaleItem{
			{MedicationID: 5, Quantity: 2, Prescription: true},
			{MedicationID: 6, Quantity: 1},
		},
	}
	d := FromSale(s)
	if d.ClientID != "1" || d.BranchID != "2" {
		t.Errorf("selections = %q/%q, want 1/2", d.ClientID, d.BranchID)
	}
	if len(d.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(d.Lines))
	}
	if d.Lines[0].MedicationID != "5" || d.Lines[0].Quantity != "2" || !d.Lines[0].Prescription {
		t.Errorf("line 1 = %+v", d.Lines[0])
	}
}

func TestFromSaleWithoutItemsGetsBlankLine(t *testing.T) {
	d := FromSale(domain.Sale{ID: 9, ClientID: 1, BranchID: 2})
	if len(d.Lines) != 1 || d.Lines[0].Quantity != "1" {
		t.Errorf("expected one blank line, got %+v", d.Lines)
	}
}

func TestResetReturnsToNewSaleState(t *testing.T) {
	d := NewDraft()
	d.SetClient("1")
	d.SetBranch("2")
	d.AddLine()
	d.Reset()
	if !reflect.DeepEqual(d, NewDraft()) {
		t.Errorf("reset draft = %+v", d)
	}
}
