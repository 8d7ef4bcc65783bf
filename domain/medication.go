package domain

import "github.com/shopspring/decimal"

// MedicationKind is the closed set of medication categories the MedSys API
// carries in its "tipo" field.
type MedicationKind string

const (
	KindCommon     MedicationKind = "COMUM"
	KindControlled MedicationKind = "CONTROLADO"
)

// Known reports whether the kind is one of the recognized values. Anything
// else came from a newer or broken upstream and must not be treated as
// common by accident.
func (k MedicationKind) Known() bool {
	switch k {
	case KindCommon, KindControlled:
		return true
	}
	return false
}

type Medication struct {
	ID       int64           `db:"id" json:"id"`
	Name     string          `db:"nome" json:"nome"`
	Price    decimal.Decimal `db:"preco" json:"preco"`
	Kind     MedicationKind  `db:"tipo" json:"tipo"`
	BranchID int64           `db:"filial_id" json:"filialId"`
	// Stock is absent from some API responses. nil means unknown, not zero.
	Stock *int64 `db:"estoque" json:"estoque,omitempty"`
}

type MedicationInput struct {
	Name     string          `json:"nome"`
	Price    decimal.Decimal `json:"preco"`
	Kind     MedicationKind  `json:"tipo"`
	BranchID int64           `json:"filialId"`
	Stock    *int64          `json:"estoque,omitempty"`
}
