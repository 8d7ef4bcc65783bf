package domain

import "github.com/shopspring/decimal"

// Sale is the authoritative server-side record. Item names, unit prices,
// subtotals and the total are snapshots computed by the MedSys API; the
// admin service never recomputes money amounts.
type Sale struct {
	ID        int64           `db:"id" json:"id"`
	ClientID  int64           `db:"cliente_id" json:"id_cliente"`
	BranchID  int64           `db:"filial_id" json:"id_filial"`
	Items     []SaleItem      `json:"itens"`
	Timestamp string          `db:"data_hora" json:"dataHora,omitempty"`
	Total     decimal.Decimal `db:"total" json:"total"`
}

type SaleItem struct {
	ID             int64           `db:"id" json:"id,omitempty"`
	MedicationID   int64           `db:"medicamento_id" json:"medicamentoId"`
	MedicationName string          `db:"medicamento_nome" json:"medicamentoNome,omitempty"`
	UnitPrice      decimal.Decimal `db:"preco_unitario" json:"precoUnitario"`
	Quantity       int64           `db:"quantidade" json:"quantidade"`
	Subtotal       decimal.Decimal `db:"subtotal" json:"subtotal"`
	Prescription   bool            `db:"receita" json:"receita"`
}

// SaleCreate is the create/update wire payload. The API reads cliente_id /
// filial_id here but writes id_cliente / id_filial on Sale; the asymmetry
// is the upstream contract.
type SaleCreate struct {
	ClientID int64            `json:"cliente_id"`
	BranchID int64            `json:"filial_id"`
	Items    []SaleItemCreate `json:"itens"`
}

type SaleItemCreate struct {
	MedicationID int64 `json:"medicamentoId"`
	Quantity     int64 `json:"quantidade"`
	Prescription bool  `json:"receita"`
}
