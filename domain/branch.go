package domain

type Branch struct {
	ID      int64  `db:"id" json:"id"`
	Address string `db:"endereco" json:"endereco"`
	Phone   string `db:"telefone" json:"telefone"`
}

type BranchInput struct {
	Address string `json:"endereco"`
	Phone   string `json:"telefone"`
}
