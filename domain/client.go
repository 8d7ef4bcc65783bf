package domain

type Client struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"nome" json:"nome"`
	CPF  string `db:"cpf" json:"cpf"`
}

// ClientInput is the create/update body accepted by the MedSys API.
type ClientInput struct {
	Name string `json:"nome"`
	CPF  string `json:"cpf"`
}
