package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the schema for the MedSys API stub. Prices and totals are
// stored as TEXT so decimal values round-trip exactly.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS clientes (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            nome TEXT NOT NULL,
            cpf TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS filiais (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            endereco TEXT NOT NULL,
            telefone TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS medicamentos (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            nome TEXT NOT NULL,
            preco TEXT NOT NULL,
            tipo TEXT NOT NULL,
            filial_id INTEGER NOT NULL,
            estoque INTEGER,
            FOREIGN KEY(filial_id) REFERENCES filiais(id)
        );`,
		`CREATE TABLE IF NOT EXISTS vendas (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            cliente_id INTEGER NOT NULL,
            filial_id INTEGER NOT NULL,
            total TEXT NOT NULL,
            data_hora DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY(cliente_id) REFERENCES clientes(id),
            FOREIGN KEY(filial_id) REFERENCES filiais(id)
        );`,
		`CREATE TABLE IF NOT EXISTS venda_itens (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            venda_id INTEGER NOT NULL,
            medicamento_id INTEGER NOT NULL,
            medicamento_nome TEXT NOT NULL,
            preco_unitario TEXT NOT NULL,
            quantidade INTEGER NOT NULL,
            subtotal TEXT NOT NULL,
            receita INTEGER NOT NULL DEFAULT 0,
            FOREIGN KEY(venda_id) REFERENCES vendas(id),
            FOREIGN KEY(medicamento_id) REFERENCES medicamentos(id)
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
