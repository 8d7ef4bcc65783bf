// Package stubapi is a development stand-in for the remote MedSys REST
// API. It implements the /cliente, /filial, /medicamento and /venda
// resources over SQLite with the production wire shapes, including the
// server-side snapshotting of item names and prices and the computation
// of subtotals and totals. It exists so the admin service and its
// integration tests can run without the real backend.
package stubapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medsys/m/domain"
)

// Handler bundles dependencies for the stub endpoints.
type Handler struct {
	db *sqlx.DB
}

// New constructs a Handler.
func New(db *sqlx.DB) *Handler {
	return &Handler{db: db}
}

// Router wires up the stub API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/cliente", func(r chi.Router) {
		r.Get("/", h.listClients)
		r.Post("/", h.createClient)
		r.Put("/{id}", h.updateClient)
		r.Delete("/{id}", h.deleteClient)
	})

	r.Route("/filial", func(r chi.Router) {
		r.Get("/", h.listBranches)
		r.Post("/", h.createBranch)
		r.Put("/{id}", h.updateBranch)
		r.Delete("/{id}", h.deleteBranch)
	})

	r.Route("/medicamento", func(r chi.Router) {
		r.Get("/", h.listMedications)
		r.Post("/", h.createMedication)
		r.Put("/{id}", h.updateMedication)
		r.Delete("/{id}", h.deleteMedication)
	})

	r.Route("/venda", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Post("/", h.createSale)
		r.Get("/{id}", h.getSale)
		r.Put("/{id}", h.updateSale)
		r.Delete("/{id}", h.deleteSale)
	})

	return r
}

// Clients

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients := []domain.Client{}
	if err := h.db.Select(&clients, `SELECT id, nome, cpf FROM clientes ORDER BY id`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list clients")
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var in domain.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Name == "" || in.CPF == "" {
		respondError(w, http.StatusBadRequest, "nome and cpf are required")
		return
	}
	res, err := h.db.Exec(`INSERT INTO clientes (nome, cpf) VALUES (?, ?)`, in.Name, in.CPF)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create client")
		return
	}
	id, _ := res.LastInsertId()
	respondJSON(w, http.StatusCreated, domain.Client{ID: id, Name: in.Name, CPF: in.CPF})
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	var in domain.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.db.Exec(`UPDATE clientes SET nome = ?, cpf = ? WHERE id = ?`, in.Name, in.CPF, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update client")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "client not found")
		return
	}
	respondJSON(w, http.StatusOK, domain.Client{ID: id, Name: in.Name, CPF: in.CPF})
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM clientes WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete client")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "client not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Branches

func (h *Handler) listBranches(w http.ResponseWriter, r *http.Request) {
	branches := []domain.Branch{}
	if err := h.db.Select(&branches, `SELECT id, endereco, telefone FROM filiais ORDER BY id`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list branches")
		return
	}
	respondJSON(w, http.StatusOK, branches)
}

func (h *Handler) createBranch(w http.ResponseWriter, r *http.Request) {
	var in domain.BranchInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Address == "" {
		respondError(w, http.StatusBadRequest, "endereco is required")
		return
	}
	res, err := h.db.Exec(`INSERT INTO filiais (endereco, telefone) VALUES (?, ?)`, in.Address, in.Phone)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create branch")
		return
	}
	id, _ := res.LastInsertId()
	respondJSON(w, http.StatusCreated, domain.Branch{ID: id, Address: in.Address, Phone: in.Phone})
}

func (h *Handler) updateBranch(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid branch id")
		return
	}
	var in domain.BranchInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.db.Exec(`UPDATE filiais SET endereco = ?, telefone = ? WHERE id = ?`, in.Address, in.Phone, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update branch")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "branch not found")
		return
	}
	respondJSON(w, http.StatusOK, domain.Branch{ID: id, Address: in.Address, Phone: in.Phone})
}

func (h *Handler) deleteBranch(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid branch id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM filiais WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete branch")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "branch not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Medications

func (h *Handler) listMedications(w http.ResponseWriter, r *http.Request) {
	medications := []domain.Medication{}
	if err := h.db.Select(&medications, `SELECT id, nome, preco, tipo, filial_id, estoque FROM medicamentos ORDER BY id`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list medications")
		return
	}
	respondJSON(w, http.StatusOK, medications)
}

func (h *Handler) createMedication(w http.ResponseWriter, r *http.Request) {
	var in domain.MedicationInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Name == "" || !in.Kind.Known() {
		respondError(w, http.StatusBadRequest, "nome and a valid tipo are required")
		return
	}
	if !h.exists(`SELECT COUNT(*) FROM filiais WHERE id = ?`, in.BranchID) {
		respondError(w, http.StatusBadRequest, "branch not found")
		return
	}
	res, err := h.db.Exec(`INSERT INTO medicamentos (nome, preco, tipo, filial_id, estoque) VALUES (?, ?, ?, ?, ?)`,
		in.Name, in.Price.String(), string(in.Kind), in.BranchID, in.Stock)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create medication")
		return
	}
	id, _ := res.LastInsertId()
	respondJSON(w, http.StatusCreated, domain.Medication{
		ID: id, Name: in.Name, Price: in.Price, Kind: in.Kind, BranchID: in.BranchID, Stock: in.Stock,
	})
}

func (h *Handler) updateMedication(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}
	var in domain.MedicationInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !in.Kind.Known() {
		respondError(w, http.StatusBadRequest, "a valid tipo is required")
		return
	}
	res, err := h.db.Exec(`UPDATE medicamentos SET nome = ?, preco = ?, tipo = ?, filial_id = ?, estoque = ? WHERE id = ?`,
		in.Name, in.Price.String(), string(in.Kind), in.BranchID, in.Stock, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update medication")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "medication not found")
		return
	}
	respondJSON(w, http.StatusOK, domain.Medication{
		ID: id, Name: in.Name, Price: in.Price, Kind: in.Kind, BranchID: in.BranchID, Stock: in.Stock,
	})
}

func (h *Handler) deleteMedication(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM medicamentos WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete medication")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "medication not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sales

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales := []domain.Sale{}
	if err := h.db.Select(&sales, `SELECT id, cliente_id, filial_id, total, data_hora FROM vendas ORDER BY id DESC`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list sales")
		return
	}
	if len(sales) == 0 {
		respondJSON(w, http.StatusOK, sales)
		return
	}

	ids := make([]int64, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
	}
	query, args, err := sqlx.In(`SELECT venda_id, id, medicamento_id, medicamento_nome, preco_unitario, quantidade, subtotal, receita
                FROM venda_itens WHERE venda_id IN (?) ORDER BY id`, ids)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to prepare sale items query")
		return
	}

	var rows []struct {
		SaleID int64 `db:"venda_id"`
		domain.SaleItem
	}
	if err := h.db.Select(&rows, h.db.Rebind(query), args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load sale items")
		return
	}
	itemsBySale := make(map[int64][]domain.SaleItem)
	for _, row := range rows {
		itemsBySale[row.SaleID] = append(itemsBySale[row.SaleID], row.SaleItem)
	}
	for i := range sales {
		sales[i].Items = itemsBySale[sales[i].ID]
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	s, err := h.loadSale(id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "sale not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load sale")
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var in domain.SaleCreate
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := h.checkSale(in); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start sale")
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO vendas (cliente_id, filial_id, total) VALUES (?, ?, ?)`,
		in.ClientID, in.BranchID, decimal.Zero.String())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create sale")
		return
	}
	saleID, _ := res.LastInsertId()

	total, err := h.applyItems(tx, saleID, in.Items)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save sale items")
		return
	}
	if _, err := tx.Exec(`UPDATE vendas SET total = ? WHERE id = ?`, total.String(), saleID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize sale")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize sale")
		return
	}

	s, err := h.loadSale(saleID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load sale")
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	if !h.exists(`SELECT COUNT(*) FROM vendas WHERE id = ?`, id) {
		respondError(w, http.StatusNotFound, "sale not found")
		return
	}
	var in domain.SaleCreate
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Checked against live stock, before the previous lines give theirs
	// back; an edit that only grows a line's quantity can therefore fail
	// even when the combined stock would cover it. The production API
	// behaves the same way.
	if msg := h.checkSale(in); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start sale update")
		return
	}
	defer tx.Rollback()

	// Lines are replaced wholesale: stock from the previous lines is
	// returned before the new lines are applied. Last write wins.
	if err := h.releaseItems(tx, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to release previous items")
		return
	}
	total, err := h.applyItems(tx, id, in.Items)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save sale items")
		return
	}
	if _, err := tx.Exec(`UPDATE vendas SET cliente_id = ?, filial_id = ?, total = ? WHERE id = ?`,
		in.ClientID, in.BranchID, total.String(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update sale")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize sale update")
		return
	}

	s, err := h.loadSale(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load sale")
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	if !h.exists(`SELECT COUNT(*) FROM vendas WHERE id = ?`, id) {
		respondError(w, http.StatusNotFound, "sale not found")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start sale delete")
		return
	}
	defer tx.Rollback()

	if err := h.releaseItems(tx, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to release sale items")
		return
	}
	if _, err := tx.Exec(`DELETE FROM vendas WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete sale")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize sale delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkSale enforces the server-side invariants on a create/update body.
// It returns an error message, or "" when the body is acceptable.
func (h *Handler) checkSale(in domain.SaleCreate) string {
	if in.ClientID == 0 || in.BranchID == 0 || len(in.Items) == 0 {
		return "cliente_id, filial_id and at least one item are required"
	}
	if !h.exists(`SELECT COUNT(*) FROM clientes WHERE id = ?`, in.ClientID) {
		return "client not found"
	}
	if !h.exists(`SELECT COUNT(*) FROM filiais WHERE id = ?`, in.BranchID) {
		return "branch not found"
	}
	for _, item := range in.Items {
		if item.MedicationID == 0 || item.Quantity <= 0 {
			return "medicamentoId and a positive quantidade are required for each item"
		}
		var med domain.Medication
		err := h.db.Get(&med, `SELECT id, nome, preco, tipo, filial_id, estoque FROM medicamentos WHERE id = ?`, item.MedicationID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Sprintf("medication %d not found", item.MedicationID)
		}
		if err != nil {
			return "unable to check medication"
		}
		if med.Stock != nil && item.Quantity > *med.Stock {
			return fmt.Sprintf("insufficient stock for medication %d", item.MedicationID)
		}
		if med.Kind == domain.KindControlled && !item.Prescription {
			return fmt.Sprintf("medication %d requires a prescription", item.MedicationID)
		}
	}
	return ""
}

// applyItems snapshots medication name and price into the sale items,
// decrements tracked stock, and returns the computed total.
func (h *Handler) applyItems(tx *sqlx.Tx, saleID int64, items []domain.SaleItemCreate) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range items {
		var med domain.Medication
		if err := tx.Get(&med, `SELECT id, nome, preco, tipo, filial_id, estoque FROM medicamentos WHERE id = ?`, item.MedicationID); err != nil {
			return decimal.Zero, err
		}
		subtotal := med.Price.Mul(decimal.NewFromInt(item.Quantity))
		if _, err := tx.Exec(`INSERT INTO venda_itens (venda_id, medicamento_id, medicamento_nome, preco_unitario, quantidade, subtotal, receita)
                VALUES (?, ?, ?, ?, ?, ?, ?)`,
			saleID, med.ID, med.Name, med.Price.String(), item.Quantity, subtotal.String(), item.Prescription); err != nil {
			return decimal.Zero, err
		}
		if med.Stock != nil {
			if _, err := tx.Exec(`UPDATE medicamentos SET estoque = estoque - ? WHERE id = ?`, item.Quantity, med.ID); err != nil {
				return decimal.Zero, err
			}
		}
		total = total.Add(subtotal)
	}
	return total, nil
}

// releaseItems returns tracked stock held by a sale's current items and
// deletes them.
func (h *Handler) releaseItems(tx *sqlx.Tx, saleID int64) error {
	var items []struct {
		MedicationID int64 `db:"medicamento_id"`
		Quantity     int64 `db:"quantidade"`
	}
	if err := tx.Select(&items, `SELECT medicamento_id, quantidade FROM venda_itens WHERE venda_id = ?`, saleID); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := tx.Exec(`UPDATE medicamentos SET estoque = estoque + ? WHERE id = ? AND estoque IS NOT NULL`,
			item.Quantity, item.MedicationID); err != nil {
			return err
		}
	}
	_, err := tx.Exec(`DELETE FROM venda_itens WHERE venda_id = ?`, saleID)
	return err
}

func (h *Handler) loadSale(id int64) (domain.Sale, error) {
	var s domain.Sale
	if err := h.db.Get(&s, `SELECT id, cliente_id, filial_id, total, data_hora FROM vendas WHERE id = ?`, id); err != nil {
		return domain.Sale{}, err
	}
	s.Items = []domain.SaleItem{}
	if err := h.db.Select(&s.Items, `SELECT id, medicamento_id, medicamento_nome, preco_unitario, quantidade, subtotal, receita
                FROM venda_itens WHERE venda_id = ? ORDER BY id`, id); err != nil {
		return domain.Sale{}, err
	}
	return s, nil
}

func (h *Handler) exists(query string, args ...any) bool {
	var n int
	if err := h.db.Get(&n, query, args...); err != nil {
		return false
	}
	return n > 0
}

// Helpers

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
