package stubapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medsys/m/domain"
	"medsys/m/internal/database"
	"medsys/m/internal/migrations"
)

func newStub(t *testing.T) (*httptest.Server, *sqlx.DB) {
	t.Helper()
	db := database.Connect(":memory:")
	t.Cleanup(func() { _ = db.Close() })
	migrations.Run(db)

	ts := httptest.NewServer(New(db).Router())
	t.Cleanup(ts.Close)
	return ts, db
}

func post(t *testing.T, url string, body any) (int, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return res.StatusCode, data
}

func seed(t *testing.T, db *sqlx.DB) {
	t.Helper()
	db.MustExec(`INSERT INTO clientes (nome, cpf) VALUES ('Maria', '12345678909')`)
	db.MustExec(`INSERT INTO filiais (endereco, telefone) VALUES ('Rua A, 10', '11 5555-0101')`)
	db.MustExec(`INSERT INTO medicamentos (nome, preco, tipo, filial_id, estoque) VALUES ('Dormirex', '12.5', 'CONTROLADO', 1, 10)`)
	db.MustExec(`INSERT INTO medicamentos (nome, preco, tipo, filial_id, estoque) VALUES ('Vitamix', '8', 'COMUM', 1, NULL)`)
}

func stock(t *testing.T, db *sqlx.DB, medicationID int64) *int64 {
	t.Helper()
	var s *int64
	if err := db.Get(&s, `SELECT estoque FROM medicamentos WHERE id = ?`, medicationID); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return s
}

// The stub enforces the sale invariants itself so a misbehaving caller
// cannot corrupt stock, even though the admin service validates first.
func TestCreateSaleServerSideChecks(t *testing.T) {
	ts, db := newStub(t)
	seed(t, db)

	sale := func(clientID, medicationID, qty int64, prescription bool) domain.SaleCreate {
		return domain.SaleCreate{
			ClientID: clientID,
			BranchID: 1,
			Items:    []domain.SaleItemCreate{{MedicationID: medicationID, Quantity: qty, Prescription: prescription}},
		}
	}

	cases := []struct {
		name string
		body domain.SaleCreate
		want string
	}{
		{"unknown client", sale(99, 1, 1, true), "client not found"},
		{"unknown medication", sale(1, 99, 1, true), "medication 99 not found"},
		{"zero quantity", sale(1, 1, 0, true), "medicamentoId and a positive quantidade are required for each item"},
		{"over stock", sale(1, 1, 11, true), "insufficient stock for medication 1"},
		{"controlled without prescription", sale(1, 1, 2, false), "medication 1 requires a prescription"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, data := post(t, ts.URL+"/venda", tc.body)
			if status != http.StatusBadRequest {
				t.Fatalf("status = %d %s, want 400", status, data)
			}
			var out map[string]string
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatalf("decode %s: %v", data, err)
			}
			if out["error"] != tc.want {
				t.Errorf("error = %q, want %q", out["error"], tc.want)
			}
		})
	}

	if s := stock(t, db, 1); s == nil || *s != 10 {
		t.Errorf("stock = %v after rejected sales, want 10", s)
	}
}

func TestCreateSaleComputesAmountsAndStock(t *testing.T) {
	ts, db := newStub(t)
	seed(t, db)

	status, data := post(t, ts.URL+"/venda", domain.SaleCreate{
		ClientID: 1,
		BranchID: 1,
		Items: []domain.SaleItemCreate{
			{MedicationID: 1, Quantity: 2, Prescription: true},
			{MedicationID: 2, Quantity: 3},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("status = %d %s, want 201", status, data)
	}
	var created domain.Sale
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}

	// 2 * 12.5 + 3 * 8
	if !created.Total.Equal(decimal.RequireFromString("49")) {
		t.Errorf("total = %s, want 49", created.Total)
	}
	if len(created.Items) != 2 {
		t.Fatalf("items = %+v", created.Items)
	}
	if created.Items[0].MedicationName != "Dormirex" || !created.Items[0].Subtotal.Equal(decimal.RequireFromString("25")) {
		t.Errorf("item snapshot = %+v", created.Items[0])
	}
	if created.Timestamp == "" {
		t.Error("sale timestamp not set")
	}

	if s := stock(t, db, 1); s == nil || *s != 8 {
		t.Errorf("tracked stock = %v, want 8", s)
	}
	if s := stock(t, db, 2); s != nil {
		t.Errorf("untracked stock = %v, want still unknown", s)
	}
}

func TestDeleteSaleReleasesStock(t *testing.T) {
	ts, db := newStub(t)
	seed(t, db)

	status, data := post(t, ts.URL+"/venda", domain.SaleCreate{
		ClientID: 1,
		BranchID: 1,
		Items:    []domain.SaleItemCreate{{MedicationID: 1, Quantity: 4, Prescription: true}},
	})
	if status != http.StatusCreated {
		t.Fatalf("create: %d %s", status, data)
	}
	var created domain.Sale
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s := stock(t, db, 1); s == nil || *s != 6 {
		t.Fatalf("stock = %v after create, want 6", s)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/venda/"+strconv.FormatInt(created.ID, 10), nil)
	if err != nil {
		t.Fatalf("build delete: %v", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", res.StatusCode)
	}

	if s := stock(t, db, 1); s == nil || *s != 10 {
		t.Errorf("stock = %v after delete, want 10", s)
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM venda_itens WHERE venda_id = ?`, created.ID); err != nil || n != 0 {
		t.Errorf("orphaned items = %d (err %v)", n, err)
	}
}
