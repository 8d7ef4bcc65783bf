package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"medsys/m/domain"
	"medsys/m/internal/catalog"
	"medsys/m/internal/medsysapi"
	"medsys/m/internal/sale"
)

// Handler bundles dependencies for the admin HTTP endpoints. Each group
// of routes mirrors one administrative screen; everything authoritative
// lives behind the MedSys API.
type Handler struct {
	api     *medsysapi.Client
	catalog *catalog.Cache
}

// New constructs a Handler.
func New(api *medsysapi.Client) *Handler {
	return &Handler{api: api, catalog: catalog.NewCache(api)}
}

// Router wires up the admin HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/clients", func(r chi.Router) {
		r.Get("/", h.listClients)
		r.Post("/", h.createClient)
		r.Put("/{id}", h.updateClient)
		r.Delete("/{id}", h.deleteClient)
	})

	r.Route("/branches", func(r chi.Router) {
		r.Get("/", h.listBranches)
		r.Post("/", h.createBranch)
		r.Put("/{id}", h.updateBranch)
		r.Delete("/{id}", h.deleteBranch)
	})

	r.Route("/medications", func(r chi.Router) {
		r.Get("/", h.listMedications)
		r.Post("/", h.createMedication)
		r.Put("/{id}", h.updateMedication)
		r.Delete("/{id}", h.deleteMedication)
	})

	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Post("/", h.createSale)
		r.Get("/{id}", h.getSale)
		r.Put("/{id}", h.updateSale)
		r.Delete("/{id}", h.deleteSale)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Client screen

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.api.ListClients(r.Context())
	if err != nil {
		respondFailure(w, err)
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
	if in.Name == "" {
		respondError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	if !domain.ValidCPF(in.CPF) {
		respondError(w, http.StatusUnprocessableEntity, "invalid CPF")
		return
	}
	created, err := h.api.CreateClient(r.Context(), in)
	if err != nil {
		respondFailure(w, err)
		return
	}
	h.catalog.Invalidate()
	respondJSON(w, http.StatusCreated, created)
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
	if !domain.ValidCPF(in.CPF) {
		respondError(w, http.StatusUnprocessableEntity, "invalid CPF")
		return
	}
	updated, err := h.api.UpdateClient(r.Context(), id, in)
	if err != nil {
		respondFailure(w, err)
		return
	}
	h.catalog.Invalidate()
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	if err := h.api.DeleteClient(r.Context(), id); err != nil {
		respondFailure(w, err)
		return
	}
	h.catalog.Invalidate()
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Branch screen

func (h *Handler) listBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.api.ListBranches(r.Context())
	if err != nil {
		respondFailure(w, err)
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
		respondError(w, http.StatusUnprocessableEntity, "address is required")
		return
	}
	created, err := h.api.CreateBranch(r.Context(), in)
	if err != nil {
		respondFailure(w, err)
		return
	}
	h.catalog.Invalidate()
	respondJSON(w, http.StatusCreated, created)
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
	updated, err := h.api.UpdateBranch(r.Context(), id, in)
	if err != nil {
		respondFailure(w, err)
		return
	}
	h.catalog.Invalidate()
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteBranch(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid branch id")
		return
	}
	if err := h.api.DeleteBranch(r.Context(), id); err != nil {
		respondFailure(w, err)
		return
	}
	h.catalog.Invalidate()
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Medication screen

func (h *Handler) listMedications(w http.ResponseWriter, r *http.Request) {
	medications, err := h.api.ListMedications(r.Context())
	if err != nil {
		respondFailure(w, err)
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
	if in.Name == "" {
		respondError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	if !in.Kind.Known() {
		respondError(w, http.StatusUnprocessableEntity, "kind must be COMUM or CONTROLADO")
		return
	}
	if in.Price.IsNegative() {
		respondError(w, http.StatusUnprocessableEntity, "price must not be negative")
		return
	}
	created, err := h.api.CreateMedication(r.Context(), in)
	if err != nil {
		respondFailure(w, err)
		return
	}
	h.catalog.Invalidate()
	respondJSON(w, http.StatusCreated, created)
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
		respondError(w, http.StatusUnprocessableEntity, "kind must be COMUM or CONTROLADO")
		return
	}
	updated, err := h.api.UpdateMedication(r.Context(), id, in)
	if err != nil {
		respondFailure(w, err)
		return
	}
	h.catalog.Invalidate()
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteMedication(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}
	if err := h.api.DeleteMedication(r.Context(), id); err != nil {
		respondFailure(w, err)
		return
	}
	h.catalog.Invalidate()
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Sale screens

// saleForm mirrors the browser form: ids and quantities arrive as the raw
// input strings and are coerced/validated by the sale package.
type saleForm struct {
	ClientID string         `json:"cliente_id"`
	BranchID string         `json:"filial_id"`
	Items    []saleFormItem `json:"itens"`
}

type saleFormItem struct {
	MedicationID string `json:"medicamentoId"`
	Quantity     string `json:"quantidade"`
	Prescription bool   `json:"receita"`
}

func (f saleForm) draft() *sale.Draft {
	d := &sale.Draft{ClientID: f.ClientID, BranchID: f.BranchID}
	for _, it := range f.Items {
		d.Lines = append(d.Lines, sale.Line{
			MedicationID: it.MedicationID,
			Quantity:     it.Quantity,
			Prescription: it.Prescription,
		})
	}
	return d
}

// saleListEntry resolves catalog names for display, falling back to the
// bare ids when a referenced entity is gone.
type saleListEntry struct {
	domain.Sale
	ClientName    string `json:"clienteNome,omitempty"`
	BranchAddress string `json:"filialEndereco,omitempty"`
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.api.ListSales(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	snap, err := h.catalog.Load(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}

	entries := make([]saleListEntry, 0, len(sales))
	for _, s := range sales {
		entry := saleListEntry{Sale: s}
		if c, ok := snap.ClientByID(s.ClientID); ok {
			entry.ClientName = c.Name
		}
		if b, ok := snap.BranchByID(s.BranchID); ok {
			entry.BranchAddress = b.Address
		}
		entries = append(entries, entry)
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	s, err := h.api.GetSale(r.Context(), id)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var form saleForm
	if err := decodeJSON(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.catalog.Load(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}

	wf := sale.NewWorkflow(h.api)
	created, err := wf.SubmitNew(r.Context(), form.draft(), snap)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	var form saleForm
	if err := decodeJSON(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.catalog.Load(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}

	wf := sale.NewWorkflow(h.api)
	updated, err := wf.SubmitEdit(r.Context(), id, form.draft(), snap)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	// The browser's confirm dialog surfaces here as an explicit flag.
	confirmed := r.URL.Query().Get("confirm") == "true"
	wf := sale.NewWorkflow(h.api)
	err = wf.Delete(r.Context(), id, func() bool { return confirmed })
	if errors.Is(err, sale.ErrNotConfirmed) {
		respondError(w, http.StatusBadRequest, "confirmation required")
		return
	}
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Helpers

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// respondFailure maps the tagged error set to HTTP statuses: validation
// failures are the caller's to fix, catalog and connectivity failures are
// gateway problems, and API rejections pass their status through.
func respondFailure(w http.ResponseWriter, err error) {
	var (
		validationErr *sale.ValidationError
		loadErr       *catalog.LoadError
		noRespErr     *medsysapi.NoResponseError
		serverErr     *medsysapi.ServerError
	)
	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusUnprocessableEntity, validationErr.Message)
	case errors.As(err, &loadErr):
		respondError(w, http.StatusServiceUnavailable, loadErr.Error())
	case errors.As(err, &noRespErr):
		respondError(w, http.StatusBadGateway, noRespErr.Error())
	case errors.As(err, &serverErr):
		respondError(w, serverErr.Status, serverErr.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
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
