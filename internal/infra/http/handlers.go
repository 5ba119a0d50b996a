package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jbetancur12/matplan/internal/domain/allocation"
	"github.com/jbetancur12/matplan/internal/domain/costing"
	"github.com/jbetancur12/matplan/internal/domain/kardex"
	"github.com/jbetancur12/matplan/internal/domain/lots"
	"github.com/jbetancur12/matplan/internal/domain/materials"
	"github.com/jbetancur12/matplan/internal/domain/orders"
	"github.com/jbetancur12/matplan/internal/domain/planning"
	"github.com/jbetancur12/matplan/internal/domain/stock"
	"github.com/jbetancur12/matplan/internal/domain/warehouses"
	"github.com/jbetancur12/matplan/internal/report"
)

// Handlers exposes the engine over a thin JSON surface. Authn/authz and
// richer request validation belong to the surrounding application, not here.
type Handlers struct {
	ledger     *stock.Ledger
	planner    *planning.Planner
	recorder   *allocation.Recorder
	orders     orders.Repo
	materials  materials.Repo
	warehouses warehouses.Repo
	log        *slog.Logger
}

func NewHandlers(ledger *stock.Ledger, planner *planning.Planner,
	recorder *allocation.Recorder, orderRepo orders.Repo,
	materialRepo materials.Repo, warehouseRepo warehouses.Repo,
	log *slog.Logger) *Handlers {
	return &Handlers{
		ledger:     ledger,
		planner:    planner,
		recorder:   recorder,
		orders:     orderRepo,
		materials:  materialRepo,
		warehouses: warehouseRepo,
		log:        log,
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /receipts", h.receiveLot)
	mux.HandleFunc("POST /lots/{id}/cost", h.correctCost)
	mux.HandleFunc("POST /lots/{id}/adjust", h.adjust)
	mux.HandleFunc("GET /lots/{id}/corrections", h.listCorrections)
	mux.HandleFunc("GET /orders/{id}/requirements", h.requirements)
	mux.HandleFunc("GET /orders/{id}/requirements/export", h.requirementsExport)
	mux.HandleFunc("POST /orders/{id}/allocations", h.commitAllocations)
	mux.HandleFunc("POST /orders/{id}/complete", h.completeOrder)
	mux.HandleFunc("GET /kardex", h.listKardex)
	mux.HandleFunc("GET /kardex/export", h.exportKardex)
	mux.HandleFunc("GET /warehouses", h.listWarehouses)
}

func (h *Handlers) receiveLot(w http.ResponseWriter, r *http.Request) {
	var req stock.ReceiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lot, err := h.ledger.ReceiveLot(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lot)
}

func (h *Handlers) correctCost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req stock.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.LotID = id
	lot, err := h.ledger.CorrectCost(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

func (h *Handlers) adjust(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req stock.AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.LotID = id
	lot, err := h.ledger.Adjust(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

func (h *Handlers) listCorrections(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cs, err := h.ledger.Corrections(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handlers) requirements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reqs, err := h.planner.ComputeRequirements(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *Handlers) requirementsExport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	reqs, err := h.planner.ComputeRequirements(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	f, err := report.RequirementsWorkbook(order.Code, reqs)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeWorkbook(w, fmt.Sprintf("requirements-%s.xlsx", order.Code), f)
}

func (h *Handlers) commitAllocations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var chosen []allocation.ChosenLot
	if err := json.NewDecoder(r.Body).Decode(&chosen); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.recorder.Commit(r.Context(), id, chosen); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) completeOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.recorder.ConsumeForOrder(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listKardex(w http.ResponseWriter, r *http.Request) {
	f, err := kardexFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := h.ledger.Entries(r.Context(), f)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handlers) exportKardex(w http.ResponseWriter, r *http.Request) {
	f, err := kardexFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := h.ledger.Entries(r.Context(), f)
	if err != nil {
		h.fail(w, err)
		return
	}
	mats, err := h.materials.List(r.Context(), false)
	if err != nil {
		h.fail(w, err)
		return
	}
	names := make(map[int64]string, len(mats))
	for _, m := range mats {
		names[m.ID] = m.Name
	}
	wb, err := report.KardexWorkbook(entries, names)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeWorkbook(w, "kardex.xlsx", wb)
}

func (h *Handlers) listWarehouses(w http.ResponseWriter, r *http.Request) {
	ws, err := h.warehouses.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

/* helpers */

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func kardexFilter(r *http.Request) (kardex.Filter, error) {
	var f kardex.Filter
	q := r.URL.Query()

	optID := func(name string) (*int64, error) {
		s := q.Get(name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad %s: %w", name, err)
		}
		return &v, nil
	}
	var err error
	if f.MaterialID, err = optID("material"); err != nil {
		return f, err
	}
	if f.WarehouseID, err = optID("warehouse"); err != nil {
		return f, err
	}
	if f.LotID, err = optID("lot"); err != nil {
		return f, err
	}
	f.ReferenceType = q.Get("reference_type")
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		if s := q.Get(name); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return f, fmt.Errorf("bad %s: %w", name, err)
			}
			*dst = &t
		}
	}
	if s := q.Get("limit"); s != "" {
		if f.Limit, err = strconv.Atoi(s); err != nil {
			return f, fmt.Errorf("bad limit: %w", err)
		}
	}
	if s := q.Get("offset"); s != "" {
		if f.Offset, err = strconv.Atoi(s); err != nil {
			return f, fmt.Errorf("bad offset: %w", err)
		}
	}
	return f, nil
}

// fail maps engine errors onto HTTP statuses.
func (h *Handlers) fail(w http.ResponseWriter, err error) {
	var (
		insufficient *lots.InsufficientQuantityError
		invalidCost  *costing.InvalidCostError
		reconcile    *stock.ReconciliationError
	)
	switch {
	case errors.Is(err, lots.ErrNotFound),
		errors.Is(err, materials.ErrNotFound),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, warehouses.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &insufficient), errors.As(err, &invalidCost):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, lots.ErrConcurrentModification),
		errors.Is(err, orders.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &reconcile):
		h.log.Error("reconciliation failure surfaced", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	default:
		h.log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeWorkbook(w http.ResponseWriter, filename string, f *excelize.File) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_ = f.Write(w)
}
