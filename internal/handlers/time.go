package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
)

// TimeHandler serves time entries and expenses.
type TimeHandler struct {
	svc *services.TimeService
}

func NewTimeHandler(svc *services.TimeService) *TimeHandler {
	return &TimeHandler{svc: svc}
}

func (h *TimeHandler) List(w http.ResponseWriter, r *http.Request) {
	f := services.TimeFilter{MatterID: r.URL.Query().Get("matter_id")}
	var ok bool
	if f.From, ok = queryTime(r, "from"); !ok {
		invalidQuery(w, "from")
		return
	}
	if f.To, ok = queryTime(r, "to"); !ok {
		invalidQuery(w, "to")
		return
	}
	if raw := r.URL.Query().Get("billed"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			invalidQuery(w, "billed")
			return
		}
		f.Billed = &b
	}
	sheet, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sheet)
}

// Unbilled lists billable work not invoiced yet, optionally for one client.
func (h *TimeHandler) Unbilled(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Unbilled(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *TimeHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *TimeHandler) Log(w http.ResponseWriter, r *http.Request) {
	var in services.TimeEntryInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.svc.Log(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *TimeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.TimeEntryInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *TimeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}

func (h *TimeHandler) MarkAsBilled(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDs []string `json:"ids"`
	}
	if !decode(w, r, &in) {
		return
	}
	n, err := h.svc.MarkAsBilled(r.Context(), in.IDs)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"updated": n})
}

type expenseList struct {
	Items []models.Expense `json:"items"`
	Total float64          `json:"total"`
}

func (h *TimeHandler) Expenses(w http.ResponseWriter, r *http.Request) {
	items, total, err := h.svc.Expenses(r.Context(), r.URL.Query().Get("matter_id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expenseList{Items: items, Total: total})
}

func (h *TimeHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var in services.ExpenseInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.svc.CreateExpense(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *TimeHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in services.ExpenseInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.svc.UpdateExpense(r.Context(), r.PathValue("id"), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *TimeHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}
