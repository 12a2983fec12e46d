package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
)

type CalendarHandler struct {
	svc *services.CalendarService
}

func NewCalendarHandler(svc *services.CalendarService) *CalendarHandler {
	return &CalendarHandler{svc: svc}
}

// List returns the events of ?from=&to= when both are given, otherwise those of
// ?year=&month= (the current month by default).
func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	from, ok := queryTime(r, "from")
	if !ok {
		invalidQuery(w, "from")
		return
	}
	to, ok := queryTime(r, "to")
	if !ok {
		invalidQuery(w, "to")
		return
	}
	var (
		items []models.CalendarEvent
		err   error
	)
	if from != nil && to != nil {
		items, err = h.svc.Range(r.Context(), *from, *to, r.URL.Query().Get("matter_id"))
	} else {
		items, err = h.svc.Month(r.Context(), queryInt(r, "year"), time.Month(queryInt(r, "month")))
	}
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// Upcoming lists events in the next ?days= days (7 by default).
func (h *CalendarHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days")
	if days <= 0 {
		days = 7
	}
	limit := queryInt(r, "limit")
	if limit <= 0 {
		limit = 10
	}
	items, err := h.svc.Upcoming(r.Context(), time.Duration(days)*24*time.Hour, limit)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *CalendarHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.EventInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *CalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.EventInput
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

func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}
