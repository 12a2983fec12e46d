package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/services"
)

type TaskHandler struct {
	svc *services.TaskService
}

func NewTaskHandler(svc *services.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func taskFilter(r *http.Request) services.TaskFilter {
	q := r.URL.Query()
	return services.TaskFilter{
		Status:       q.Get("status"),
		Priority:     q.Get("priority"),
		MatterID:     q.Get("matter_id"),
		AssignedToID: q.Get("assigned_to_id"),
	}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), taskFilter(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// Board groups tasks into one column per status.
func (h *TaskHandler) Board(w http.ResponseWriter, r *http.Request) {
	cols, err := h.svc.Board(r.Context(), taskFilter(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cols)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.TaskInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.TaskInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

type statusInput struct {
	Status string `json:"status"`
}

func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.svc.UpdateStatus(r.Context(), r.PathValue("id"), in.Status)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}

func (h *TaskHandler) Templates(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Templates(r.Context(), queryBool(r, "active"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *TaskHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in services.TaskTemplateInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.svc.CreateTemplate(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}

// ApplyTemplate creates one task per template step.
func (h *TaskHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		MatterID     *string `json:"matter_id"`
		AssignedToID *string `json:"assigned_to_id"`
	}
	if !decode(w, r, &in) {
		return
	}
	tasks, err := h.svc.ApplyTemplate(r.Context(), r.PathValue("id"), in.MatterID, in.AssignedToID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tasks)
}
