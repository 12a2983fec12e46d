package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"gorm.io/gorm"
)

type TaskService struct {
	Deps
}

func NewTaskService(d Deps) *TaskService {
	return &TaskService{Deps: d.withDefaults()}
}

type TaskInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	ReminderAt   *time.Time `json:"reminder_at"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	MatterID     *string    `json:"matter_id"`
	AssignedToID *string    `json:"assigned_to_id"`
}

func (in *TaskInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.MatterID = optionalID(in.MatterID)
	in.AssignedToID = optionalID(in.AssignedToID)
}

// fillDefaults fills an empty priority or status.
func (in *TaskInput) fillDefaults(priority, status string) {
	if in.Priority == "" {
		in.Priority = priority
	}
	if in.Status == "" {
		in.Status = status
	}
}

func (in TaskInput) violations(tx *gorm.DB) (validation.Violations, error) {
	v := validation.Violations{}
	validation.Required("title", in.Title, v)
	validation.MaxLen("title", in.Title, 255, v)
	validation.OneOf("priority", in.Priority, models.Priorities, v)
	validation.OneOf("status", in.Status, models.TaskStatuses, v)
	if in.MatterID != nil {
		if err := requireRow[models.Matter](tx, "matter_id", *in.MatterID, v); err != nil {
			return nil, err
		}
	}
	if in.AssignedToID != nil {
		if err := requireRow[models.User](tx, "assigned_to_id", *in.AssignedToID, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// apply copies the input onto t; the status goes through SetStatus so that
// CompletedAt is stamped once.
func (in TaskInput) apply(t *models.Task, now time.Time) {
	t.Title = in.Title
	t.Description = in.Description
	t.DueDate = in.DueDate
	t.ReminderAt = in.ReminderAt
	t.Priority = in.Priority
	t.MatterID = in.MatterID
	t.AssignedToID = in.AssignedToID
	t.SetStatus(in.Status, now)
}

type TaskFilter struct {
	Status       string
	Priority     string
	MatterID     string
	AssignedToID string
}

func (f TaskFilter) query() store.Query {
	return store.Query{}.
		WhereIf(f.Status != "", "status = ?", f.Status).
		WhereIf(f.Priority != "", "priority = ?", f.Priority).
		WhereIf(f.MatterID != "", "matter_id = ?", f.MatterID).
		WhereIf(f.AssignedToID != "", "assigned_to_id = ?", f.AssignedToID).
		Preload("Matter", "AssignedTo")
}

func (s *TaskService) List(ctx context.Context, f TaskFilter) ([]models.Task, error) {
	return store.New[models.Task](s.DB).List(ctx, f.query().OrderBy("due_date ASC").OrderBy("created_at DESC"))
}

// BoardColumn holds the tasks of one status.
type BoardColumn struct {
	Status string        `json:"status"`
	Tasks  []models.Task `json:"tasks"`
}

// Board groups tasks into the four status columns, in workflow order.
func (s *TaskService) Board(ctx context.Context, f TaskFilter) ([]BoardColumn, error) {
	f.Status = ""
	tasks, err := store.New[models.Task](s.DB).List(ctx, f.query().OrderBy("due_date ASC").OrderBy("created_at ASC"))
	if err != nil {
		return nil, err
	}
	cols := make([]BoardColumn, len(models.TaskStatuses))
	index := make(map[string]int, len(cols))
	for i, st := range models.TaskStatuses {
		cols[i] = BoardColumn{Status: st, Tasks: []models.Task{}}
		index[st] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	return cols, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	return store.New[models.Task](s.DB).Find(ctx, id, "Matter", "AssignedTo")
}

func (s *TaskService) Create(ctx context.Context, in TaskInput) (*models.Task, error) {
	in.normalize()
	in.fillDefaults(models.PriorityMedium, models.TaskStatusToDo)
	t := &models.Task{}
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		v, err := in.violations(tx)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		in.apply(t, s.now())
		if err := store.New[models.Task](tx).Create(ctx, t); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityTask, EntityID: t.ID, New: t}, nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, id string, in TaskInput) (*models.Task, error) {
	in.normalize()
	var t *models.Task
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		tasks := store.New[models.Task](tx)
		var err error
		if t, err = tasks.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		in.fillDefaults(t.Priority, t.Status)
		v, err := in.violations(tx)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		old := map[string]any{"title": t.Title, "status": t.Status, "priority": t.Priority}
		in.apply(t, s.now())
		if err := tasks.Update(ctx, t); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionUpdate, EntityType: entityTask, EntityID: id, Old: old, New: t}, nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateStatus moves a task to status, e.g. when a card is dropped on another
// board column.
func (s *TaskService) UpdateStatus(ctx context.Context, id, status string) (*models.Task, error) {
	v := validation.Violations{}
	validation.Required("status", status, v)
	validation.OneOf("status", status, models.TaskStatuses, v)
	if err := apperr.Invalid(v); err != nil {
		return nil, err
	}
	var t *models.Task
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		tasks := store.New[models.Task](tx)
		var err error
		if t, err = tasks.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		old := t.Status
		t.SetStatus(status, s.now())
		if err := tasks.Update(ctx, t); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{
			Action: models.ActionUpdate, EntityType: entityTask, EntityID: id,
			Old: map[string]any{"status": old}, New: map[string]any{"status": status},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		tasks := store.New[models.Task](tx)
		t, err := tasks.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := tasks.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityTask, EntityID: id, Old: t}, nil
	})
}

type TaskTemplateInput struct {
	Name        string                `json:"name"`
	Category    string                `json:"category"`
	Description string                `json:"description"`
	Steps       []models.TemplateStep `json:"steps"`
	IsActive    bool                  `json:"is_active"`
}

func (s *TaskService) Templates(ctx context.Context, activeOnly bool) ([]models.TaskTemplate, error) {
	q := store.Query{}.WhereIf(activeOnly, "is_active = ?", true).OrderBy("category ASC").OrderBy("name ASC")
	return store.New[models.TaskTemplate](s.DB).List(ctx, q)
}

func (s *TaskService) CreateTemplate(ctx context.Context, in TaskTemplateInput) (*models.TaskTemplate, error) {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	if len(in.Steps) == 0 {
		v.Add("steps", "required")
	}
	for i, st := range in.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		validation.Required(field+".title", st.Title, v)
		validation.OneOf(field+".priority", st.Priority, models.Priorities, v)
		validation.NonNegativeInt(field+".due_in_days", st.DueInDays, v)
	}
	if err := apperr.Invalid(v); err != nil {
		return nil, err
	}
	def, err := json.Marshal(in.Steps)
	if err != nil {
		return nil, err
	}
	tpl := &models.TaskTemplate{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		Definition:  string(def),
		IsActive:    in.IsActive,
	}
	err = s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		if err := store.New[models.TaskTemplate](tx).Create(ctx, tpl); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityTaskTemplate, EntityID: tpl.ID, New: tpl}, nil
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// DeleteTemplate removes a template. Tasks created from it keep existing.
func (s *TaskService) DeleteTemplate(ctx context.Context, id string) error {
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		templates := store.New[models.TaskTemplate](tx)
		tpl, err := templates.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := templates.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityTaskTemplate, EntityID: id, Old: tpl}, nil
	})
}

// ApplyTemplate creates one task per template step. Due dates are counted from now.
func (s *TaskService) ApplyTemplate(ctx context.Context, templateID string, matterID, assignedToID *string) ([]models.Task, error) {
	matterID, assignedToID = optionalID(matterID), optionalID(assignedToID)
	var created []models.Task
	err := store.Transaction(ctx, s.DB, func(tx *gorm.DB) error {
		tpl, err := store.New[models.TaskTemplate](tx).Find(ctx, templateID)
		if err != nil {
			return err
		}
		if !tpl.IsActive {
			return invalidField("template_id", "inactive")
		}
		steps, err := tpl.Steps()
		if err != nil {
			return invalidField("template_id", "malformed")
		}
		v := validation.Violations{}
		if matterID != nil {
			if err := requireRow[models.Matter](tx, "matter_id", *matterID, v); err != nil {
				return err
			}
		}
		if assignedToID != nil {
			if err := requireRow[models.User](tx, "assigned_to_id", *assignedToID, v); err != nil {
				return err
			}
		}
		if err := apperr.Invalid(v); err != nil {
			return err
		}
		now := s.now()
		tasks := store.New[models.Task](tx)
		for _, st := range steps {
			t := models.Task{
				Title:        st.Title,
				Description:  st.Description,
				Priority:     st.Priority,
				Status:       models.TaskStatusToDo,
				MatterID:     matterID,
				AssignedToID: assignedToID,
				TemplateID:   &tpl.ID,
			}
			if t.Priority == "" {
				t.Priority = models.PriorityMedium
			}
			if st.DueInDays > 0 {
				due := now.AddDate(0, 0, st.DueInDays)
				t.DueDate = &due
			}
			if err := tasks.Create(ctx, &t); err != nil {
				return err
			}
			err := s.Audit.Record(ctx, tx, audit.Entry{
				Action: models.ActionCreate, EntityType: entityTask, EntityID: t.ID, New: t,
				Details: "Created from template " + tpl.Name,
			})
			if err != nil {
				return err
			}
			created = append(created, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
