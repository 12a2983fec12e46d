package services

import (
	"context"
	"strings"
	"time"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/billing"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"gorm.io/gorm"
)

type MatterService struct {
	Deps
}

func NewMatterService(d Deps) *MatterService {
	return &MatterService{Deps: d.withDefaults()}
}

type MatterInput struct {
	ClientID            string    `json:"client_id"`
	CaseNumber          string    `json:"case_number"`
	Name                string    `json:"name"`
	PracticeArea        string    `json:"practice_area"`
	Status              string    `json:"status"`
	FeeStructure        string    `json:"fee_structure"`
	ResponsibleAttorney string    `json:"responsible_attorney"`
	BillableRate        float64   `json:"billable_rate"`
	TrustBalance        float64   `json:"trust_balance"`
	OpenDate            time.Time `json:"open_date"`
	Description         string    `json:"description"`
}

func (in *MatterInput) normalize(now time.Time) {
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.CaseNumber = strings.TrimSpace(in.CaseNumber)
	in.Name = strings.TrimSpace(in.Name)
	if in.Status == "" {
		in.Status = models.MatterStatusOpen
	}
	if in.FeeStructure == "" {
		in.FeeStructure = models.FeeHourly
	}
	if in.OpenDate.IsZero() {
		in.OpenDate = now
	}
}

func (in MatterInput) violations() validation.Violations {
	v := validation.Violations{}
	validation.Required("client_id", in.ClientID, v)
	validation.Required("case_number", in.CaseNumber, v)
	validation.MaxLen("case_number", in.CaseNumber, 50, v)
	validation.Required("name", in.Name, v)
	validation.OneOf("status", in.Status, models.MatterStatuses, v)
	validation.OneOf("fee_structure", in.FeeStructure, models.FeeStructures, v)
	validation.NonNegativeFloat("billable_rate", in.BillableRate, v)
	validation.NonNegativeFloat("trust_balance", in.TrustBalance, v)
	return v
}

func (in MatterInput) apply(m *models.Matter) {
	m.ClientID = in.ClientID
	m.CaseNumber = in.CaseNumber
	m.Name = in.Name
	m.PracticeArea = strings.TrimSpace(in.PracticeArea)
	m.Status = in.Status
	m.FeeStructure = in.FeeStructure
	m.ResponsibleAttorney = strings.TrimSpace(in.ResponsibleAttorney)
	m.BillableRate = in.BillableRate
	m.TrustBalance = in.TrustBalance
	m.OpenDate = in.OpenDate
	m.Description = in.Description
}

type MatterFilter struct {
	ClientID     string
	Status       string
	PracticeArea string
	Search       string
	Page         int
	Limit        int
}

func (s *MatterService) List(ctx context.Context, f MatterFilter) ([]models.Matter, int64, error) {
	q := store.Query{}.
		WhereIf(f.ClientID != "", "client_id = ?", f.ClientID).
		WhereIf(f.Status != "", "status = ?", f.Status).
		WhereIf(f.PracticeArea != "", "practice_area = ?", f.PracticeArea).
		Preload("Client").
		OrderBy("open_date DESC").
		Paginate(f.Page, f.Limit)
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(case_number) LIKE ?)", like, like)
	}
	return store.New[models.Matter](s.DB).Page(ctx, q)
}

// MatterDetails is a matter with everything attached to it, loaded explicitly.
type MatterDetails struct {
	Matter      models.Matter          `json:"matter"`
	Tasks       []models.Task          `json:"tasks"`
	TimeEntries []models.TimeEntry     `json:"time_entries"`
	Expenses    []models.Expense       `json:"expenses"`
	Documents   []models.Document      `json:"documents"`
	Events      []models.CalendarEvent `json:"events"`
	Time        billing.TimeTotals     `json:"time_totals"`
	ExpenseSum  float64                `json:"expense_total"`
}

func (s *MatterService) Get(ctx context.Context, id string) (*MatterDetails, error) {
	m, err := store.New[models.Matter](s.DB).Find(ctx, id, "Client")
	if err != nil {
		return nil, err
	}
	byMatter := store.Query{}.Where("matter_id = ?", id)
	out := &MatterDetails{Matter: *m}
	if out.Tasks, err = store.New[models.Task](s.DB).List(ctx, byMatter.OrderBy("created_at DESC")); err != nil {
		return nil, err
	}
	if out.TimeEntries, err = store.New[models.TimeEntry](s.DB).List(ctx, byMatter.OrderBy("date DESC")); err != nil {
		return nil, err
	}
	if out.Expenses, err = store.New[models.Expense](s.DB).List(ctx, byMatter.OrderBy("date DESC")); err != nil {
		return nil, err
	}
	if out.Documents, err = store.New[models.Document](s.DB).List(ctx, byMatter.OrderBy("created_at DESC")); err != nil {
		return nil, err
	}
	if out.Events, err = store.New[models.CalendarEvent](s.DB).List(ctx, byMatter.OrderBy("date ASC")); err != nil {
		return nil, err
	}
	out.Time = billing.SumTime(out.TimeEntries)
	out.ExpenseSum = billing.SumExpenses(out.Expenses)
	return out, nil
}

func (s *MatterService) Create(ctx context.Context, in MatterInput) (*models.Matter, error) {
	in.normalize(s.now())
	m := &models.Matter{}
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		v := in.violations()
		if in.ClientID != "" {
			if err := requireRow[models.Client](tx, "client_id", in.ClientID, v); err != nil {
				return audit.Entry{}, err
			}
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		in.apply(m)
		if err := store.New[models.Matter](tx).Create(ctx, m); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityMatter, EntityID: m.ID, New: m}, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MatterService) Update(ctx context.Context, id string, in MatterInput) (*models.Matter, error) {
	var m *models.Matter
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		matters := store.New[models.Matter](tx)
		var err error
		if m, err = matters.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		in.normalize(m.OpenDate)
		v := in.violations()
		if in.ClientID != "" && in.ClientID != m.ClientID {
			if err := requireRow[models.Client](tx, "client_id", in.ClientID, v); err != nil {
				return audit.Entry{}, err
			}
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		old := map[string]any{"name": m.Name, "status": m.Status, "billable_rate": m.BillableRate}
		in.apply(m)
		if err := matters.Update(ctx, m); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionUpdate, EntityType: entityMatter, EntityID: id, Old: old, New: m}, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes the matter and its documents. Tasks, time entries, expenses and
// events stay, detached from the matter.
func (s *MatterService) Delete(ctx context.Context, id string) error {
	var keys []string
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		matters := store.New[models.Matter](tx)
		m, err := matters.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := tx.Model(&models.Document{}).Where("matter_id = ?", id).Pluck("file_path", &keys).Error; err != nil {
			return audit.Entry{}, apperr.FromDB(err)
		}
		if err := matters.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityMatter, EntityID: id, Old: m}, nil
	})
	if err != nil {
		return err
	}
	s.removeFiles(ctx, keys)
	return nil
}
