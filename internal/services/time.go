package services

import (
	"context"
	"fmt"
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

// TimeService records billable time and expenses.
type TimeService struct {
	Deps
}

func NewTimeService(d Deps) *TimeService {
	return &TimeService{Deps: d.withDefaults()}
}

// TimeEntryInput records work on a matter. A zero Rate takes the matter's billable rate.
type TimeEntryInput struct {
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	Rate        float64   `json:"rate"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	MatterID    *string   `json:"matter_id"`
}

func (in *TimeEntryInput) normalize(now time.Time) {
	in.Description = strings.TrimSpace(in.Description)
	in.MatterID = optionalID(in.MatterID)
	if in.Date.IsZero() {
		in.Date = now
	}
}

func (in TimeEntryInput) violations() validation.Violations {
	v := validation.Violations{}
	validation.Required("description", in.Description, v)
	validation.MaxLen("description", in.Description, 500, v)
	validation.NonNegativeInt("duration", in.Duration, v)
	validation.NonNegativeFloat("rate", in.Rate, v)
	return v
}

// resolveRate fills in the matter's billable rate when no rate was given, and
// checks the matter exists.
func (in *TimeEntryInput) resolveRate(ctx context.Context, tx *gorm.DB, v validation.Violations) error {
	if in.MatterID == nil {
		return nil
	}
	m, err := store.New[models.Matter](tx).Find(ctx, *in.MatterID)
	if store.IsNotFound(err) {
		v.Add("matter_id", "not_found")
		return nil
	}
	if err != nil {
		return err
	}
	if in.Rate == 0 {
		in.Rate = m.BillableRate
	}
	return nil
}

func (in TimeEntryInput) apply(e *models.TimeEntry) {
	e.Description = in.Description
	e.Duration = in.Duration
	e.Rate = in.Rate
	e.Date = in.Date
	e.Type = strings.TrimSpace(in.Type)
	e.MatterID = in.MatterID
}

type TimeFilter struct {
	MatterID string
	From     *time.Time
	To       *time.Time
	Billed   *bool
}

func (f TimeFilter) query() store.Query {
	q := store.Query{}.
		WhereIf(f.MatterID != "", "matter_id = ?", f.MatterID).
		WhereIf(f.From != nil, "date >= ?", f.From).
		WhereIf(f.To != nil, "date <= ?", f.To)
	if f.Billed != nil {
		q = q.Where("is_billed = ?", *f.Billed)
	}
	return q
}

// TimeSheet is a filtered list of entries with their derived totals.
type TimeSheet struct {
	Entries []models.TimeEntry `json:"entries"`
	Totals  billing.TimeTotals `json:"totals"`
}

func (s *TimeService) List(ctx context.Context, f TimeFilter) (*TimeSheet, error) {
	entries, err := store.New[models.TimeEntry](s.DB).List(ctx, f.query().Preload("Matter").OrderBy("date DESC"))
	if err != nil {
		return nil, err
	}
	return &TimeSheet{Entries: entries, Totals: billing.SumTime(entries)}, nil
}

// Unbilled lists the entries not yet billed, optionally for one client's matters.
func (s *TimeService) Unbilled(ctx context.Context, clientID string) ([]models.TimeEntry, error) {
	q := store.Query{}.Where("is_billed = ?", false).Preload("Matter").OrderBy("date ASC")
	if clientID != "" {
		q = q.Where("matter_id IN (?)", s.DB.Model(&models.Matter{}).Select("id").Where("client_id = ?", clientID))
	}
	return store.New[models.TimeEntry](s.DB).List(ctx, q)
}

func (s *TimeService) Get(ctx context.Context, id string) (*models.TimeEntry, error) {
	return store.New[models.TimeEntry](s.DB).Find(ctx, id, "Matter")
}

func (s *TimeService) Log(ctx context.Context, in TimeEntryInput) (*models.TimeEntry, error) {
	in.normalize(s.now())
	e := &models.TimeEntry{}
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		v := in.violations()
		if err := in.resolveRate(ctx, tx, v); err != nil {
			return audit.Entry{}, err
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		in.apply(e)
		if err := store.New[models.TimeEntry](tx).Create(ctx, e); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityTimeEntry, EntityID: e.ID, New: e}, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Update edits an unbilled entry. Billed entries are frozen.
func (s *TimeService) Update(ctx context.Context, id string, in TimeEntryInput) (*models.TimeEntry, error) {
	var e *models.TimeEntry
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		entries := store.New[models.TimeEntry](tx)
		var err error
		if e, err = entries.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		if e.IsBilled {
			return audit.Entry{}, invalidField("is_billed", "already_billed")
		}
		in.normalize(e.Date)
		v := in.violations()
		if err := in.resolveRate(ctx, tx, v); err != nil {
			return audit.Entry{}, err
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		old := map[string]any{"duration": e.Duration, "rate": e.Rate}
		in.apply(e)
		if err := entries.Update(ctx, e); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionUpdate, EntityType: entityTimeEntry, EntityID: id, Old: old, New: e}, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *TimeService) Delete(ctx context.Context, id string) error {
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		entries := store.New[models.TimeEntry](tx)
		e, err := entries.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := entries.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityTimeEntry, EntityID: id, Old: e}, nil
	})
}

// MarkAsBilled flags the given entries as billed and returns how many changed.
// Entries already billed are left alone. One audit row covers the batch.
func (s *TimeService) MarkAsBilled(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, invalidField("ids", "required")
	}
	var n int64
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		res := tx.Model(&models.TimeEntry{}).
			Where("id IN ? AND is_billed = ?", ids, false).
			Updates(map[string]any{"is_billed": true, "updated_at": s.now()})
		if res.Error != nil {
			return audit.Entry{}, apperr.FromDB(res.Error)
		}
		n = res.RowsAffected
		return audit.Entry{
			Action:     models.ActionUpdate,
			EntityType: entityTimeEntry,
			New:        map[string]any{"ids": ids},
			Details:    fmt.Sprintf("Marked %d entries as billed", n),
		}, nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

type ExpenseInput struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	MatterID    *string   `json:"matter_id"`
}

func (in *ExpenseInput) normalize(now time.Time) {
	in.Description = strings.TrimSpace(in.Description)
	in.MatterID = optionalID(in.MatterID)
	if in.Date.IsZero() {
		in.Date = now
	}
}

func (in ExpenseInput) violations(tx *gorm.DB) (validation.Violations, error) {
	v := validation.Violations{}
	validation.Required("description", in.Description, v)
	validation.NonNegativeFloat("amount", in.Amount, v)
	if in.MatterID != nil {
		if err := requireRow[models.Matter](tx, "matter_id", *in.MatterID, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (in ExpenseInput) apply(e *models.Expense) {
	e.Description = in.Description
	e.Amount = in.Amount
	e.Category = strings.TrimSpace(in.Category)
	e.Type = strings.TrimSpace(in.Type)
	e.Date = in.Date
	e.MatterID = in.MatterID
}

// Expenses lists expenses, newest first, with their total.
func (s *TimeService) Expenses(ctx context.Context, matterID string) ([]models.Expense, float64, error) {
	q := store.Query{}.WhereIf(matterID != "", "matter_id = ?", matterID).Preload("Matter").OrderBy("date DESC")
	expenses, err := store.New[models.Expense](s.DB).List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return expenses, billing.SumExpenses(expenses), nil
}

func (s *TimeService) CreateExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	in.normalize(s.now())
	e := &models.Expense{}
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		v, err := in.violations(tx)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		in.apply(e)
		if err := store.New[models.Expense](tx).Create(ctx, e); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityExpense, EntityID: e.ID, New: e}, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *TimeService) UpdateExpense(ctx context.Context, id string, in ExpenseInput) (*models.Expense, error) {
	var e *models.Expense
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		expenses := store.New[models.Expense](tx)
		var err error
		if e, err = expenses.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		in.normalize(e.Date)
		v, err := in.violations(tx)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		old := map[string]any{"amount": e.Amount, "description": e.Description}
		in.apply(e)
		if err := expenses.Update(ctx, e); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionUpdate, EntityType: entityExpense, EntityID: id, Old: old, New: e}, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *TimeService) DeleteExpense(ctx context.Context, id string) error {
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		expenses := store.New[models.Expense](tx)
		e, err := expenses.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := expenses.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityExpense, EntityID: id, Old: e}, nil
	})
}
