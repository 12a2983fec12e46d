package services

import (
	"context"
	"strings"
	"time"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"gorm.io/gorm"
)

type CalendarService struct {
	Deps
}

func NewCalendarService(d Deps) *CalendarService {
	return &CalendarService{Deps: d.withDefaults()}
}

type EventInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
	EndDate     *time.Time `json:"end_date"`
	Location    string     `json:"location"`
	Type        string     `json:"type"`
	MatterID    *string    `json:"matter_id"`
}

func (in *EventInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.MatterID = optionalID(in.MatterID)
	if in.Type == "" {
		in.Type = models.EventMeeting
	}
}

func (in EventInput) violations(tx *gorm.DB) (validation.Violations, error) {
	v := validation.Violations{}
	validation.Required("title", in.Title, v)
	validation.OneOf("type", in.Type, models.EventTypes, v)
	if in.Date.IsZero() {
		v.Add("date", "required")
	}
	if in.EndDate != nil && in.EndDate.Before(in.Date) {
		v.Add("end_date", "before_start")
	}
	if in.MatterID != nil {
		if err := requireRow[models.Matter](tx, "matter_id", *in.MatterID, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (in EventInput) apply(e *models.CalendarEvent) {
	e.Title = in.Title
	e.Description = in.Description
	e.Date = in.Date
	e.EndDate = in.EndDate
	e.Location = strings.TrimSpace(in.Location)
	e.Type = in.Type
	e.MatterID = in.MatterID
}

// Range lists events starting in [from, to), optionally for one matter.
func (s *CalendarService) Range(ctx context.Context, from, to time.Time, matterID string) ([]models.CalendarEvent, error) {
	q := store.Query{}.
		Where("date >= ? AND date < ?", from, to).
		WhereIf(matterID != "", "matter_id = ?", matterID).
		Preload("Matter").
		OrderBy("date ASC")
	return store.New[models.CalendarEvent](s.DB).List(ctx, q)
}

// Month lists the events of one calendar month. A zero year or month means the
// current one.
func (s *CalendarService) Month(ctx context.Context, year int, month time.Month) ([]models.CalendarEvent, error) {
	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if month < time.January || month > time.December {
		month = now.Month()
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return s.Range(ctx, from, from.AddDate(0, 1, 0), "")
}

// Upcoming lists at most limit events between now and now+within.
func (s *CalendarService) Upcoming(ctx context.Context, within time.Duration, limit int) ([]models.CalendarEvent, error) {
	now := s.now()
	q := store.Query{}.
		Where("date >= ? AND date <= ?", now, now.Add(within)).
		Preload("Matter").
		OrderBy("date ASC").
		Limit(limit)
	return store.New[models.CalendarEvent](s.DB).List(ctx, q)
}

func (s *CalendarService) Get(ctx context.Context, id string) (*models.CalendarEvent, error) {
	return store.New[models.CalendarEvent](s.DB).Find(ctx, id, "Matter")
}

func (s *CalendarService) Create(ctx context.Context, in EventInput) (*models.CalendarEvent, error) {
	in.normalize()
	e := &models.CalendarEvent{}
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		v, err := in.violations(tx)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		in.apply(e)
		if err := store.New[models.CalendarEvent](tx).Create(ctx, e); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityEvent, EntityID: e.ID, New: e}, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *CalendarService) Update(ctx context.Context, id string, in EventInput) (*models.CalendarEvent, error) {
	in.normalize()
	var e *models.CalendarEvent
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		events := store.New[models.CalendarEvent](tx)
		var err error
		if e, err = events.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		v, err := in.violations(tx)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		old := map[string]any{"title": e.Title, "date": e.Date}
		in.apply(e)
		if err := events.Update(ctx, e); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionUpdate, EntityType: entityEvent, EntityID: id, Old: old, New: e}, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *CalendarService) Delete(ctx context.Context, id string) error {
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		events := store.New[models.CalendarEvent](tx)
		e, err := events.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := events.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityEvent, EntityID: id, Old: e}, nil
	})
}
