package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/billing"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"gorm.io/gorm"
)

// PlaceholderDomain is the domain of e-mails generated for converted leads
// that had none.
const PlaceholderDomain = "example.com"

type LeadService struct {
	Deps
}

func NewLeadService(d Deps) *LeadService {
	return &LeadService{Deps: d.withDefaults()}
}

type LeadInput struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Source         string  `json:"source"`
	Status         string  `json:"status"`
	EstimatedValue float64 `json:"estimated_value"`
	PracticeArea   string  `json:"practice_area"`
	Notes          string  `json:"notes"`
}

func (in *LeadInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
}

func (in LeadInput) violations() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Email("email", in.Email, v)
	validation.OneOf("status", in.Status, models.LeadStatuses, v)
	validation.NonNegativeFloat("estimated_value", in.EstimatedValue, v)
	return v
}

func (in LeadInput) apply(l *models.Lead) {
	l.Name = in.Name
	l.Email = in.Email
	l.Phone = strings.TrimSpace(in.Phone)
	l.Source = strings.TrimSpace(in.Source)
	l.EstimatedValue = in.EstimatedValue
	l.PracticeArea = strings.TrimSpace(in.PracticeArea)
	l.Notes = in.Notes
}

type LeadFilter struct {
	Status       string
	PracticeArea string
}

// LeadStats summarizes the pipeline. OpenValue sums the estimated value of leads
// that are neither converted nor lost.
type LeadStats struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	OpenValue      float64          `json:"open_value"`
	ConversionRate float64          `json:"conversion_rate"`
}

type LeadPipeline struct {
	Leads []models.Lead `json:"leads"`
	Stats LeadStats     `json:"stats"`
}

func (s *LeadService) List(ctx context.Context, f LeadFilter) (*LeadPipeline, error) {
	leads := store.New[models.Lead](s.DB)
	items, err := leads.List(ctx, store.Query{}.
		WhereIf(f.Status != "", "status = ?", f.Status).
		WhereIf(f.PracticeArea != "", "practice_area = ?", f.PracticeArea).
		OrderBy("created_at DESC"))
	if err != nil {
		return nil, err
	}
	out := &LeadPipeline{Leads: items}
	if out.Stats.ByStatus, err = leads.CountBy(ctx, "status", store.Query{}); err != nil {
		return nil, err
	}
	for _, n := range out.Stats.ByStatus {
		out.Stats.Total += n
	}
	open := store.Query{}.Where("status IN ?", []string{models.LeadStatusNew, models.LeadStatusContacted})
	if out.Stats.OpenValue, err = leads.Sum(ctx, "estimated_value", open); err != nil {
		return nil, err
	}
	if out.Stats.Total > 0 {
		out.Stats.ConversionRate = float64(out.Stats.ByStatus[models.LeadStatusConverted]) / float64(out.Stats.Total)
	}
	return out, nil
}

func (s *LeadService) Get(ctx context.Context, id string) (*models.Lead, error) {
	return store.New[models.Lead](s.DB).Find(ctx, id)
}

func (s *LeadService) Create(ctx context.Context, in LeadInput) (*models.Lead, error) {
	in.normalize()
	if in.Status == "" {
		in.Status = models.LeadStatusNew
	}
	if err := apperr.Invalid(in.violations()); err != nil {
		return nil, err
	}
	if in.Status == models.LeadStatusConverted {
		return nil, invalidField("status", "use_convert")
	}
	l := &models.Lead{Status: in.Status}
	in.apply(l)
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		if err := store.New[models.Lead](tx).Create(ctx, l); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityLead, EntityID: l.ID, New: l}, nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Update edits a lead. An empty status keeps the stored one; a status change
// must follow the pipeline, and only Convert may set Converted.
func (s *LeadService) Update(ctx context.Context, id string, in LeadInput) (*models.Lead, error) {
	in.normalize()
	if err := apperr.Invalid(in.violations()); err != nil {
		return nil, err
	}
	var l *models.Lead
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		leads := store.New[models.Lead](tx)
		var err error
		if l, err = leads.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		if in.Status == "" {
			in.Status = l.Status
		}
		if err := checkLeadTransition(l, in.Status); err != nil {
			return audit.Entry{}, err
		}
		old := map[string]any{"name": l.Name, "status": l.Status, "estimated_value": l.EstimatedValue}
		in.apply(l)
		l.Status = in.Status
		if err := leads.Update(ctx, l); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionUpdate, EntityType: entityLead, EntityID: id, Old: old, New: l}, nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LeadService) UpdateStatus(ctx context.Context, id, status string) (*models.Lead, error) {
	var l *models.Lead
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		leads := store.New[models.Lead](tx)
		var err error
		if l, err = leads.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		if err := checkLeadTransition(l, status); err != nil {
			return audit.Entry{}, err
		}
		old := l.Status
		if err := leads.UpdateFields(ctx, id, map[string]any{"status": status}); err != nil {
			return audit.Entry{}, err
		}
		l.Status = status
		return audit.Entry{
			Action: models.ActionUpdate, EntityType: entityLead, EntityID: id,
			Old: map[string]any{"status": old}, New: map[string]any{"status": status},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func checkLeadTransition(l *models.Lead, status string) error {
	if status == l.Status {
		return nil
	}
	if status == models.LeadStatusConverted {
		return invalidField("status", "use_convert")
	}
	if !l.CanTransitionTo(status) {
		return invalidField("status", "invalid_transition")
	}
	return nil
}

// Convert turns a lead into an Active Individual client and marks the lead
// Converted, atomically, with a single CONVERT audit row naming the new client.
// A lead without e-mail gets a placeholder derived from its name; two such leads
// with the same name collide on the client e-mail and the second conversion fails
// with a constraint violation.
func (s *LeadService) Convert(ctx context.Context, id string) (*models.Client, error) {
	var c *models.Client
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		leads := store.New[models.Lead](tx)
		l, err := leads.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if l.IsTerminal() {
			return audit.Entry{}, invalidField("status", "invalid_transition")
		}
		email := l.Email
		if email == "" {
			email = PlaceholderEmail(l.Name)
		}
		c = &models.Client{
			Name:   l.Name,
			Email:  email,
			Phone:  l.Phone,
			Type:   models.ClientTypeIndividual,
			Status: models.ClientStatusActive,
			Notes: fmt.Sprintf("Converted from lead. Source: %s, Estimated value: %s",
				l.Source, billing.FormatMoney(l.EstimatedValue, s.currency())),
		}
		if err := store.New[models.Client](tx).Create(ctx, c); err != nil {
			return audit.Entry{}, err
		}
		if err := leads.UpdateFields(ctx, id, map[string]any{"status": models.LeadStatusConverted}); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{
			Action:     models.ActionConvert,
			EntityType: entityLead,
			EntityID:   id,
			Old:        map[string]any{"status": l.Status},
			New:        map[string]any{"status": models.LeadStatusConverted, "client_id": c.ID},
			Details:    "Converted to client " + c.ID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// PlaceholderEmail derives a deterministic address from a name: lowercased,
// whitespace runs replaced by dots, at PlaceholderDomain.
func PlaceholderEmail(name string) string {
	local := strings.Join(strings.Fields(strings.ToLower(name)), ".")
	return local + "@" + PlaceholderDomain
}

func (s *LeadService) Delete(ctx context.Context, id string) error {
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		leads := store.New[models.Lead](tx)
		l, err := leads.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := leads.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityLead, EntityID: id, Old: l}, nil
	})
}
