package services

import (
	"context"
	"strings"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ClientService struct {
	Deps
}

func NewClientService(d Deps) *ClientService {
	return &ClientService{Deps: d.withDefaults()}
}

// ClientInput is the editable part of a client. An empty PortalPassword leaves the
// stored hash unchanged.
type ClientInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Company        string `json:"company"`
	Address        string `json:"address"`
	TaxID          string `json:"tax_id"`
	Type           string `json:"type"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
	PortalAccess   bool   `json:"portal_access"`
	PortalPassword string `json:"portal_password"`
}

func (in *ClientInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Type == "" {
		in.Type = models.ClientTypeIndividual
	}
	if in.Status == "" {
		in.Status = models.ClientStatusActive
	}
}

func (in ClientInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 255, v)
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	validation.OneOf("type", in.Type, models.ClientTypes, v)
	validation.OneOf("status", in.Status, models.ClientStatuses, v)
	if in.PortalPassword != "" {
		validation.MinLen("portal_password", in.PortalPassword, 8, v)
	}
	return apperr.Invalid(v)
}

func (in ClientInput) apply(c *models.Client) {
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = strings.TrimSpace(in.Phone)
	c.Company = strings.TrimSpace(in.Company)
	c.Address = strings.TrimSpace(in.Address)
	c.TaxID = strings.TrimSpace(in.TaxID)
	c.Type = in.Type
	c.Status = in.Status
	c.Notes = in.Notes
	c.PortalAccess = in.PortalAccess
}

type ClientFilter struct {
	Status string
	Type   string
	Search string
	Page   int
	Limit  int
}

func (s *ClientService) List(ctx context.Context, f ClientFilter) ([]models.Client, int64, error) {
	q := store.Query{}.
		WhereIf(f.Status != "", "status = ?", f.Status).
		WhereIf(f.Type != "", "type = ?", f.Type).
		OrderBy("name ASC").
		Paginate(f.Page, f.Limit)
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?)", like, like, like)
	}
	return store.New[models.Client](s.DB).Page(ctx, q)
}

// ClientDetails is a client with its matters, invoices and portal messages.
type ClientDetails struct {
	Client   models.Client          `json:"client"`
	Matters  []models.Matter        `json:"matters"`
	Invoices []models.Invoice       `json:"invoices"`
	Messages []models.ClientMessage `json:"messages"`
}

func (s *ClientService) Get(ctx context.Context, id string) (*ClientDetails, error) {
	c, err := store.New[models.Client](s.DB).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &ClientDetails{Client: *c}
	if out.Matters, err = store.New[models.Matter](s.DB).List(ctx, store.Query{}.
		Where("client_id = ?", id).OrderBy("open_date DESC")); err != nil {
		return nil, err
	}
	if out.Invoices, err = store.New[models.Invoice](s.DB).List(ctx, store.Query{}.
		Where("client_id = ?", id).OrderBy("issue_date DESC")); err != nil {
		return nil, err
	}
	if out.Messages, err = store.New[models.ClientMessage](s.DB).List(ctx, store.Query{}.
		Where("client_id = ?", id).OrderBy("created_at DESC")); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ClientService) Create(ctx context.Context, in ClientInput) (*models.Client, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &models.Client{}
	in.apply(c)
	if in.PortalPassword != "" {
		hash, err := auth.HashPassword(in.PortalPassword)
		if err != nil {
			return nil, err
		}
		c.PortalPasswordHash = hash
	}
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		if err := ensureClientEmailFree(tx, c.Email, ""); err != nil {
			return audit.Entry{}, err
		}
		if err := store.New[models.Client](tx).Create(ctx, c); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityClient, EntityID: c.ID, New: c}, nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientService) Update(ctx context.Context, id string, in ClientInput) (*models.Client, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	var hash string
	if in.PortalPassword != "" {
		var err error
		if hash, err = auth.HashPassword(in.PortalPassword); err != nil {
			return nil, err
		}
	}
	var c *models.Client
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		clients := store.New[models.Client](tx)
		var err error
		if c, err = clients.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		if err := ensureClientEmailFree(tx, in.Email, id); err != nil {
			return audit.Entry{}, err
		}
		old := map[string]any{"name": c.Name, "email": c.Email, "status": c.Status}
		in.apply(c)
		if hash != "" {
			c.PortalPasswordHash = hash
		}
		if err := clients.Update(ctx, c); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionUpdate, EntityType: entityClient, EntityID: id, Old: old, New: c}, nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetPortalAccess enables or disables portal login. Enabling requires a password,
// either given here or already stored.
func (s *ClientService) SetPortalAccess(ctx context.Context, id string, enabled bool, password string) error {
	var hash string
	if password != "" {
		if err := apperr.Invalid(minLen("portal_password", password, 8)); err != nil {
			return err
		}
		var err error
		if hash, err = auth.HashPassword(password); err != nil {
			return err
		}
	}
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		clients := store.New[models.Client](tx)
		c, err := clients.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if hash != "" {
			c.PortalPasswordHash = hash
		}
		if enabled && c.PortalPasswordHash == "" {
			return audit.Entry{}, invalidField("portal_password", "required")
		}
		old := map[string]any{"portal_access": c.PortalAccess}
		c.PortalAccess = enabled
		if err := clients.Update(ctx, c); err != nil {
			return audit.Entry{}, err
		}
		details := "Portal access disabled"
		if enabled {
			details = "Portal access enabled"
		}
		return audit.Entry{
			Action: models.ActionUpdate, EntityType: entityClient, EntityID: id,
			Old: old, New: map[string]any{"portal_access": enabled}, Details: details,
		}, nil
	})
}

// Delete removes the client. Matters, invoices, messages and notifications go with
// it; the stored files of the matters' documents are removed after commit.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	var keys []string
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		clients := store.New[models.Client](tx)
		c, err := clients.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		err = tx.Model(&models.Document{}).
			Joins("JOIN matters ON matters.id = documents.matter_id").
			Where("matters.client_id = ?", id).
			Pluck("documents.file_path", &keys).Error
		if err != nil {
			return audit.Entry{}, apperr.FromDB(err)
		}
		if err := clients.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityClient, EntityID: id, Old: c}, nil
	})
	if err != nil {
		return err
	}
	s.removeFiles(ctx, keys)
	return nil
}

// removeFiles deletes stored objects whose rows are gone. Failures only leave
// orphaned files behind, so they are logged.
func (d Deps) removeFiles(ctx context.Context, keys []string) {
	if d.Storage == nil {
		return
	}
	for _, key := range keys {
		if err := d.Storage.Delete(ctx, key); err != nil {
			d.Log.Warn("remove stored file", zap.String("key", key), zap.Error(err))
		}
	}
}

func ensureClientEmailFree(tx *gorm.DB, email, exceptID string) error {
	q := tx.Model(&models.Client{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return apperr.FromDB(err)
	}
	if n > 0 {
		return apperr.Conflict("email")
	}
	return nil
}

func minLen(field, value string, n int) validation.Violations {
	v := validation.Violations{}
	validation.MinLen(field, value, n, v)
	return v
}
