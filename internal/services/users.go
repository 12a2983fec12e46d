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
	"gorm.io/gorm"
)

// UserService manages staff accounts and profiles.
type UserService struct {
	Deps
}

func NewUserService(d Deps) *UserService {
	return &UserService{Deps: d.withDefaults()}
}

type UserInput struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	BarNumber string `json:"bar_number"`
}

type ProfileInput struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	BarNumber string `json:"bar_number"`
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return store.New[models.User](s.DB).List(ctx, store.Query{}.OrderBy("name ASC"))
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return store.New[models.User](s.DB).Find(ctx, id)
}

func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Role == "" {
		in.Role = models.RoleAssociate
	}
	v := validation.Violations{}
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	validation.Required("name", in.Name, v)
	validation.OneOf("role", in.Role, models.Roles, v)
	validation.MinLen("password", in.Password, MinPasswordLength, v)
	if err := apperr.Invalid(v); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:        in.Email,
		Name:         in.Name,
		Role:         in.Role,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		BarNumber:    strings.TrimSpace(in.BarNumber),
	}
	err = s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&n).Error; err != nil {
			return audit.Entry{}, apperr.FromDB(err)
		}
		if n > 0 {
			return audit.Entry{}, apperr.Conflict("email")
		}
		if err := store.New[models.User](tx).Create(ctx, u); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityUser, EntityID: u.ID, New: u}, nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateRole changes a user's role. Existing sessions of that user stop being
// accepted until the next login.
func (s *UserService) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	v := validation.Violations{}
	validation.Required("role", role, v)
	validation.OneOf("role", role, models.Roles, v)
	if err := apperr.Invalid(v); err != nil {
		return nil, err
	}
	var u *models.User
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		users := store.New[models.User](tx)
		var err error
		if u, err = users.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		old := u.Role
		if err := users.UpdateFields(ctx, id, map[string]any{"role": role}); err != nil {
			return audit.Entry{}, err
		}
		u.Role = role
		return audit.Entry{
			Action: models.ActionUpdate, EntityType: entityUser, EntityID: id,
			Old: map[string]any{"role": old}, New: map[string]any{"role": role},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 255, v)
	if err := apperr.Invalid(v); err != nil {
		return nil, err
	}
	var u *models.User
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		users := store.New[models.User](tx)
		var err error
		if u, err = users.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		old := map[string]any{"name": u.Name, "phone": u.Phone, "bar_number": u.BarNumber}
		u.Name, u.Phone, u.BarNumber = in.Name, strings.TrimSpace(in.Phone), strings.TrimSpace(in.BarNumber)
		if err := users.Update(ctx, u); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionUpdate, EntityType: entityUser, EntityID: id, Old: old, New: in}, nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a staff account. Nobody can delete their own account.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperr.ErrForbidden
	}
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		users := store.New[models.User](tx)
		u, err := users.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := users.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityUser, EntityID: id, Old: u}, nil
	})
}
