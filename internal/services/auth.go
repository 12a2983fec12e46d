package services

import (
	"context"
	"net/url"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/mail"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"github.com/diewo77/go-lawfirm/view"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MinPasswordLength applies to staff and portal passwords.
const MinPasswordLength = 8

// AuthService verifies credentials for staff and portal clients and runs the
// password reset flow.
type AuthService struct {
	Deps
}

func NewAuthService(d Deps) *AuthService {
	return &AuthService{Deps: d.withDefaults()}
}

// Login checks staff credentials. Unknown e-mails and wrong passwords both fail
// with apperr.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	u, err := store.New[models.User](s.DB).First(ctx, store.Query{}.Where("email = ?", normalizeEmail(email)))
	if store.IsNotFound(err) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		return nil, apperr.ErrUnauthorized
	}
	now := s.now()
	err = s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		if err := store.New[models.User](tx).UpdateFields(ctx, u.ID, map[string]any{"last_login": now}); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{
			Action: models.ActionLogin, EntityType: entityUser, EntityID: u.ID,
			Actor: &audit.Actor{UserID: u.ID, UserEmail: u.Email},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	u.LastLogin = &now
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, p auth.Principal) error {
	return s.Audit.Run(ctx, s.DB, func(*gorm.DB) (audit.Entry, error) {
		return audit.Entry{
			Action: models.ActionLogout, EntityType: entityUser, EntityID: p.ID,
			Actor: &audit.Actor{UserID: p.ID, UserEmail: p.Email},
		}, nil
	})
}

// ForgotPassword issues a reset token and mails the link when a user has the
// e-mail. It reports success either way, so callers cannot probe for accounts.
// Only store failures are returned.
func (s *AuthService) ForgotPassword(ctx context.Context, email, lang string) error {
	u, err := store.New[models.User](s.DB).First(ctx, store.Query{}.Where("email = ?", normalizeEmail(email)))
	if store.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	token, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	now := s.now()
	row := &models.PasswordResetToken{
		Email:     u.Email,
		Token:     token,
		ExpiresAt: now.Add(models.ResetTokenTTL),
		CreatedAt: now,
	}
	if err := store.New[models.PasswordResetToken](s.DB).Create(ctx, row); err != nil {
		return err
	}
	link := s.Config.App.BaseURL + "/reset-password?token=" + url.QueryEscape(token)
	msg, err := view.RenderEmail("reset_password", lang, view.ResetPasswordEmail{Name: u.Name, Link: link})
	if err != nil {
		return err
	}
	if err := s.Mailer.Send(ctx, mail.Message{To: u.Email, Subject: msg.Subject, Text: msg.Text, HTML: msg.HTML}); err != nil {
		s.Log.Warn("send reset mail", zap.String("user_id", u.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword sets a new password with a reset token. The token must exist, be
// unused and not expired; it is consumed together with the password change.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if err := apperr.Invalid(minLen("password", password, MinPasswordLength)); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := s.now()
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		row, err := store.New[models.PasswordResetToken](tx).First(ctx, store.Query{}.Where("token = ?", token))
		if store.IsNotFound(err) {
			return audit.Entry{}, apperr.ErrInvalidOrExpiredToken
		}
		if err != nil {
			return audit.Entry{}, err
		}
		if !row.Usable(now) {
			return audit.Entry{}, apperr.ErrInvalidOrExpiredToken
		}
		users := store.New[models.User](tx)
		u, err := users.First(ctx, store.Query{}.Where("email = ?", row.Email))
		if store.IsNotFound(err) {
			return audit.Entry{}, apperr.ErrInvalidOrExpiredToken
		}
		if err != nil {
			return audit.Entry{}, err
		}
		// The used flag is flipped conditionally so that two concurrent resets
		// with the same token cannot both succeed.
		res := tx.Model(&models.PasswordResetToken{}).Where("id = ? AND used = ?", row.ID, false).Update("used", true)
		if res.Error != nil {
			return audit.Entry{}, apperr.FromDB(res.Error)
		}
		if res.RowsAffected == 0 {
			return audit.Entry{}, apperr.ErrInvalidOrExpiredToken
		}
		if err := users.UpdateFields(ctx, u.ID, map[string]any{"password_hash": hash}); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{
			Action: models.ActionChangePassword, EntityType: entityUser, EntityID: u.ID,
			Details: "Password reset with token",
			Actor:   &audit.Actor{UserID: u.ID, UserEmail: u.Email},
		}, nil
	})
}

// ChangePassword replaces the password of userID after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	v := minLen("new_password", next, MinPasswordLength)
	validation.Required("current_password", current, v)
	if err := apperr.Invalid(v); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		users := store.New[models.User](tx)
		u, err := users.Find(ctx, userID)
		if err != nil {
			return audit.Entry{}, err
		}
		if !auth.VerifyPassword(u.PasswordHash, current) {
			return audit.Entry{}, invalidField("current_password", "invalid")
		}
		if err := users.UpdateFields(ctx, userID, map[string]any{"password_hash": hash}); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionChangePassword, EntityType: entityUser, EntityID: userID}, nil
	})
}

// ClientLogin checks portal credentials. Clients without portal access or without
// a portal password cannot log in.
func (s *AuthService) ClientLogin(ctx context.Context, email, password string) (*models.Client, error) {
	c, err := store.New[models.Client](s.DB).First(ctx, store.Query{}.Where("email = ?", normalizeEmail(email)))
	if store.IsNotFound(err) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !c.CanUsePortal() || !auth.VerifyPassword(c.PortalPasswordHash, password) {
		return nil, apperr.ErrUnauthorized
	}
	now := s.now()
	err = s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		if err := store.New[models.Client](tx).UpdateFields(ctx, c.ID, map[string]any{"last_login": now}); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{
			Action: models.ActionClientLogin, EntityType: entityClient, EntityID: c.ID,
			Actor: &audit.Actor{ClientID: c.ID, ClientEmail: c.Email},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	c.LastLogin = &now
	return c, nil
}

func (s *AuthService) ClientLogout(ctx context.Context, p auth.Principal) error {
	return s.Audit.Run(ctx, s.DB, func(*gorm.DB) (audit.Entry, error) {
		return audit.Entry{
			Action: models.ActionClientLogout, EntityType: entityClient, EntityID: p.ID,
			Actor: &audit.Actor{ClientID: p.ID, ClientEmail: p.Email},
		}, nil
	})
}

// VerifyUser reports whether a staff session still matches a user with the same
// role. A deleted or re-roled user must log in again.
func (s *AuthService) VerifyUser(ctx context.Context, p auth.Principal) bool {
	u, err := store.New[models.User](s.DB).Find(ctx, p.ID)
	if err != nil {
		return false
	}
	return u.Role == p.Role
}

// VerifyClient reports whether a portal session still belongs to a client that
// may use the portal.
func (s *AuthService) VerifyClient(ctx context.Context, p auth.Principal) bool {
	c, err := store.New[models.Client](s.DB).Find(ctx, p.ID)
	if err != nil {
		return false
	}
	return c.CanUsePortal()
}
