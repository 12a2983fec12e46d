package db

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/internal/config"
	"github.com/diewo77/go-lawfirm/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnsureAdmin creates the configured administrator when no user with that e-mail
// exists. It is idempotent and reports whether a user was created.
func EnsureAdmin(ctx context.Context, conn *gorm.DB, cfg config.AdminConfig) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" || cfg.Password == "" {
		return false, errors.New("admin e-mail and password are required")
	}
	var existing models.User
	err := conn.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return false, err
	}
	name := cfg.Name
	if name == "" {
		name = "Admin"
	}
	admin := models.User{Email: email, Name: name, Role: models.RoleAdmin, PasswordHash: hash}
	if err := conn.WithContext(ctx).Create(&admin).Error; err != nil {
		return false, err
	}
	zap.L().Info("seeded administrator", zap.String("email", email))
	return true, nil
}
