package services

import (
	"context"

	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
)

// AuditPageSize is the number of audit rows per page.
const AuditPageSize = 50

// AuditLogService reads the audit trail. Rows are never modified here.
type AuditLogService struct {
	Deps
}

func NewAuditLogService(d Deps) *AuditLogService {
	return &AuditLogService{Deps: d.withDefaults()}
}

type AuditFilter struct {
	Action     string
	EntityType string
	EntityID   string
	UserID     string
	Page       int
}

type AuditPage struct {
	Logs  []models.AuditLog `json:"logs"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Pages int64             `json:"pages"`
}

func (s *AuditLogService) List(ctx context.Context, f AuditFilter) (*AuditPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	q := store.Query{}.
		WhereIf(f.Action != "", "action = ?", f.Action).
		WhereIf(f.EntityType != "", "entity_type = ?", f.EntityType).
		WhereIf(f.EntityID != "", "entity_id = ?", f.EntityID).
		WhereIf(f.UserID != "", "user_id = ?", f.UserID).
		OrderBy("created_at DESC").
		Paginate(f.Page, AuditPageSize)
	logs, total, err := store.New[models.AuditLog](s.DB).Page(ctx, q)
	if err != nil {
		return nil, err
	}
	return &AuditPage{
		Logs:  logs,
		Total: total,
		Page:  f.Page,
		Pages: (total + AuditPageSize - 1) / AuditPageSize,
	}, nil
}
