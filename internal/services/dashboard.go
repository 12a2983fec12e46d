package services

import (
	"context"
	"time"

	"github.com/diewo77/go-lawfirm/internal/billing"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
)

const (
	upcomingWindow = 7 * 24 * time.Hour
	dashboardItems = 5
)

type DashboardService struct {
	Deps
}

func NewDashboardService(d Deps) *DashboardService {
	return &DashboardService{Deps: d.withDefaults()}
}

// Dashboard is recomputed on every request; nothing is cached.
type Dashboard struct {
	TotalClients    int64                  `json:"total_clients"`
	ActiveMatters   int64                  `json:"active_matters"`
	PendingTasks    int64                  `json:"pending_tasks"`
	TotalBilled     float64                `json:"total_billed"`
	TotalUnbilled   float64                `json:"total_unbilled"`
	OverdueInvoices float64                `json:"overdue_invoices"`
	UpcomingEvents  []models.CalendarEvent `json:"upcoming_events"`
	RecentTasks     []models.Task          `json:"recent_tasks"`
	RecentMatters   []models.Matter        `json:"recent_matters"`
	MattersByStatus map[string]int64       `json:"matters_by_status"`
}

func (s *DashboardService) Get(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	matters := store.New[models.Matter](s.DB)
	if d.TotalClients, err = store.New[models.Client](s.DB).Count(ctx, store.Query{}); err != nil {
		return nil, err
	}
	if d.ActiveMatters, err = matters.Count(ctx, store.Query{}.Where("status <> ?", models.MatterStatusClosed)); err != nil {
		return nil, err
	}
	if d.PendingTasks, err = store.New[models.Task](s.DB).Count(ctx, store.Query{}.Where("status <> ?", models.TaskStatusDone)); err != nil {
		return nil, err
	}

	var entries []models.TimeEntry
	if err := s.DB.WithContext(ctx).Select("duration", "rate", "is_billed").Find(&entries).Error; err != nil {
		return nil, err
	}
	totals := billing.SumTime(entries)
	d.TotalBilled, d.TotalUnbilled = totals.Billed, totals.Unbilled

	overdue := store.Query{}.Where("status = ?", models.InvoiceStatusOverdue)
	if d.OverdueInvoices, err = store.New[models.Invoice](s.DB).Sum(ctx, "amount", overdue); err != nil {
		return nil, err
	}

	now := s.now()
	if d.UpcomingEvents, err = store.New[models.CalendarEvent](s.DB).List(ctx, store.Query{}.
		Where("date >= ? AND date <= ?", now, now.Add(upcomingWindow)).
		Preload("Matter").
		OrderBy("date ASC").
		Limit(dashboardItems)); err != nil {
		return nil, err
	}
	if d.RecentTasks, err = store.New[models.Task](s.DB).List(ctx, store.Query{}.
		Preload("Matter").
		OrderBy("created_at DESC").
		Limit(dashboardItems)); err != nil {
		return nil, err
	}
	if d.RecentMatters, err = matters.List(ctx, store.Query{}.
		Preload("Client").
		OrderBy("open_date DESC").
		Limit(dashboardItems)); err != nil {
		return nil, err
	}
	if d.MattersByStatus, err = matters.CountBy(ctx, "status", store.Query{}); err != nil {
		return nil, err
	}
	return &d, nil
}
