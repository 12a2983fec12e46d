package services_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/internal/config"
	"github.com/diewo77/go-lawfirm/internal/db/dbtest"
	"github.com/diewo77/go-lawfirm/internal/mail"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
	"github.com/diewo77/go-lawfirm/internal/storage"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) messages() []mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mail.Message(nil), o.sent...)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeAI struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeAI) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type env struct {
	db    *gorm.DB
	svc   *services.Services
	mail  *outbox
	clock *clock
	ai    *fakeAI
	files storage.Storage
}

func newEnv(t *testing.T) *env {
	t.Helper()
	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	e := &env{
		db:    dbtest.Open(t),
		mail:  &outbox{},
		clock: &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		ai:    &fakeAI{reply: "DİLEKÇE"},
		files: files,
	}
	cfg := &config.Config{}
	cfg.App.BaseURL = "https://buro.example.com"
	cfg.Billing.Currency = "TRY"
	e.svc = services.New(services.Deps{
		DB:      e.db,
		Mailer:  e.mail,
		Storage: files,
		AI:      e.ai,
		Config:  cfg,
		Now:     e.clock.Now,
	})
	return e
}

// staff returns a context acting as a freshly created user with role.
func (e *env) staff(t *testing.T, role string) (context.Context, *models.User) {
	t.Helper()
	u := &models.User{Email: strings.ToLower(role) + "@buro.example.com", Name: role, Role: role, PasswordHash: "x"}
	require.NoError(t, store.New[models.User](e.db).Create(context.Background(), u))
	ctx := auth.WithUser(context.Background(), auth.Principal{ID: u.ID, Email: u.Email, Role: u.Role, Scope: auth.ScopeStaff})
	return ctx, u
}

func (e *env) client(t *testing.T, ctx context.Context, name, email string) *models.Client {
	t.Helper()
	c, err := e.svc.Clients.Create(ctx, services.ClientInput{Name: name, Email: email})
	require.NoError(t, err)
	return c
}

func (e *env) matter(t *testing.T, ctx context.Context, clientID, caseNumber string, rate float64) *models.Matter {
	t.Helper()
	m, err := e.svc.Matters.Create(ctx, services.MatterInput{
		ClientID: clientID, CaseNumber: caseNumber, Name: "Dosya " + caseNumber, BillableRate: rate,
	})
	require.NoError(t, err)
	return m
}

func (e *env) auditRows(t *testing.T, action string) []models.AuditLog {
	t.Helper()
	var rows []models.AuditLog
	require.NoError(t, e.db.Where("action = ?", action).Order("created_at").Find(&rows).Error)
	return rows
}

func ptr[T any](v T) *T { return &v }
