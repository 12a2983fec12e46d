package services

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/billing"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/pdf"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"github.com/diewo77/go-lawfirm/view"
	"gorm.io/gorm"
)

// invoiceNumberLock is the advisory lock key serializing invoice numbering on PostgreSQL.
const invoiceNumberLock = 7_301_001

// numberingAttempts bounds retries when a concurrent writer took the same number.
const numberingAttempts = 3

type InvoiceService struct {
	Deps
}

func NewInvoiceService(d Deps) *InvoiceService {
	return &InvoiceService{Deps: d.withDefaults()}
}

type InvoiceItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// InvoiceInput creates an invoice. With items the amount is their subtotal and
// Amount is ignored.
type InvoiceInput struct {
	ClientID  string             `json:"client_id"`
	IssueDate time.Time          `json:"issue_date"`
	DueDate   time.Time          `json:"due_date"`
	Amount    float64            `json:"amount"`
	Notes     string             `json:"notes"`
	Items     []InvoiceItemInput `json:"items"`
}

func (in *InvoiceInput) normalize(now time.Time) {
	in.ClientID = strings.TrimSpace(in.ClientID)
	if in.IssueDate.IsZero() {
		in.IssueDate = now
	}
	for i := range in.Items {
		in.Items[i].Description = strings.TrimSpace(in.Items[i].Description)
		if in.Items[i].Quantity == 0 {
			in.Items[i].Quantity = 1
		}
	}
}

func (in InvoiceInput) violations() validation.Violations {
	v := validation.Violations{}
	validation.Required("client_id", in.ClientID, v)
	if in.DueDate.IsZero() {
		v.Add("due_date", "required")
	} else if in.DueDate.Before(truncateDay(in.IssueDate)) {
		v.Add("due_date", "before_issue_date")
	}
	if len(in.Items) == 0 {
		validation.NonNegativeFloat("amount", in.Amount, v)
	}
	for i, it := range in.Items {
		field := "items[" + strconv.Itoa(i) + "]"
		validation.Required(field+".description", it.Description, v)
		validation.PositiveFloat(field+".quantity", it.Quantity, v)
		validation.NonNegativeFloat(field+".unit_price", it.UnitPrice, v)
	}
	return v
}

type InvoiceFilter struct {
	Status   string
	ClientID string
	Page     int
	Limit    int
}

// InvoiceList is one page of invoices and the amount total per status over all invoices.
type InvoiceList struct {
	Invoices []models.Invoice   `json:"invoices"`
	Total    int64              `json:"total"`
	Sums     map[string]float64 `json:"sums"`
}

func (s *InvoiceService) List(ctx context.Context, f InvoiceFilter) (*InvoiceList, error) {
	invoices := store.New[models.Invoice](s.DB)
	q := store.Query{}.
		WhereIf(f.Status != "", "status = ?", f.Status).
		WhereIf(f.ClientID != "", "client_id = ?", f.ClientID).
		Preload("Client").
		OrderBy("issue_date DESC").
		OrderBy("number DESC").
		Paginate(f.Page, f.Limit)
	items, total, err := invoices.Page(ctx, q)
	if err != nil {
		return nil, err
	}
	out := &InvoiceList{Invoices: items, Total: total, Sums: make(map[string]float64, len(models.InvoiceStatuses))}
	for _, st := range models.InvoiceStatuses {
		sum, err := invoices.Sum(ctx, "amount", store.Query{}.Where("status = ?", st))
		if err != nil {
			return nil, err
		}
		out.Sums[st] = sum
	}
	return out, nil
}

// NextNumber previews the number the next invoice would get. It is not reserved.
func (s *InvoiceService) NextNumber(ctx context.Context) (string, error) {
	last, err := lastInvoiceNumber(s.DB.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return models.NextInvoiceNumber(last), nil
}

func (s *InvoiceService) Get(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.DB.WithContext(ctx).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return &inv, nil
}

// Create numbers and stores a Draft invoice. Numbering runs inside the insert
// transaction; PostgreSQL serializes it with an advisory lock, and a unique
// violation from a concurrent writer is retried with a fresh number.
func (s *InvoiceService) Create(ctx context.Context, in InvoiceInput) (*models.Invoice, error) {
	in.normalize(s.now())
	if err := apperr.Invalid(in.violations()); err != nil {
		return nil, err
	}
	var inv *models.Invoice
	var err error
	for attempt := 0; attempt < numberingAttempts; attempt++ {
		inv = newInvoice(in)
		err = s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
			if tx.Dialector.Name() == "postgres" {
				if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", invoiceNumberLock).Error; err != nil {
					return audit.Entry{}, err
				}
			}
			v := validation.Violations{}
			if err := requireRow[models.Client](tx, "client_id", in.ClientID, v); err != nil {
				return audit.Entry{}, err
			}
			if err := apperr.Invalid(v); err != nil {
				return audit.Entry{}, err
			}
			last, err := lastInvoiceNumber(tx)
			if err != nil {
				return audit.Entry{}, err
			}
			inv.Number = models.NextInvoiceNumber(last)
			if err := store.New[models.Invoice](tx).Create(ctx, inv); err != nil {
				return audit.Entry{}, err
			}
			items := store.New[models.InvoiceItem](tx)
			for i := range inv.Items {
				inv.Items[i].InvoiceID = inv.ID
				if err := items.Create(ctx, &inv.Items[i]); err != nil {
					return audit.Entry{}, err
				}
			}
			return audit.Entry{Action: models.ActionCreate, EntityType: entityInvoice, EntityID: inv.ID, New: inv}, nil
		})
		if !errors.Is(err, apperr.ErrConstraintViolation) {
			break
		}
		s.Log.Warn("invoice number taken, retrying")
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func newInvoice(in InvoiceInput) *models.Invoice {
	inv := &models.Invoice{
		ClientID:  in.ClientID,
		IssueDate: in.IssueDate,
		DueDate:   in.DueDate,
		Amount:    in.Amount,
		Status:    models.InvoiceStatusDraft,
		Notes:     in.Notes,
	}
	for i, it := range in.Items {
		inv.Items = append(inv.Items, models.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Position:    i,
		})
	}
	if len(inv.Items) > 0 {
		inv.Amount = billing.ItemsSubtotal(inv.Items)
	}
	return inv
}

// lastInvoiceNumber returns the highest INV- number. Longer numbers sort first so
// that INV-10000 outranks INV-9999.
func lastInvoiceNumber(tx *gorm.DB) (string, error) {
	var numbers []string
	err := tx.Model(&models.Invoice{}).
		Where("number LIKE ?", models.InvoicePrefix+"%").
		Order("LENGTH(number) DESC").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", apperr.FromDB(err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

// UpdateStatus sets any status; transitions are unconstrained but always audited
// with the old and new value. Overdue is only ever set here.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id, status string) (*models.Invoice, error) {
	v := validation.Violations{}
	validation.Required("status", status, v)
	validation.OneOf("status", status, models.InvoiceStatuses, v)
	if err := apperr.Invalid(v); err != nil {
		return nil, err
	}
	var inv *models.Invoice
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		invoices := store.New[models.Invoice](tx)
		var err error
		if inv, err = invoices.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		old := inv.Status
		if err := invoices.UpdateFields(ctx, id, map[string]any{"status": status}); err != nil {
			return audit.Entry{}, err
		}
		inv.Status = status
		return audit.Entry{
			Action: models.ActionUpdate, EntityType: entityInvoice, EntityID: id,
			Old: map[string]any{"status": old}, New: map[string]any{"status": status},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Statement builds the printable form of an invoice, dated now.
func (s *InvoiceService) Statement(ctx context.Context, id, lang string) (billing.Statement, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return billing.Statement{}, err
	}
	return billing.NewStatement(inv, s.vatRate(), s.currency(), lang, s.now()), nil
}

const (
	FormatHTML = "html"
	FormatPDF  = "pdf"
)

// Rendered is a printed file ready to be sent to the browser.
type Rendered struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Print renders the invoice as HTML or PDF and records a PRINT audit entry.
func (s *InvoiceService) Print(ctx context.Context, id, lang, format string) (*Rendered, error) {
	if format == "" {
		format = FormatHTML
	}
	st, err := s.Statement(ctx, id, lang)
	if err != nil {
		return nil, err
	}
	out := &Rendered{Filename: st.Number}
	switch format {
	case FormatPDF:
		if out.Body, err = pdf.Invoice(st); err != nil {
			return nil, err
		}
		out.Filename += ".pdf"
		out.ContentType = "application/pdf"
	case FormatHTML:
		var buf bytes.Buffer
		if err := view.RenderInvoice(&buf, st); err != nil {
			return nil, err
		}
		out.Body = buf.Bytes()
		out.Filename += ".html"
		out.ContentType = "text/html; charset=utf-8"
	default:
		return nil, invalidField("format", "invalid_choice")
	}
	err = s.Audit.Run(ctx, s.DB, func(*gorm.DB) (audit.Entry, error) {
		return audit.Entry{Action: models.ActionPrint, EntityType: entityInvoice, EntityID: id, Details: "Format: " + format}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the invoice and its items.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		invoices := store.New[models.Invoice](tx)
		inv, err := invoices.Find(ctx, id, "Items")
		if err != nil {
			return audit.Entry{}, err
		}
		if err := invoices.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityInvoice, EntityID: id, Old: inv}, nil
	})
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
