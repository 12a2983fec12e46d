package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/storage"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrStorageDisabled is returned by document operations when no storage backend is set.
var ErrStorageDisabled = errors.New("document storage is not configured")

type DocumentService struct {
	Deps
}

func NewDocumentService(d Deps) *DocumentService {
	return &DocumentService{Deps: d.withDefaults()}
}

// UploadInput describes a new file. When PreviousID names an existing document
// the upload becomes its next version.
type UploadInput struct {
	Name        string
	Description string
	Tags        string
	MatterID    *string
	PreviousID  *string
	FileName    string
	Content     io.Reader
	// TextContent is indexed for search; set for generated drafts.
	TextContent string
}

type DocumentFilter struct {
	MatterID string
	Search   string
}

func (s *DocumentService) List(ctx context.Context, f DocumentFilter) ([]models.Document, error) {
	q := store.Query{}.
		WhereIf(f.MatterID != "", "matter_id = ?", f.MatterID).
		Preload("Matter").
		OrderBy("created_at DESC")
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(tags) LIKE ? OR LOWER(text_content) LIKE ?)", like, like, like)
	}
	return store.New[models.Document](s.DB).List(ctx, q)
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	return store.New[models.Document](s.DB).Find(ctx, id, "Matter")
}

// Versions lists every version of the document's group, newest first.
func (s *DocumentService) Versions(ctx context.Context, id string) ([]models.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return store.New[models.Document](s.DB).List(ctx, store.Query{}.
		Where("group_key = ?", groupKey(doc)).
		OrderBy("version DESC"))
}

func groupKey(d *models.Document) string {
	if d.GroupKey != "" {
		return d.GroupKey
	}
	return d.ID
}

// Upload stores the file, then records the document row. If the row cannot be
// written the stored file is removed again.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (*models.Document, error) {
	if s.Storage == nil {
		return nil, ErrStorageDisabled
	}
	in.Name = strings.TrimSpace(in.Name)
	in.FileName = strings.TrimSpace(in.FileName)
	in.MatterID, in.PreviousID = optionalID(in.MatterID), optionalID(in.PreviousID)
	if in.Name == "" {
		in.Name = in.FileName
	}
	v := validation.Violations{}
	validation.Required("file", in.FileName, v)
	validation.MaxLen("name", in.Name, 255, v)
	if in.Content == nil {
		v.Add("file", "required")
	}
	if err := apperr.Invalid(v); err != nil {
		return nil, err
	}

	content := in.Content
	limit := s.Config.Storage.MaxUpload
	if limit > 0 {
		content = io.LimitReader(in.Content, limit+1)
	}
	key, size, err := s.Storage.Save(ctx, in.FileName, content)
	if err != nil {
		return nil, err
	}
	if limit > 0 && size > limit {
		s.removeFiles(ctx, []string{key})
		return nil, invalidField("file", "too_large")
	}

	doc := &models.Document{
		Name:        in.Name,
		FileName:    in.FileName,
		FilePath:    key,
		FileSize:    size,
		MimeType:    storage.ContentType(in.FileName),
		Version:     1,
		Tags:        strings.TrimSpace(in.Tags),
		TextContent: in.TextContent,
		Description: in.Description,
		MatterID:    in.MatterID,
	}
	if actor := audit.ActorFrom(ctx); actor.UserID != "" {
		doc.UploadedBy = &actor.UserID
	}
	err = s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		docs := store.New[models.Document](tx)
		v := validation.Violations{}
		if in.MatterID != nil {
			if err := requireRow[models.Matter](tx, "matter_id", *in.MatterID, v); err != nil {
				return audit.Entry{}, err
			}
		}
		if in.PreviousID != nil {
			prev, err := docs.Find(ctx, *in.PreviousID)
			if store.IsNotFound(err) {
				v.Add("previous_id", "not_found")
			} else if err != nil {
				return audit.Entry{}, err
			} else {
				doc.GroupKey = groupKey(prev)
				var latest int
				err := tx.Model(&models.Document{}).Where("group_key = ? OR id = ?", doc.GroupKey, doc.GroupKey).
					Select("COALESCE(MAX(version), 0)").Scan(&latest).Error
				if err != nil {
					return audit.Entry{}, apperr.FromDB(err)
				}
				doc.Version = latest + 1
				if doc.MatterID == nil {
					doc.MatterID = prev.MatterID
				}
			}
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		if err := docs.Create(ctx, doc); err != nil {
			return audit.Entry{}, err
		}
		if doc.GroupKey == "" {
			doc.GroupKey = doc.ID
			if err := docs.UpdateFields(ctx, doc.ID, map[string]any{"group_key": doc.ID}); err != nil {
				return audit.Entry{}, err
			}
		}
		return audit.Entry{Action: models.ActionUpload, EntityType: entityDocument, EntityID: doc.ID, New: doc}, nil
	})
	if err != nil {
		s.removeFiles(ctx, []string{key})
		return nil, err
	}
	return doc, nil
}

// Open returns the document and a reader of its content, and records a DOWNLOAD.
// The caller closes the reader.
func (s *DocumentService) Open(ctx context.Context, id string) (*models.Document, io.ReadCloser, error) {
	if s.Storage == nil {
		return nil, nil, ErrStorageDisabled
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s.open(ctx, doc)
}

func (s *DocumentService) open(ctx context.Context, doc *models.Document) (*models.Document, io.ReadCloser, error) {
	rc, err := s.Storage.Open(ctx, doc.FilePath)
	if errors.Is(err, storage.ErrNotFound) {
		s.Log.Error("stored file missing", zap.String("document_id", doc.ID), zap.String("key", doc.FilePath))
		return nil, nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	err = s.Audit.Run(ctx, s.DB, func(*gorm.DB) (audit.Entry, error) {
		return audit.Entry{Action: models.ActionDownload, EntityType: entityDocument, EntityID: doc.ID, Details: doc.FileName}, nil
	})
	if err != nil {
		rc.Close()
		return nil, nil, err
	}
	return doc, rc, nil
}

type DocumentUpdate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}

func (s *DocumentService) Update(ctx context.Context, id string, in DocumentUpdate) (*models.Document, error) {
	in.Name = strings.TrimSpace(in.Name)
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 255, v)
	validation.MaxLen("tags", in.Tags, 500, v)
	if err := apperr.Invalid(v); err != nil {
		return nil, err
	}
	var doc *models.Document
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		docs := store.New[models.Document](tx)
		var err error
		if doc, err = docs.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		old := map[string]any{"name": doc.Name, "description": doc.Description, "tags": doc.Tags}
		doc.Name, doc.Description, doc.Tags = in.Name, in.Description, strings.TrimSpace(in.Tags)
		if err := docs.Update(ctx, doc); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionUpdate, EntityType: entityDocument, EntityID: id, Old: old, New: in}, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the row and, after commit, the stored file.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	var key string
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		docs := store.New[models.Document](tx)
		doc, err := docs.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		key = doc.FilePath
		if err := docs.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityDocument, EntityID: id, Old: doc}, nil
	})
	if err != nil {
		return err
	}
	s.removeFiles(ctx, []string{key})
	return nil
}

type DocumentTemplateInput struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Variables   string `json:"variables"`
	IsActive    bool   `json:"is_active"`
}

func (in *DocumentTemplateInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("content", in.Content, v)
	validation.MaxLen("variables", in.Variables, 500, v)
	return apperr.Invalid(v)
}

func (in DocumentTemplateInput) apply(t *models.DocumentTemplate) {
	t.Name = in.Name
	t.Category = in.Category
	t.Description = in.Description
	t.Content = in.Content
	t.Variables = strings.TrimSpace(in.Variables)
	t.IsActive = in.IsActive
}

func (s *DocumentService) Templates(ctx context.Context, activeOnly bool) ([]models.DocumentTemplate, error) {
	q := store.Query{}.WhereIf(activeOnly, "is_active = ?", true).OrderBy("category ASC").OrderBy("name ASC")
	return store.New[models.DocumentTemplate](s.DB).List(ctx, q)
}

func (s *DocumentService) Template(ctx context.Context, id string) (*models.DocumentTemplate, error) {
	return store.New[models.DocumentTemplate](s.DB).Find(ctx, id)
}

func (s *DocumentService) CreateTemplate(ctx context.Context, in DocumentTemplateInput) (*models.DocumentTemplate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t := &models.DocumentTemplate{}
	in.apply(t)
	if actor := audit.ActorFrom(ctx); actor.UserID != "" {
		t.CreatedBy = &actor.UserID
	}
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		if err := store.New[models.DocumentTemplate](tx).Create(ctx, t); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityDocumentTemplate, EntityID: t.ID, New: t}, nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *DocumentService) UpdateTemplate(ctx context.Context, id string, in DocumentTemplateInput) (*models.DocumentTemplate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var t *models.DocumentTemplate
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		templates := store.New[models.DocumentTemplate](tx)
		var err error
		if t, err = templates.Find(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		old := map[string]any{"name": t.Name, "is_active": t.IsActive}
		in.apply(t)
		if err := templates.Update(ctx, t); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionUpdate, EntityType: entityDocumentTemplate, EntityID: id, Old: old, New: t}, nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *DocumentService) DeleteTemplate(ctx context.Context, id string) error {
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		templates := store.New[models.DocumentTemplate](tx)
		t, err := templates.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := templates.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityDocumentTemplate, EntityID: id, Old: t}, nil
	})
}
