package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"gorm.io/gorm"
)

// DraftingService writes legal document drafts with the configured generator.
type DraftingService struct {
	Deps
	docs *DocumentService
}

func NewDraftingService(d Deps, docs *DocumentService) *DraftingService {
	return &DraftingService{Deps: d.withDefaults(), docs: docs}
}

type DraftRequest struct {
	DocumentType string  `json:"document_type"`
	Prompt       string  `json:"prompt"`
	MatterID     *string `json:"matter_id"`
	TemplateID   *string `json:"template_id"`
}

// Generate builds a prompt from the request, the matter and the template, and
// returns the generated draft. Provider failures are apperr.ErrExternalService.
func (s *DraftingService) Generate(ctx context.Context, req DraftRequest) (string, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	req.DocumentType = strings.TrimSpace(req.DocumentType)
	req.MatterID, req.TemplateID = optionalID(req.MatterID), optionalID(req.TemplateID)
	v := validation.Violations{}
	validation.Required("prompt", req.Prompt, v)
	validation.Required("document_type", req.DocumentType, v)
	if err := apperr.Invalid(v); err != nil {
		return "", err
	}

	var matter *models.Matter
	if req.MatterID != nil {
		m, err := store.New[models.Matter](s.DB).Find(ctx, *req.MatterID, "Client")
		if err != nil {
			return "", err
		}
		matter = m
	}
	var tpl *models.DocumentTemplate
	if req.TemplateID != nil {
		t, err := store.New[models.DocumentTemplate](s.DB).Find(ctx, *req.TemplateID)
		if err != nil {
			return "", err
		}
		tpl = t
	}

	text, err := s.AI.Generate(ctx, DraftPrompt(req, matter, tpl))
	if err != nil {
		return "", err
	}
	err = s.Audit.Run(ctx, s.DB, func(*gorm.DB) (audit.Entry, error) {
		return audit.Entry{
			Action:     models.ActionAIGenerate,
			EntityType: entityDrafter,
			EntityID:   deref(req.MatterID),
			Details:    fmt.Sprintf("Type: %s, Prompt length: %d", req.DocumentType, len([]rune(req.Prompt))),
		}, nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// DraftPrompt renders the instruction sent to the model.
func DraftPrompt(req DraftRequest, matter *models.Matter, tpl *models.DocumentTemplate) string {
	var b strings.Builder
	b.WriteString("Sen bir hukuk asistanısın. Türk hukuk sistemine uygun, profesyonel hukuki belgeler hazırlıyorsun.\n")
	fmt.Fprintf(&b, "Belge türü: %s\n", req.DocumentType)
	if matter != nil {
		client := ""
		if matter.Client != nil {
			client = matter.Client.Name
		}
		desc := matter.Description
		if desc == "" {
			desc = "Belirtilmemiş"
		}
		b.WriteString("\nDosya bilgileri:\n")
		fmt.Fprintf(&b, "- Dosya no: %s\n", matter.CaseNumber)
		fmt.Fprintf(&b, "- Dosya adı: %s\n", matter.Name)
		fmt.Fprintf(&b, "- Uzmanlık alanı: %s\n", matter.PracticeArea)
		fmt.Fprintf(&b, "- Müvekkil: %s\n", client)
		fmt.Fprintf(&b, "- Açıklama: %s\n", desc)
	}
	if tpl != nil {
		fmt.Fprintf(&b, "\nŞablon: %s\nŞablon içeriği:\n%s\n", tpl.Name, tpl.Content)
	}
	fmt.Fprintf(&b, "\nKullanıcı isteği: %s\n", req.Prompt)
	b.WriteString("\nBelgeyi resmi bir dille ve hukuki terminolojiye uygun olarak oluştur.\n")
	return b.String()
}

type SaveDraftInput struct {
	Name     string  `json:"name"`
	Content  string  `json:"content"`
	MatterID *string `json:"matter_id"`
}

// SaveDraft stores a generated draft as a plain text document.
func (s *DraftingService) SaveDraft(ctx context.Context, in SaveDraftInput) (*models.Document, error) {
	in.Name = strings.TrimSpace(in.Name)
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("content", in.Content, v)
	if err := apperr.Invalid(v); err != nil {
		return nil, err
	}
	fileName := strings.Join(strings.Fields(in.Name), "_") + "_" + s.now().Format("20060102150405") + ".txt"
	return s.docs.Upload(ctx, UploadInput{
		Name:        in.Name,
		Description: "AI generated draft",
		Tags:        "ai-draft",
		MatterID:    in.MatterID,
		FileName:    fileName,
		Content:     strings.NewReader(in.Content),
		TextContent: in.Content,
	})
}
