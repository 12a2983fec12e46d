package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/logger"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
	"go.uber.org/zap"
)

// multipartMemory is kept in memory while parsing uploads; larger parts spill to disk.
const multipartMemory = 8 << 20

// DocumentHandler serves stored files and drafting templates.
type DocumentHandler struct {
	svc *services.DocumentService
}

func NewDocumentHandler(svc *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func documentError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrStorageDisabled) {
		httpx.JSONError(w, http.StatusServiceUnavailable, "storage_disabled", nil)
		return
	}
	httpx.Error(w, err)
}

// serveDocument streams rc as an attachment and closes it.
func serveDocument(w http.ResponseWriter, r *http.Request, doc *models.Document, rc io.ReadCloser) {
	defer rc.Close()
	ct := doc.MimeType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	if doc.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.FileSize, 10))
	}
	if _, err := io.Copy(w, rc); err != nil {
		logger.FromContext(r.Context()).Warn("stream document", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), services.DocumentFilter{
		MatterID: r.URL.Query().Get("matter_id"),
		Search:   r.URL.Query().Get("q"),
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *DocumentHandler) Versions(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Versions(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// Upload expects a multipart form with a "file" part and optional name,
// description, tags, matter_id and previous_id fields.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"file": "required"})
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	doc, err := h.svc.Upload(r.Context(), services.UploadInput{
		Name:        name,
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
		MatterID:    optional(r.FormValue("matter_id")),
		PreviousID:  optional(r.FormValue("previous_id")),
		FileName:    header.Filename,
		Content:     file,
	})
	if err != nil {
		documentError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	doc, rc, err := h.svc.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		documentError(w, err)
		return
	}
	serveDocument(w, r, doc, rc)
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.DocumentUpdate
	if !decode(w, r, &in) {
		return
	}
	d, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		documentError(w, err)
		return
	}
	noContent(w)
}

func (h *DocumentHandler) Templates(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Templates(r.Context(), queryBool(r, "active"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *DocumentHandler) Template(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Template(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *DocumentHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in services.DocumentTemplateInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.svc.CreateTemplate(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *DocumentHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var in services.DocumentTemplateInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.svc.UpdateTemplate(r.Context(), r.PathValue("id"), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *DocumentHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}
