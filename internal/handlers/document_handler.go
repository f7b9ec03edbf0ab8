package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/services/documents"
	"github.com/conspectus/conspectus/internal/services/report"
)

type DocumentHandler struct {
	documentService interfaces.DocumentService
	reportService   *report.Service
	maxUploadSize   int64
	logger          arbor.ILogger
}

func NewDocumentHandler(documentService interfaces.DocumentService, reportService *report.Service, maxUploadSize int64, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		reportService:   reportService,
		maxUploadSize:   maxUploadSize,
		logger:          logger,
	}
}

// UploadHandler handles POST /api/documents/upload with a multipart "file" field.
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart request or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing 'file' field")
		return
	}
	defer file.Close()

	result, err := h.documentService.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.writeUploadError(w, header.Filename, err)
		return
	}

	if result.Duplicate {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"document":  result.Document,
			"duplicate": true,
		})
		return
	}

	h.logger.Info().
		Str("id", result.Document.ID).
		Str("filename", result.Document.Filename).
		Msg("Document uploaded")

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"document": result.Document,
		"outline":  result.Outline,
	})
}

// BulkUploadHandler handles POST /api/documents/bulk-upload. Every file in
// the multipart request is processed; the response reports per-file status.
func (h *DocumentHandler) BulkUploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart request or files too large")
		return
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		WriteError(w, http.StatusBadRequest, "Missing 'files' field")
		return
	}

	opened := r.MultipartForm.File["files"]
	batch := make(map[string]io.Reader, len(opened))
	for _, fh := range opened {
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn().Err(err).Str("filename", fh.Filename).Msg("Failed to open uploaded file")
			continue
		}
		defer f.Close()
		batch[fh.Filename] = f
	}

	items := h.documentService.BulkUpload(r.Context(), batch)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": items,
		"total":   len(items),
	})
}

// ListHandler returns a paginated list of documents.
func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit, offset := GetListParams(r)
	docs, err := h.documentService.List(r.Context(), &interfaces.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list documents")
		WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
		"limit":     limit,
		"offset":    offset,
	})
}

// GetHandler handles GET /api/documents/{id}.
func (h *DocumentHandler) GetHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	doc, err := h.documentService.Get(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	WriteJSON(w, http.StatusOK, doc)
}

// OutlineHandler handles GET /api/documents/{id}/outline.
func (h *DocumentHandler) OutlineHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	outline, err := h.documentService.GetOutline(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	WriteJSON(w, http.StatusOK, outline)
}

// OutlineReportHandler handles GET /api/documents/{id}/outline.pdf and
// streams a rendered PDF report of the outline.
func (h *DocumentHandler) OutlineReportHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	pdfBytes, err := h.reportService.OutlineReport(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=\"outline.pdf\"")
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

// DeleteHandler handles DELETE /api/documents/{id}.
func (h *DocumentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	if err := h.documentService.Delete(r.Context(), id); err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	h.logger.Info().Str("id", id).Msg("Document deleted")
	WriteSuccess(w, "Document deleted")
}

// SyncHandler handles POST /api/documents/sync and reconciles the metadata
// store against the upload directory.
func (h *DocumentHandler) SyncHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	syncReport, err := h.documentService.Sync(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Library sync failed")
		WriteError(w, http.StatusInternalServerError, "Library sync failed")
		return
	}

	WriteJSON(w, http.StatusOK, syncReport)
}

// StatsHandler returns aggregate library statistics.
func (h *DocumentHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := h.documentService.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get document stats")
		WriteError(w, http.StatusInternalServerError, "Failed to get statistics")
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

func (h *DocumentHandler) writeUploadError(w http.ResponseWriter, filename string, err error) {
	switch {
	case strings.Contains(err.Error(), "filename"):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Str("filename", filename).Msg("Upload failed")
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	}
}

func (h *DocumentHandler) writeLookupError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, documents.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Document not found")
		return
	}
	h.logger.Error().Err(err).Str("id", id).Msg("Document lookup failed")
	WriteError(w, http.StatusInternalServerError, err.Error())
}
