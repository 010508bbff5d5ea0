package handler

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/eluia/eluia-api/internal/middleware"
	"github.com/eluia/eluia-api/internal/model"
	"github.com/eluia/eluia-api/internal/service"
	"github.com/eluia/eluia-api/pkg/logger"
)

// UploadHandler handles document uploads for the candidate dashboard.
type UploadHandler struct {
	ingest        *service.IngestService
	tenants       *service.TenantService
	maxFileSizeMB int64
	logger        *logger.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(ingest *service.IngestService, tenants *service.TenantService, maxFileSizeMB int64, log *logger.Logger) *UploadHandler {
	return &UploadHandler{
		ingest:        ingest,
		tenants:       tenants,
		maxFileSizeMB: maxFileSizeMB,
		logger:        log,
	}
}

// Upload returns the handler for one category's upload endpoint
// (POST /api/program/upload, /api/talking-points/upload,
// /api/competitive/upload).
func (h *UploadHandler) Upload(category model.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.upload(w, r, category)
	}
}

func (h *UploadHandler) upload(w http.ResponseWriter, r *http.Request, category model.Category) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)

	// One extra MB of headroom for multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, (h.maxFileSizeMB+1)*1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	result, err := h.ingest.Ingest(ctx, tenantID, category, header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnsupportedFormat):
			writeError(w, http.StatusBadRequest, "unsupported file format, expected PDF or Word")
		case errors.Is(err, model.ErrFileTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		case errors.Is(err, model.ErrTooManyPages):
			writeError(w, http.StatusBadRequest, "document has too many pages")
		case errors.Is(err, model.ErrParseFailure):
			writeError(w, http.StatusUnprocessableEntity, "could not extract text from document")
		default:
			h.logger.WithTenant(tenantID).Error("upload failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to process document")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "document processed",
		"details": result,
	})
}

// Status handles GET /api/documents
func (h *UploadHandler) Status(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenants.Get(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}

	docs := make(map[model.Category]*model.Document, len(model.Categories))
	for _, c := range model.Categories {
		if d := tenant.Documents[c]; d != nil {
			docs[c] = d
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}
