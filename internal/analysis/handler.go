package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"docrisk-backend/internal/audit"
	"docrisk-backend/internal/extract"
	"docrisk-backend/internal/risk"
	"docrisk-backend/internal/shared/metrics"
	"docrisk-backend/internal/shared/server/middleware"
	"docrisk-backend/internal/shared/server/respond"
	"docrisk-backend/internal/shared/storage/object"
	"docrisk-backend/internal/shared/telemetry"
	"docrisk-backend/internal/shared/util"
)

const (
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeTooLarge          = "FILE_TOO_LARGE"
	ErrorCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrorCodeExtractionFailed  = "EXTRACTION_FAILED"
	ErrorCodeTimeout           = "ANALYSIS_TIMEOUT"
	ErrorCodeNotFound          = "NOT_FOUND"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)

// multipart overhead allowed on top of the file size limit
const multipartSlack = 1 << 20

// Handler serves the analysis endpoints.
type Handler struct {
	Pipeline       *Pipeline
	Store          object.ObjectStore
	Audit          audit.Repo
	MaxUploadBytes int64
	Provider       string
	Model          string
}

// RegisterRoutes attaches analysis routes. guard runs before the analyze routes only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guard ...gin.HandlerFunc) {
	analyze := append(append([]gin.HandlerFunc{}, guard...), h.analyzeUpload)
	rg.POST("/documents/analyze", analyze...)
	analyzeObject := append(append([]gin.HandlerFunc{}, guard...), h.analyzeObject)
	rg.POST("/documents/analyze-object", analyzeObject...)
	rg.GET("/document-types", h.documentTypes)
}

func (h *Handler) analyzeUpload(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartSlack)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.IncAnalysisRejected()
			respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "file exceeds the upload size limit", gin.H{"maxBytes": h.MaxUploadBytes})
			return
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "multipart form with a file field is required", nil)
		return
	}
	defer func() {
		if err := form.RemoveAll(); err != nil {
			telemetry.Warn("analysis.multipart_cleanup_failed", map[string]any{"error": err.Error()})
		}
	}()

	files := form.File["file"]
	if len(files) == 0 {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file is required", []map[string]string{
			{"field": "file", "issue": "required"},
		})
		return
	}
	fh := files[0]
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		metrics.IncAnalysisRejected()
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "file exceeds the upload size limit", gin.H{"maxBytes": h.MaxUploadBytes})
		return
	}
	fileName, err := util.SanitizeFileName(fh.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid file name", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "could not read uploaded file", nil)
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "could not read uploaded file", nil)
		return
	}

	metrics.IncAnalysisStarted()
	report, err := h.Pipeline.Analyze(c.Request.Context(), Document{
		FileName: fileName,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	})
	h.finish(c, report, err)
}

type analyzeObjectRequest struct {
	StorageKey string `json:"storageKey" binding:"required"`
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType"`
}

func (h *Handler) analyzeObject(c *gin.Context) {
	if h.Store == nil {
		respond.Error(c, http.StatusNotImplemented, "NOT_IMPLEMENTED", "object storage is not configured", nil)
		return
	}
	var req analyzeObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "storageKey is required", []map[string]string{
			{"field": "storageKey", "issue": "required"},
		})
		return
	}
	name := req.FileName
	if name == "" {
		name = path.Base(req.StorageKey)
	}
	fileName, err := util.SanitizeFileName(name)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid file name", nil)
		return
	}

	ctx := c.Request.Context()
	metrics.IncAnalysisStarted()
	start := time.Now()
	res, err := extract.FromStore(ctx, h.Store, req.StorageKey, req.MimeType, fileName, h.MaxUploadBytes)
	if errors.Is(err, object.ErrNotFound) || errors.Is(err, object.ErrInvalidKey) {
		metrics.IncAnalysisRejected()
		respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "stored document not found", nil)
		return
	}
	// stored uploads are single-use
	h.deleteStored(ctx, req.StorageKey)
	if errors.Is(err, extract.ErrTooLarge) {
		metrics.IncAnalysisRejected()
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "file exceeds the upload size limit", gin.H{"maxBytes": h.MaxUploadBytes})
		return
	}

	var report risk.Report
	if err == nil {
		report, err = h.Pipeline.AnalyzeText(ctx, fileName, res)
		if err == nil {
			report.ProcessingMs = time.Since(start).Milliseconds()
		}
	}
	h.finish(c, report, err)
}

func (h *Handler) deleteStored(ctx context.Context, key string) {
	if err := h.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
		telemetry.Warn("analysis.object_delete_failed", map[string]any{"storage_key": key, "error": err.Error()})
	}
}

// finish maps pipeline errors to HTTP responses and records successful runs.
func (h *Handler) finish(c *gin.Context, report risk.Report, err error) {
	ctx := c.Request.Context()
	requestID := middleware.RequestIDFromContext(c)
	if err != nil {
		var extErr *extract.ExtractionError
		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			metrics.IncAnalysisRejected()
			respond.Error(c, http.StatusUnsupportedMediaType, ErrorCodeUnsupportedFormat, "unsupported file format", gin.H{
				"supported": extract.SupportedFormats(),
			})
		case errors.As(err, &extErr):
			metrics.IncAnalysisRejected()
			respond.Error(c, http.StatusUnprocessableEntity, ErrorCodeExtractionFailed, extErr.Error(), gin.H{"format": extErr.Format})
		case errors.Is(err, ErrAnalysisTimeout):
			metrics.IncAnalysisTimedOut()
			respond.Error(c, http.StatusGatewayTimeout, ErrorCodeTimeout, "analysis did not finish in time", nil)
		case ctx.Err() != nil:
			// client went away; nobody is left to read a response
			telemetry.Info("analysis.abandoned", map[string]any{"request_id": requestID, "error": ctx.Err().Error()})
			c.Abort()
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "analysis failed", nil)
		}
		return
	}

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(report.ProcessingMs))
	c.Set("reportId", report.ReportID)
	c.Set("documentType", string(report.DocumentType))

	if h.Audit != nil {
		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		run := audit.RunFromReport(report, requestID, h.Provider, h.Model)
		if err := h.Audit.Record(auditCtx, run); err != nil {
			telemetry.Warn("audit.record_failed", map[string]any{"request_id": requestID, "error": err.Error()})
		}
		cancel()
	}

	telemetry.Info("analysis.complete", map[string]any{
		"request_id":    requestID,
		"report_id":     report.ReportID,
		"document_type": report.DocumentType,
		"score_status":  report.ScoreStatus,
		"clauses":       report.Stats.Clauses,
		"unscored":      report.Stats.Unscored,
		"warnings":      len(report.Warnings),
		"duration_ms":   report.ProcessingMs,
	})
	respond.JSON(c, http.StatusOK, report)
}

type documentTypeView struct {
	Type  risk.DocumentType `json:"type"`
	Label string            `json:"label"`
}

func (h *Handler) documentTypes(c *gin.Context) {
	out := make([]documentTypeView, 0, len(risk.DocumentTypes()))
	for _, d := range risk.DocumentTypes() {
		out = append(out, documentTypeView{Type: d, Label: d.Label()})
	}
	respond.JSON(c, http.StatusOK, gin.H{"documentTypes": out})
}
