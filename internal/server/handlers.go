package server

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fujishima/keihi/internal/gemini"
	"github.com/fujishima/keihi/internal/models"
	"github.com/fujishima/keihi/internal/report"
	"github.com/fujishima/keihi/internal/storage"
)

const contextUserKey = "user_id"

// Analyzer extracts receipt records from an uploaded file.
type Analyzer interface {
	Analyze(ctx context.Context, filePath string) ([]*models.Record, error)
}

// RecordStore is the record persistence surface the handlers need.
type RecordStore interface {
	ListByUser(userID string) ([]*models.Record, error)
	CreateBatch(records []*models.Record) error
	Delete(userID, id string) error
}

// Exporter builds the three export formats.
type Exporter interface {
	Excel(userID string, ids []string) (string, *report.Result, error)
	CSV(w io.Writer, userID string, ids []string) error
	List(userID string, ids []string) (*report.ListDocument, error)
}

// Handlers contains all HTTP request handlers.
type Handlers struct {
	analyzer Analyzer
	records  RecordStore
	exporter Exporter
	uploads  storage.UploadStorage
	logger   *zap.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(analyzer Analyzer, records RecordStore, exporter Exporter, uploads storage.UploadStorage, logger *zap.Logger) *Handlers {
	return &Handlers{
		analyzer: analyzer,
		records:  records,
		exporter: exporter,
		uploads:  uploads,
		logger:   logger,
	}
}

// Response is the standard JSON envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ExportRequest selects a subset of records for an export. An empty list
// exports everything.
type ExportRequest struct {
	RecordIDs []string `json:"record_ids"`
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// AnalyzeReceipt handles POST /api/records/analyze. It stores the uploaded
// receipt, runs the analysis pipeline and persists the extracted records.
func (h *Handlers) AnalyzeReceipt(c *gin.Context) {
	userID := c.GetString(contextUserKey)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "file is required"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read upload"})
		return
	}
	defer src.Close()

	path, err := h.uploads.SaveUpload(userID, fileHeader.Filename, src)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedFileType) {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
		h.logger.Error("Failed to store upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to store upload"})
		return
	}
	defer func() {
		if err := h.uploads.Remove(path); err != nil {
			h.logger.Warn("Failed to remove processed upload",
				zap.String("path", path),
				zap.Error(err))
		}
	}()

	records, err := h.analyzer.Analyze(c.Request.Context(), path)
	if err != nil {
		var analysisErr *gemini.AnalysisError
		if errors.As(err, &analysisErr) {
			h.logger.Error("Receipt analysis failed",
				zap.Int("attempts", analysisErr.Attempts),
				zap.Error(err))
			c.JSON(http.StatusBadGateway, Response{Success: false, Error: "receipt analysis failed"})
			return
		}
		h.logger.Error("Receipt analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "receipt analysis failed"})
		return
	}

	for _, rec := range records {
		rec.UserID = userID
	}
	if err := h.records.CreateBatch(records); err != nil {
		h.logger.Error("Failed to persist records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to save records"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// ListRecords handles GET /api/records.
func (h *Handlers) ListRecords(c *gin.Context) {
	userID := c.GetString(contextUserKey)

	records, err := h.records.ListByUser(userID)
	if err != nil {
		h.logger.Error("Failed to list records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve records"})
		return
	}
	if records == nil {
		records = []*models.Record{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// DeleteRecord handles DELETE /api/records/:id.
func (h *Handlers) DeleteRecord(c *gin.Context) {
	userID := c.GetString(contextUserKey)
	id := c.Param("id")

	if err := h.records.Delete(userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: "record not found"})
			return
		}
		h.logger.Error("Failed to delete record", zap.String("record_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to delete record"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ExportExcel handles GET and POST /api/export/excel. POST bodies may name
// the record IDs to include.
func (h *Handlers) ExportExcel(c *gin.Context) {
	userID := c.GetString(contextUserKey)
	ids, ok := h.exportIDs(c)
	if !ok {
		return
	}

	path, _, err := h.exporter.Excel(userID, ids)
	if err != nil {
		h.exportError(c, err, "excel")
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

// ExportCSV handles GET and POST /api/export/csv.
func (h *Handlers) ExportCSV(c *gin.Context) {
	userID := c.GetString(contextUserKey)
	ids, ok := h.exportIDs(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.CSV(&buf, userID, ids); err != nil {
		h.exportError(c, err, "csv")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="records.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportList handles GET and POST /api/export/list. The layout is returned
// as JSON for the document renderer and the frontend print view.
func (h *Handlers) ExportList(c *gin.Context) {
	userID := c.GetString(contextUserKey)
	ids, ok := h.exportIDs(c)
	if !ok {
		return
	}

	doc, err := h.exporter.List(userID, ids)
	if err != nil {
		h.exportError(c, err, "list")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// exportIDs reads the optional record selection from a POST body. GET
// requests always export everything.
func (h *Handlers) exportIDs(c *gin.Context) ([]string, bool) {
	if c.Request.Method != http.MethodPost {
		return nil, true
	}

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return nil, false
	}
	return req.RecordIDs, true
}

func (h *Handlers) exportError(c *gin.Context, err error, format string) {
	switch {
	case errors.Is(err, report.ErrNoRecords):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "no records to export"})
	case errors.Is(err, report.ErrTemplateNotFound):
		h.logger.Error("Export template missing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "export template not available"})
	default:
		h.logger.Error("Export failed", zap.String("format", format), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "export failed"})
	}
}
