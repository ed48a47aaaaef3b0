package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/ingest"
	"minibooks/internal/services"
)

// maxImportSize caps uploaded statement files at 10 MB.
const maxImportSize = 10 << 20

// ImportHandler accepts CSV statement uploads and runs them through the
// ingestion pipeline.
type ImportHandler struct {
	processor services.Processor
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(processor services.Processor) *ImportHandler {
	return &ImportHandler{processor: processor}
}

// ImportResponse wraps the batch statistics of an import run.
type ImportResponse struct {
	Rows  int                 `json:"rows"`
	Stats services.BatchStats `json:"stats"`
}

// Import handles a CSV statement upload
// @Summary     Import a CSV statement
// @Description Parse an uploaded statement export and run each row through the ingestion pipeline
// @Tags        provider
// @Accept      multipart/form-data
// @Produce     json
// @Security    PipelineKeyAuth
// @Param       file formData file true "CSV statement export"
// @Success     200 {object} ImportResponse "Batch statistics"
// @Failure     400 {object} ErrorResponse "Missing or malformed file"
// @Router      /provider/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "missing file upload field 'file'"))
		return
	}
	if fileHeader.Size > maxImportSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file exceeds the 10MB import limit"))
		return
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".csv" && ext != "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "only CSV statement exports are supported"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	rows, err := ingest.ParseStatementCSV(file)
	if err != nil {
		respondWithError(c, err)
		return
	}

	raws := make([]ingest.RawTransaction, 0, len(rows))
	for _, row := range rows {
		if row.ZeroAmount() {
			continue
		}
		raws = append(raws, row)
	}

	stats := h.processor.ProcessBatch(raws)

	c.JSON(http.StatusOK, gin.H{
		"rows":  len(rows),
		"stats": stats,
	})
}
