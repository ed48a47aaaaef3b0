package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/ingest"
	"minibooks/internal/provider"
	"minibooks/internal/services"
)

// defaultSyncWindow is how far back a sync reaches when no range is given.
const defaultSyncWindow = 7 * 24 * time.Hour

// SyncHandler drives the provider API polling path. It is called by a
// scheduler through the pipeline key, not by users.
type SyncHandler struct {
	client    provider.Client
	processor services.Processor
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(client provider.Client, processor services.Processor) *SyncHandler {
	return &SyncHandler{client: client, processor: processor}
}

// SyncRequest represents the optional date range for a sync run.
type SyncRequest struct {
	StartDate *string `json:"start_date"` // YYYY-MM-DD
	EndDate   *string `json:"end_date"`   // YYYY-MM-DD
}

// SyncResponse wraps the batch statistics of a sync run.
type SyncResponse struct {
	Fetched int                 `json:"fetched"`
	Stats   services.BatchStats `json:"stats"`
}

// Sync handles a provider API sync run
// @Summary     Sync transactions from the provider API
// @Description Fetch the provider activity for a date range and run it through the ingestion pipeline
// @Tags        provider
// @Accept      json
// @Produce     json
// @Security    PipelineKeyAuth
// @Param       request body SyncRequest false "Date range (defaults to the last 7 days)"
// @Success     200 {object} SyncResponse "Batch statistics"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     502 {object} ErrorResponse "Provider fetch failed"
// @Router      /provider/sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	var req SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	end := time.Now().UTC()
	start := end.Add(-defaultSyncWindow)

	if req.StartDate != nil && *req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date format, use YYYY-MM-DD"))
			return
		}
		start = parsed
	}
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date format, use YYYY-MM-DD"))
			return
		}
		// Include the whole end day.
		end = parsed.Add(24*time.Hour - time.Second)
	}
	if end.Before(start) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date must not precede start_date"))
		return
	}

	rows, err := h.client.FetchTransactionsInRange(c.Request.Context(), start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	raws := make([]ingest.RawTransaction, 0, len(rows))
	for i := range rows {
		// Zero-amount rows are balance notifications, not money movement.
		if rows[i].Amount.Value.IsZero() {
			continue
		}
		raws = append(raws, &rows[i])
	}

	stats := h.processor.ProcessBatch(raws)

	c.JSON(http.StatusOK, gin.H{
		"fetched": len(rows),
		"stats":   stats,
	})
}
