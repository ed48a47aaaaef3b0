package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/pagination"
	"minibooks/internal/services"
)

// ReviewHandler exposes the manual review workflow over transactions the
// pipeline held back.
type ReviewHandler struct {
	reviewService services.ReviewServicer
	classifier    services.Classifier
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService services.ReviewServicer, classifier services.Classifier) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, classifier: classifier}
}

// List returns the review queue
// @Summary     List transactions for review
// @Description Get a paginated list of provider transactions, least confident first
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       offset         query int    false "Pagination offset"
// @Param       limit          query int    false "Page size (default 50, max 200)"
// @Param       status         query string false "Filter by sync status (pending, processed, failed, skipped)"
// @Param       needs_review   query bool   false "Filter by the needs-review flag"
// @Param       min_confidence query int    false "Minimum confidence score (unclassified rows are kept)"
// @Param       max_confidence query int    false "Maximum confidence score (unclassified rows are kept)"
// @Param       currency       query string false "Filter by ISO 4217 currency"
// @Param       direction      query string false "Filter by direction (DEBIT, CREDIT)"
// @Param       from_date      query string false "Filter by earliest transaction date (YYYY-MM-DD)"
// @Param       to_date        query string false "Filter by latest transaction date (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.ProviderTransaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /provider/review [get]
func (h *ReviewHandler) List(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.ReviewFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.reviewService.ListForReview(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Approve posts a held transaction to the ledger
// @Summary     Approve a transaction
// @Description Create a ledger entry for a held transaction, optionally overriding the classified category or employee
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                       true  "Provider transaction ID"
// @Param       request body services.ApproveOverrides false "Classification overrides"
// @Success     200 {object} models.ProviderTransaction "Approved transaction with its entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Transaction already has an entry"
// @Router      /provider/review/{id}/approve [post]
func (h *ReviewHandler) Approve(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var overrides services.ApproveOverrides
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&overrides); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	transaction, err := h.reviewService.Approve(id, overrides, reviewerEmail(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// RejectRequest represents the optional rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// Reject marks a held transaction as skipped
// @Summary     Reject a transaction
// @Description Mark a held transaction as skipped so it never posts to the ledger
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int           true  "Provider transaction ID"
// @Param       request body RejectRequest false "Rejection reason"
// @Success     200 {object} models.ProviderTransaction "Rejected transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Transaction already has an entry"
// @Router      /provider/review/{id}/reject [post]
func (h *ReviewHandler) Reject(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	transaction, err := h.reviewService.Reject(id, req.Reason, reviewerEmail(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// BulkApproveRequest represents a bulk approval payload.
type BulkApproveRequest struct {
	TransactionIDs []uint                    `json:"transaction_ids" binding:"required,min=1,max=100"`
	Overrides      services.ApproveOverrides `json:"overrides"`
}

// BulkApprove approves a batch of transactions
// @Summary     Bulk approve transactions
// @Description Approve up to 100 held transactions in one request; failures are reported per transaction
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkApproveRequest true "Transaction IDs and shared overrides"
// @Success     200 {object} services.BulkResult "Per-transaction outcome"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /provider/review/bulk-approve [post]
func (h *ReviewHandler) BulkApprove(c *gin.Context) {
	var req BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result := h.reviewService.BulkApprove(req.TransactionIDs, req.Overrides, reviewerEmail(c))
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// BulkRejectRequest represents a bulk rejection payload.
type BulkRejectRequest struct {
	TransactionIDs []uint `json:"transaction_ids" binding:"required,min=1,max=100"`
	Reason         string `json:"reason" binding:"max=500"`
}

// BulkReject rejects a batch of transactions
// @Summary     Bulk reject transactions
// @Description Reject up to 100 held transactions in one request; failures are reported per transaction
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkRejectRequest true "Transaction IDs and shared reason"
// @Success     200 {object} services.BulkResult "Per-transaction outcome"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /provider/review/bulk-reject [post]
func (h *ReviewHandler) BulkReject(c *gin.Context) {
	var req BulkRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result := h.reviewService.BulkReject(req.TransactionIDs, req.Reason, reviewerEmail(c))
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// UpdateClassification corrects a stored classification
// @Summary     Update a classification
// @Description Manually correct the category, matched employee, or review flag of a stored transaction
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                           true "Provider transaction ID"
// @Param       request body services.ClassificationUpdate true "Fields to change"
// @Success     200 {object} models.ProviderTransaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /provider/review/{id}/classification [patch]
func (h *ReviewHandler) UpdateClassification(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var updates services.ClassificationUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, err := h.reviewService.UpdateClassification(id, updates, reviewerEmail(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// Stats returns review queue statistics
// @Summary     Get review statistics
// @Description Get queue depth, low-confidence count, approvals today, and average confidence
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.ReviewStats "Queue statistics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /provider/review/stats [get]
func (h *ReviewHandler) Stats(c *gin.Context) {
	stats, err := h.reviewService.Stats()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Suggestions returns candidate classifications for a transaction
// @Summary     Get classification suggestions
// @Description Get up to three candidate categories for a held transaction, strongest first
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Provider transaction ID"
// @Success     200 {object} MessageResponse "Candidate classifications"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /provider/review/{id}/suggestions [get]
func (h *ReviewHandler) Suggestions(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.reviewService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	suggestions := h.classifier.SuggestCategories(transaction)
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
