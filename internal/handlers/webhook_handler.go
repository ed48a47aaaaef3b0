package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/ingest"
	"minibooks/internal/logger"
	"minibooks/internal/provider"
	"minibooks/internal/services"
)

// signatureHeader carries the provider's HMAC over the raw request body.
const signatureHeader = "X-Signature-SHA256"

// WebhookHandler receives provider webhook deliveries. The delivery is
// acknowledged as soon as the payload is parsed; classification and
// ledger posting continue in the background so the provider never waits
// on the pipeline.
type WebhookHandler struct {
	processor     services.Processor
	webhookSecret string
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(processor services.Processor, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{processor: processor, webhookSecret: webhookSecret}
}

// Receive handles an incoming webhook delivery
// @Summary     Receive a provider webhook
// @Description Verify the delivery signature, acknowledge, and process the transaction asynchronously
// @Tags        provider
// @Accept      json
// @Produce     json
// @Param       X-Signature-SHA256 header string false "HMAC-SHA256 of the raw body"
// @Success     200 {object} MessageResponse "Delivery acknowledged"
// @Failure     400 {object} ErrorResponse "Malformed payload"
// @Failure     401 {object} ErrorResponse "Signature verification failed"
// @Router      /provider/webhook [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "failed to read request body"))
		return
	}

	// The signature covers the raw bytes, so it is checked before any
	// parsing or mutation.
	if h.webhookSecret != "" {
		if !provider.VerifySignature(body, c.GetHeader(signatureHeader), h.webhookSecret) {
			respondWithError(c, apperrors.ErrInvalidSignature)
			return
		}
	} else {
		logger.Get().Warnw("webhook secret not configured, accepting unsigned delivery",
			"path", c.Request.URL.Path)
	}

	event, err := ingest.ParseWebhookEvent(body)
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Test and registration pings are acknowledged without touching the
	// pipeline at all.
	if event.IsPing() {
		c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
		return
	}

	if !event.IsTransactionEvent() {
		logger.Get().Infow("ignoring webhook event", "event_type", event.EventType)
		c.JSON(http.StatusOK, gin.H{"message": "Event ignored"})
		return
	}

	// Acknowledge first. The provider retries on slow responses, and a
	// retry of an already-stored delivery is just an update.
	c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})

	go func() {
		result, err := h.processor.Ingest(event)
		if err != nil {
			logger.Get().Errorw("webhook processing failed",
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return
		}
		logger.Get().Infow("webhook processed",
			"external_id", result.ExternalID,
			"action", result.Action,
			"entry_created", result.EntryCreated,
		)
	}()
}
