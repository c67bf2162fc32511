package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/stratushq/tenant_go_server/internal/service"
)

// webhookVerifier verifies the payload signature and parses the event.
type webhookVerifier interface {
	ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type WebhookHandler struct {
	verifier       webhookVerifier
	webhookService *service.WebhookService
}

func NewWebhookHandler(verifier webhookVerifier, webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		verifier:       verifier,
		webhookService: webhookService,
	}
}

// HandleStripe receives processor events. Plain HTTP status codes with a
// minimal JSON body, no envelope: Stripe retries on anything but 2xx.
// Signature failures are 400 with no state touched; processing failures are
// logged and answered 400 so the event is redelivered.
// POST /api/v1/webhooks/stripe
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	const maxBodyBytes = 65536
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	event, err := h.verifier.ConstructWebhookEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Printf("webhook: signature verification failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	if err := h.webhookService.HandleEvent(event); err != nil {
		log.Printf("webhook: handle %s (%s): %v", event.ID, event.Type, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "event processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
