package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/service"
)

type WebhookHandler struct {
	payments service.PaymentService
	log      *logger.Logger
}

func NewWebhookHandler(
	payments service.PaymentService,
	log *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		payments: payments,
		log:      log,
	}
}

// @Summary Payment provider webhook
// @Description Receive a signed event from the payment provider. Replays of
// @Description an already processed event are acknowledged without effect.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /webhooks/payment [post]
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Unable to read the webhook body").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.payments.HandleProviderEvent(c.Request.Context(), payload, signature); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
