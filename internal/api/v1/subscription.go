package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/service"
)

type SubscriptionHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

func NewSubscriptionHandler(
	service service.SubscriptionService,
	log *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		log:     log,
	}
}

// @Summary Get the current subscription
// @Description Get the tenant's current subscription and plan
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/current [get]
func (h *SubscriptionHandler) GetCurrentSubscription(c *gin.Context) {
	resp, err := h.service.GetCurrentSubscription(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get entitlements
// @Description Get the tenant's effective plan limits and current usage
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.EntitlementResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/entitlements [get]
func (h *SubscriptionHandler) GetEntitlements(c *gin.Context) {
	resp, err := h.service.GetEntitlements(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get plans
// @Description Get the available subscription tiers
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.ListPlansResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /plans [get]
func (h *SubscriptionHandler) GetPlans(c *gin.Context) {
	resp, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel the current subscription
// @Description Flag the current subscription to lapse at period end
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/current/cancel [post]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	resp, err := h.service.CancelSubscription(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
