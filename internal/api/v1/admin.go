package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invora/invora/internal/api/dto"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/service"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

type AdminHandler struct {
	service service.AdminService
	log     *logger.Logger
}

func NewAdminHandler(
	service service.AdminService,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log,
	}
}

// @Summary List stores across tenants
// @Description List stores across all tenants, back office only
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param filter query types.StoreFilter false "Filter"
// @Success 200 {object} dto.ListStoresResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /admin/stores [get]
func (h *AdminHandler) GetAllStores(c *gin.Context) {
	var filter types.StoreFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if filter.IsUnlimited() {
		filter.Limit = lo.ToPtr(types.FILTER_DEFAULT_LIMIT)
	}

	resp, err := h.service.ListAllStores(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List subscriptions across tenants
// @Description List subscriptions across all tenants, back office only
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param filter query types.SubscriptionFilter false "Filter"
// @Success 200 {object} dto.ListSubscriptionsResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /admin/subscriptions [get]
func (h *AdminHandler) GetAllSubscriptions(c *gin.Context) {
	var filter types.SubscriptionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if filter.IsUnlimited() {
		filter.Limit = lo.ToPtr(types.FILTER_DEFAULT_LIMIT)
	}

	resp, err := h.service.ListAllSubscriptions(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get sync queue depth
// @Description Get pending sync operation counts per device across tenants
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.SyncQueueDepthResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /admin/sync/queue [get]
func (h *AdminHandler) GetSyncQueueDepth(c *gin.Context) {
	resp, err := h.service.GetSyncQueueDepth(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Create a plan
// @Description Create a subscription tier, back office only
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param plan body dto.CreatePlanRequest true "Plan"
// @Success 201 {object} dto.PlanResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /admin/plans [post]
func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreatePlan(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Update a plan
// @Description Update a subscription tier, back office only
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Plan ID"
// @Param plan body dto.UpdatePlanRequest true "Plan"
// @Success 200 {object} dto.PlanResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /admin/plans/{id} [put]
func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdatePlan(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
