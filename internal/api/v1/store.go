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

type StoreHandler struct {
	service service.StoreService
	log     *logger.Logger
}

func NewStoreHandler(
	service service.StoreService,
	log *logger.Logger,
) *StoreHandler {
	return &StoreHandler{
		service: service,
		log:     log,
	}
}

// @Summary Create a store
// @Description Create a store (business profile)
// @Tags Stores
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param store body dto.CreateStoreRequest true "Store"
// @Success 201 {object} dto.StoreResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /stores [post]
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req dto.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateStore(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a store
// @Description Get a store
// @Tags Stores
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Store ID"
// @Success 200 {object} dto.StoreResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /stores/{id} [get]
func (h *StoreHandler) GetStore(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.GetStore(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get the default store
// @Description Get the tenant's default store
// @Tags Stores
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.StoreResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /stores/default [get]
func (h *StoreHandler) GetDefaultStore(c *gin.Context) {
	resp, err := h.service.GetDefaultStore(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get stores
// @Description Get stores
// @Tags Stores
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param filter query types.StoreFilter false "Filter"
// @Success 200 {object} dto.ListStoresResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /stores [get]
func (h *StoreHandler) GetStores(c *gin.Context) {
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

	resp, err := h.service.ListStores(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update a store
// @Description Update a store
// @Tags Stores
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Store ID"
// @Param store body dto.UpdateStoreRequest true "Store"
// @Success 200 {object} dto.StoreResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /stores/{id} [put]
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateStore(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete a store
// @Description Delete a store
// @Tags Stores
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Store ID"
// @Success 204
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /stores/{id} [delete]
func (h *StoreHandler) DeleteStore(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.DeleteStore(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
