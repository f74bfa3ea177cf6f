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

type ContactHandler struct {
	service service.ContactService
	log     *logger.Logger
}

func NewContactHandler(
	service service.ContactService,
	log *logger.Logger,
) *ContactHandler {
	return &ContactHandler{
		service: service,
		log:     log,
	}
}

// @Summary Create a contact
// @Description Create a contact point for a store
// @Tags Contacts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param contact body dto.CreateContactRequest true "Contact"
// @Success 201 {object} dto.ContactResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /contacts [post]
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req dto.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateContact(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a contact
// @Description Get a contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Contact ID"
// @Success 200 {object} dto.ContactResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetContact(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.GetContact(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get contacts
// @Description Get contacts
// @Tags Contacts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param filter query types.ContactFilter false "Filter"
// @Success 200 {object} dto.ListContactsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /contacts [get]
func (h *ContactHandler) GetContacts(c *gin.Context) {
	var filter types.ContactFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if filter.IsUnlimited() {
		filter.Limit = lo.ToPtr(types.FILTER_DEFAULT_LIMIT)
	}

	resp, err := h.service.ListContacts(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update a contact
// @Description Update a contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Contact ID"
// @Param contact body dto.UpdateContactRequest true "Contact"
// @Success 200 {object} dto.ContactResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /contacts/{id} [put]
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateContact(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete a contact
// @Description Delete a contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Contact ID"
// @Success 204
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /contacts/{id} [delete]
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.DeleteContact(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
