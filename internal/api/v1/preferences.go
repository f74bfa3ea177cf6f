package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invora/invora/internal/api/dto"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/service"
)

type PreferencesHandler struct {
	service service.PreferencesService
	log     *logger.Logger
}

func NewPreferencesHandler(
	service service.PreferencesService,
	log *logger.Logger,
) *PreferencesHandler {
	return &PreferencesHandler{
		service: service,
		log:     log,
	}
}

// @Summary Get preferences
// @Description Get the current user's preferences, defaults when never saved
// @Tags Preferences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.PreferencesResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /preferences [get]
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	resp, err := h.service.GetPreferences(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update preferences
// @Description Update the current user's preferences
// @Tags Preferences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param preferences body dto.UpdatePreferencesRequest true "Preferences"
// @Success 200 {object} dto.PreferencesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /preferences [put]
func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	var req dto.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdatePreferences(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
