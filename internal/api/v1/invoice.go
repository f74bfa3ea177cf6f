package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invora/invora/internal/api/dto"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/service"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

type InvoiceHandler struct {
	service service.InvoiceService
	log     *logger.Logger
}

func NewInvoiceHandler(
	service service.InvoiceService,
	log *logger.Logger,
) *InvoiceHandler {
	return &InvoiceHandler{
		service: service,
		log:     log,
	}
}

// @Summary Create an invoice
// @Description Create a draft invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param invoice body dto.CreateInvoiceRequest true "Invoice"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 402 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get an invoice
// @Description Get an invoice with its line items
// @Tags Invoices
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get invoices
// @Description Get invoices
// @Tags Invoices
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param filter query types.InvoiceFilter false "Filter"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) GetInvoices(c *gin.Context) {
	var filter types.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if filter.IsUnlimited() {
		filter.Limit = lo.ToPtr(types.FILTER_DEFAULT_LIMIT)
	}

	resp, err := h.service.ListInvoices(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update an invoice
// @Description Update a draft invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Invoice ID"
// @Param invoice body dto.UpdateInvoiceRequest true "Invoice"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateInvoice(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete an invoice
// @Description Delete a draft invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Invoice ID"
// @Success 204
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.DeleteInvoice(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Finalize an invoice
// @Description Finalize a draft invoice and assign its invoice number
// @Tags Invoices
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{id}/finalize [post]
func (h *InvoiceHandler) FinalizeInvoice(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.FinalizeInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Record a payment on an invoice
// @Description Record a full or partial payment against a finalized invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Invoice ID"
// @Param payment body dto.MarkInvoicePaidRequest true "Payment"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{id}/payments [post]
func (h *InvoiceHandler) MarkInvoicePaid(c *gin.Context) {
	id := c.Param("id")

	var req dto.MarkInvoicePaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.MarkInvoicePaid(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Void an invoice
// @Description Void a finalized invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{id}/void [post]
func (h *InvoiceHandler) VoidInvoice(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.VoidInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Export an invoice as PDF
// @Description Render the invoice document as a PDF download
// @Tags Invoices
// @Produce application/pdf
// @Security ApiKeyAuth
// @Param id path string true "Invoice ID"
// @Success 200 {file} binary
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{id}/pdf [get]
func (h *InvoiceHandler) GetInvoicePDF(c *gin.Context) {
	h.exportInvoice(c, types.ExportFormatPDF)
}

// @Summary Export an invoice as JPEG
// @Description Render the invoice document as a JPEG image, premium plans only
// @Tags Invoices
// @Produce image/jpeg
// @Security ApiKeyAuth
// @Param id path string true "Invoice ID"
// @Success 200 {file} binary
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 402 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{id}/image [get]
func (h *InvoiceHandler) GetInvoiceImage(c *gin.Context) {
	h.exportInvoice(c, types.ExportFormatJPEG)
}

func (h *InvoiceHandler) exportInvoice(c *gin.Context, format types.ExportFormat) {
	id := c.Param("id")

	resp, err := h.service.ExportInvoice(c.Request.Context(), id, format)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resp.FileName))
	c.Data(http.StatusOK, resp.ContentType, resp.Data)
}
