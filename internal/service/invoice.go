package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/invoice"
	"github.com/invora/invora/internal/domain/pdfgen"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	webhookDto "github.com/invora/invora/internal/webhook/dto"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const defaultInvoicePrefix = "INV"

// InvoiceService manages the invoice lifecycle from draft to export
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	UpdateInvoice(ctx context.Context, id string, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, id string) error

	FinalizeInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	MarkInvoicePaid(ctx context.Context, id string, req dto.MarkInvoicePaidRequest) (*dto.InvoiceResponse, error)
	VoidInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)

	ExportInvoice(ctx context.Context, id string, format types.ExportFormat) (*dto.ExportInvoiceResponse, error)
}

type invoiceService struct {
	ServiceParams
	subscriptionService SubscriptionService
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams:       params,
		subscriptionService: NewSubscriptionService(params),
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// retried creates from offline clients return the already stored invoice
	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		existing, err := s.InvoiceRepo.GetByIdempotencyKey(ctx, *req.IdempotencyKey)
		if err == nil {
			return &dto.InvoiceResponse{Invoice: existing}, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	if _, err := s.StoreRepo.Get(ctx, req.StoreID); err != nil {
		return nil, err
	}
	if _, err := s.CustomerRepo.Get(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	if err := s.subscriptionService.CheckInvoiceQuota(ctx); err != nil {
		return nil, err
	}

	inv := req.ToInvoice(ctx)
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.publishWebhookEvent(ctx, string(types.WebhookEventInvoiceCreated), inv.ID)

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = &types.InvoiceFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return &dto.InvoiceResponse{Invoice: inv}
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, id string, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !inv.IsEditable() {
		return nil, ierr.NewError("invoice is not editable").
			WithHintf("Invoices in %s state cannot be edited", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	if req.Version != nil && *req.Version != inv.Version {
		return nil, ierr.NewError("invoice was modified by another device").
			WithHint("Refresh the invoice and retry the update").
			WithReportableDetails(map[string]interface{}{
				"client_version": *req.Version,
				"server_version": inv.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	s.applyUpdate(ctx, inv, req)

	if err := inv.Validate(); err != nil {
		return nil, err
	}

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) applyUpdate(ctx context.Context, inv *invoice.Invoice, req dto.UpdateInvoiceRequest) {
	if req.CustomerID != nil {
		inv.CustomerID = *req.CustomerID
	}
	if req.IssueDate != nil {
		inv.IssueDate = req.IssueDate.UTC()
	}
	if req.DueDate != nil {
		inv.DueDate = req.DueDate
	}
	if req.TaxPercent != nil {
		inv.TaxPercent = *req.TaxPercent
	}
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}

	if len(req.LineItems) > 0 {
		items := make([]*invoice.LineItem, 0, len(req.LineItems))
		for i, itemReq := range req.LineItems {
			sortOrder := itemReq.SortOrder
			if sortOrder == 0 {
				sortOrder = i
			}
			items = append(items, &invoice.LineItem{
				ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LINE_ITEM),
				InvoiceID:   inv.ID,
				Description: itemReq.Description,
				Quantity:    itemReq.Quantity,
				UnitPrice:   itemReq.UnitPrice,
				Currency:    inv.Currency,
				SortOrder:   sortOrder,
				BaseModel:   types.GetDefaultBaseModel(ctx),
			})
		}
		inv.LineItems = items
	}

	inv.Recalculate()
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id string) error {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	// issued invoices stay on record, only drafts may be deleted
	if !inv.IsEditable() {
		return ierr.NewError("only draft invoices can be deleted").
			WithHintf("Invoice is in %s state, void it instead", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	return s.InvoiceRepo.Delete(ctx, inv.ID)
}

func (s *invoiceService) FinalizeInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !inv.InvoiceStatus.CanTransitionTo(types.InvoiceStatusFinalized) {
		return nil, ierr.NewError("invalid invoice state transition").
			WithHintf("Cannot finalize an invoice in %s state", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	if len(inv.LineItems) == 0 {
		return nil, ierr.NewError("invoice has no line items").
			WithHint("Add at least one line item before finalizing").
			Mark(ierr.ErrValidation)
	}

	st, err := s.StoreRepo.Get(ctx, inv.StoreID)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		year := inv.IssueDate.Year()
		seq, err := s.StoreRepo.NextInvoiceSequence(ctx, inv.StoreID, year)
		if err != nil {
			return err
		}

		prefix := st.InvoicePrefix
		if prefix == "" {
			prefix = defaultInvoicePrefix
		}
		number := fmt.Sprintf("%s-%d-%05d", prefix, year, seq)
		now := time.Now().UTC()

		inv.InvoiceNumber = &number
		inv.InvoiceStatus = types.InvoiceStatusFinalized
		inv.FinalizedAt = &now
		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.publishWebhookEvent(ctx, string(types.WebhookEventInvoiceFinalized), inv.ID)

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) MarkInvoicePaid(ctx context.Context, id string, req dto.MarkInvoicePaidRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus != types.InvoiceStatusFinalized {
		return nil, ierr.NewError("invoice is not payable").
			WithHintf("Only finalized invoices accept payments, invoice is %s", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	amount := inv.GetRemainingAmount()
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount.GreaterThan(inv.GetRemainingAmount()) {
		return nil, ierr.NewError("payment exceeds remaining amount").
			WithHintf("At most %s is still owed on this invoice", inv.GetRemainingAmount()).
			Mark(ierr.ErrValidation)
	}

	inv.AmountPaid = inv.AmountPaid.Add(amount)
	inv.AmountRemaining = inv.Total.Sub(inv.AmountPaid)

	if inv.AmountRemaining.Equal(decimal.Zero) {
		paidAt := time.Now().UTC()
		if req.PaidAt != nil {
			paidAt = req.PaidAt.UTC()
		}
		inv.InvoiceStatus = types.InvoiceStatusPaid
		inv.PaidAt = &paidAt
	}

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	if inv.InvoiceStatus == types.InvoiceStatusPaid {
		s.publishWebhookEvent(ctx, string(types.WebhookEventInvoicePaid), inv.ID)
	}

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) VoidInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !inv.InvoiceStatus.CanTransitionTo(types.InvoiceStatusVoided) {
		return nil, ierr.NewError("invalid invoice state transition").
			WithHintf("Cannot void an invoice in %s state", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	inv.InvoiceStatus = types.InvoiceStatusVoided
	inv.VoidedAt = &now

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.publishWebhookEvent(ctx, string(types.WebhookEventInvoiceVoided), inv.ID)

	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) ExportInvoice(ctx context.Context, id string, format types.ExportFormat) (*dto.ExportInvoiceResponse, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	if format == types.ExportFormatJPEG {
		allowed, err := s.subscriptionService.HasFeature(ctx, types.FeatureJPEGExport)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ierr.NewError("jpeg export is not included in your plan").
				WithHint("Upgrade to a premium plan to export invoices as JPEG").
				Mark(ierr.ErrTierLimitExceeded)
		}
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.buildInvoiceData(ctx, inv)
	if err != nil {
		return nil, err
	}

	name := inv.ID
	if inv.InvoiceNumber != nil {
		name = *inv.InvoiceNumber
	}

	switch format {
	case types.ExportFormatJPEG:
		raw, err := s.PDFGenerator.RenderInvoiceJpeg(ctx, data)
		if err != nil {
			return nil, err
		}
		return &dto.ExportInvoiceResponse{
			FileName:    fmt.Sprintf("%s.jpg", name),
			ContentType: "image/jpeg",
			Data:        raw,
		}, nil
	default:
		raw, err := s.PDFGenerator.RenderInvoicePdf(ctx, data)
		if err != nil {
			return nil, err
		}
		return &dto.ExportInvoiceResponse{
			FileName:    fmt.Sprintf("%s.pdf", name),
			ContentType: "application/pdf",
			Data:        raw,
		}, nil
	}
}

func (s *invoiceService) buildInvoiceData(ctx context.Context, inv *invoice.Invoice) (*pdfgen.InvoiceData, error) {
	st, err := s.StoreRepo.Get(ctx, inv.StoreID)
	if err != nil {
		return nil, err
	}

	cust, err := s.CustomerRepo.Get(ctx, inv.CustomerID)
	if err != nil {
		return nil, err
	}

	branded, err := s.subscriptionService.HasFeature(ctx, types.FeatureCustomBranding)
	if err != nil {
		return nil, err
	}

	biller := st.ToPdfgenBillerInfo()
	footer := ""
	if branded {
		biller.LogoURL = st.LogoURL
	} else {
		// free tier documents carry standard branding
		footer = "Generated with Invora"
	}

	data := &pdfgen.InvoiceData{
		ID:              inv.ID,
		CustomerID:      inv.CustomerID,
		InvoiceStatus:   string(inv.InvoiceStatus),
		Currency:        inv.Currency,
		Subtotal:        inv.Subtotal,
		TaxPercent:      inv.TaxPercent,
		TaxAmount:       inv.TaxAmount,
		Total:           inv.Total,
		AmountPaid:      inv.AmountPaid,
		AmountRemaining: inv.AmountRemaining,
		IssueDate:       inv.IssueDate,
		DueDate:         inv.DueDate,
		PaidAt:          inv.PaidAt,
		Notes:           inv.Notes,
		Footer:          footer,
		Biller:          biller,
		Recipient:       cust.ToPdfgenRecipientInfo(),
		LineItems: lo.Map(inv.LineItems, func(item *invoice.LineItem, _ int) pdfgen.LineItemData {
			return pdfgen.LineItemData{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Amount:      item.Amount,
				Currency:    item.Currency,
			}
		}),
	}
	if inv.InvoiceNumber != nil {
		data.InvoiceNumber = *inv.InvoiceNumber
	}

	return data, nil
}

func (s *invoiceService) publishWebhookEvent(ctx context.Context, eventName string, invoiceID string) {
	webhookPayload, err := json.Marshal(webhookDto.InternalInvoiceEvent{
		InvoiceID: invoiceID,
		TenantID:  types.GetTenantID(ctx),
	})
	if err != nil {
		s.Logger.Errorw("failed to marshal webhook payload", "error", err)
		return
	}

	webhookEvent := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK),
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   json.RawMessage(webhookPayload),
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, webhookEvent); err != nil {
		s.Logger.Errorw("failed to publish webhook event",
			"error", err,
			"event_name", eventName)
	}
}
