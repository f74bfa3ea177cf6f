package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/customer"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	webhookDto "github.com/invora/invora/internal/webhook/dto"
	"github.com/samber/lo"
)

// CustomerService manages the people and businesses invoices are issued to
type CustomerService interface {
	CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	GetCustomer(ctx context.Context, id string) (*dto.CustomerResponse, error)
	GetCustomerByExternalID(ctx context.Context, externalID string) (*dto.CustomerResponse, error)
	ListCustomers(ctx context.Context, filter *types.CustomerFilter) (*dto.ListCustomersResponse, error)
	UpdateCustomer(ctx context.Context, id string, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)
	DeleteCustomer(ctx context.Context, id string) error
}

type customerService struct {
	ServiceParams
}

func NewCustomerService(params ServiceParams) CustomerService {
	return &customerService{ServiceParams: params}
}

func (s *customerService) CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.StoreRepo.Get(ctx, req.StoreID); err != nil {
		return nil, err
	}

	cust := req.ToCustomer(ctx)
	if err := cust.Validate(); err != nil {
		return nil, err
	}

	if err := s.CustomerRepo.Create(ctx, cust); err != nil {
		return nil, err
	}

	s.publishWebhookEvent(ctx, string(types.WebhookEventCustomerCreated), cust.ID)

	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	cust, err := s.CustomerRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) GetCustomerByExternalID(ctx context.Context, externalID string) (*dto.CustomerResponse, error) {
	if externalID == "" {
		return nil, ierr.NewError("external id is required").
			WithHint("External ID cannot be empty").
			Mark(ierr.ErrValidation)
	}

	cust, err := s.CustomerRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) ListCustomers(ctx context.Context, filter *types.CustomerFilter) (*dto.ListCustomersResponse, error) {
	if filter == nil {
		filter = &types.CustomerFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	customers, err := s.CustomerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.CustomerRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(customers, func(c *customer.Customer, _ int) *dto.CustomerResponse {
		return &dto.CustomerResponse{Customer: c}
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id string, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cust, err := s.CustomerRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// a stale client version means the server state moved past what the
	// client last saw
	if req.Version != nil && *req.Version != cust.Version {
		return nil, ierr.NewError("customer was modified by another device").
			WithHint("Refresh the customer and retry the update").
			WithReportableDetails(map[string]interface{}{
				"client_version": *req.Version,
				"server_version": cust.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	req.Apply(cust)

	if err := cust.Validate(); err != nil {
		return nil, err
	}

	if err := s.CustomerRepo.Update(ctx, cust); err != nil {
		return nil, err
	}

	s.publishWebhookEvent(ctx, string(types.WebhookEventCustomerUpdated), cust.ID)

	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	cust, err := s.CustomerRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	// customers with invoices keep their history, the row is soft deleted
	if err := s.CustomerRepo.Delete(ctx, cust.ID); err != nil {
		return err
	}

	s.publishWebhookEvent(ctx, string(types.WebhookEventCustomerDeleted), cust.ID)
	return nil
}

func (s *customerService) publishWebhookEvent(ctx context.Context, eventName string, customerID string) {
	webhookPayload, err := json.Marshal(webhookDto.InternalCustomerEvent{
		CustomerID: customerID,
		TenantID:   types.GetTenantID(ctx),
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
