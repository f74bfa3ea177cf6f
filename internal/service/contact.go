package service

import (
	"context"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/contact"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// ContactService manages store contact persons
type ContactService interface {
	CreateContact(ctx context.Context, req dto.CreateContactRequest) (*dto.ContactResponse, error)
	GetContact(ctx context.Context, id string) (*dto.ContactResponse, error)
	ListContacts(ctx context.Context, filter *types.ContactFilter) (*dto.ListContactsResponse, error)
	UpdateContact(ctx context.Context, id string, req dto.UpdateContactRequest) (*dto.ContactResponse, error)
	DeleteContact(ctx context.Context, id string) error
}

type contactService struct {
	ServiceParams
	subscriptionService SubscriptionService
}

func NewContactService(params ServiceParams) ContactService {
	return &contactService{
		ServiceParams:       params,
		subscriptionService: NewSubscriptionService(params),
	}
}

func (s *contactService) CreateContact(ctx context.Context, req dto.CreateContactRequest) (*dto.ContactResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// the store must belong to the tenant
	if _, err := s.StoreRepo.Get(ctx, req.StoreID); err != nil {
		return nil, err
	}

	if err := s.checkContactAllowance(ctx, req.StoreID); err != nil {
		return nil, err
	}

	c := req.ToContact(ctx)

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		// only one contact per store can be primary
		if c.IsPrimary {
			if err := s.ContactRepo.ClearPrimary(ctx, c.StoreID); err != nil {
				return err
			}
		}
		return s.ContactRepo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	return &dto.ContactResponse{Contact: c}, nil
}

// checkContactAllowance limits free tier stores to a single contact
func (s *contactService) checkContactAllowance(ctx context.Context, storeID string) error {
	allowed, err := s.subscriptionService.HasFeature(ctx, types.FeatureMultipleContacts)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}

	filter := &types.ContactFilter{
		QueryFilter: *types.NewNoLimitQueryFilter(),
		StoreID:     storeID,
	}
	count, err := s.ContactRepo.Count(ctx, filter)
	if err != nil {
		return err
	}
	if count >= 1 {
		return ierr.NewError("contact limit reached").
			WithHint("Your plan allows one contact per store").
			Mark(ierr.ErrTierLimitExceeded)
	}
	return nil
}

func (s *contactService) GetContact(ctx context.Context, id string) (*dto.ContactResponse, error) {
	c, err := s.ContactRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ContactResponse{Contact: c}, nil
}

func (s *contactService) ListContacts(ctx context.Context, filter *types.ContactFilter) (*dto.ListContactsResponse, error) {
	if filter == nil {
		filter = &types.ContactFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	contacts, err := s.ContactRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.ContactRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(contacts, func(c *contact.Contact, _ int) *dto.ContactResponse {
		return &dto.ContactResponse{Contact: c}
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *contactService) UpdateContact(ctx context.Context, id string, req dto.UpdateContactRequest) (*dto.ContactResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.ContactRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	wasPrimary := c.IsPrimary
	req.Apply(c)

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if c.IsPrimary && !wasPrimary {
			if err := s.ContactRepo.ClearPrimary(ctx, c.StoreID); err != nil {
				return err
			}
		}
		return s.ContactRepo.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	return &dto.ContactResponse{Contact: c}, nil
}

func (s *contactService) DeleteContact(ctx context.Context, id string) error {
	c, err := s.ContactRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.ContactRepo.Delete(ctx, c.ID)
}
