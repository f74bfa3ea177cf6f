package service

import (
	"context"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/preferences"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
)

// PreferencesService manages per user app settings
type PreferencesService interface {
	GetPreferences(ctx context.Context) (*dto.PreferencesResponse, error)
	UpdatePreferences(ctx context.Context, req dto.UpdatePreferencesRequest) (*dto.PreferencesResponse, error)
}

type preferencesService struct {
	ServiceParams
}

func NewPreferencesService(params ServiceParams) PreferencesService {
	return &preferencesService{ServiceParams: params}
}

func (s *preferencesService) GetPreferences(ctx context.Context) (*dto.PreferencesResponse, error) {
	userID := types.GetUserID(ctx)

	prefs, err := s.PreferencesRepo.GetByUserID(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			// users who never saved preferences see the defaults
			return &dto.PreferencesResponse{Preferences: preferences.Default(userID)}, nil
		}
		return nil, err
	}

	return &dto.PreferencesResponse{Preferences: prefs}, nil
}

func (s *preferencesService) UpdatePreferences(ctx context.Context, req dto.UpdatePreferencesRequest) (*dto.PreferencesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)

	current, err := s.PreferencesRepo.GetByUserID(ctx, userID)
	if err != nil {
		if !ierr.IsNotFound(err) {
			return nil, err
		}
		current = preferences.Default(userID)
	}

	prefs := req.ToPreferences(ctx, current)
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	if err := s.PreferencesRepo.Upsert(ctx, prefs); err != nil {
		return nil, err
	}

	return &dto.PreferencesResponse{Preferences: prefs}, nil
}
