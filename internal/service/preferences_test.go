package service

import (
	"testing"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/testutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PreferencesServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PreferencesService
}

func TestPreferencesService(t *testing.T) {
	suite.Run(t, new(PreferencesServiceSuite))
}

func (s *PreferencesServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPreferencesService(testServiceParams(&s.BaseServiceTestSuite))
}

func (s *PreferencesServiceSuite) TestGetPreferencesDefaults() {
	// users who never saved preferences see the defaults
	resp, err := s.service.GetPreferences(s.GetContext())
	s.NoError(err)
	s.Equal("en-US", resp.Locale)
	s.Equal("USD", resp.DefaultCurrency)
	s.Equal(30, resp.DefaultDueInDays)
	s.Equal("light", resp.Theme)
	s.True(decimal.Zero.Equal(resp.DefaultTaxPercent))
}

func (s *PreferencesServiceSuite) TestUpdatePreferences() {
	resp, err := s.service.UpdatePreferences(s.GetContext(), dto.UpdatePreferencesRequest{
		Locale:            lo.ToPtr("de-DE"),
		DefaultCurrency:   lo.ToPtr("EUR"),
		DefaultTaxPercent: lo.ToPtr(decimal.NewFromInt(19)),
		Theme:             lo.ToPtr("dark"),
	})
	s.NoError(err)
	s.Equal("de-DE", resp.Locale)
	s.Equal("EUR", resp.DefaultCurrency)
	s.Equal("dark", resp.Theme)

	// untouched fields keep their defaults
	s.Equal(30, resp.DefaultDueInDays)

	got, err := s.service.GetPreferences(s.GetContext())
	s.NoError(err)
	s.Equal("de-DE", got.Locale)
	s.Equal(1, got.Version)

	// a second save merges onto the stored row and bumps the version
	_, err = s.service.UpdatePreferences(s.GetContext(), dto.UpdatePreferencesRequest{
		DefaultDueInDays: lo.ToPtr(14),
	})
	s.NoError(err)

	got, err = s.service.GetPreferences(s.GetContext())
	s.NoError(err)
	s.Equal("de-DE", got.Locale)
	s.Equal(14, got.DefaultDueInDays)
	s.Equal(2, got.Version)
}

func (s *PreferencesServiceSuite) TestUpdatePreferencesValidation() {
	tests := []struct {
		name string
		req  dto.UpdatePreferencesRequest
	}{
		{
			name: "bad currency code",
			req:  dto.UpdatePreferencesRequest{DefaultCurrency: lo.ToPtr("EURO")},
		},
		{
			name: "unknown theme",
			req:  dto.UpdatePreferencesRequest{Theme: lo.ToPtr("solarized")},
		},
		{
			name: "negative due days",
			req:  dto.UpdatePreferencesRequest{DefaultDueInDays: lo.ToPtr(-1)},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.UpdatePreferences(s.GetContext(), tt.req)
			s.Error(err)
		})
	}
}
