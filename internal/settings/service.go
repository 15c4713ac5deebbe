package settings

import (
	"context"
	"errors"
)

// ErrInvalidTaxMode indicates an unknown tax mode value.
var ErrInvalidTaxMode = errors.New("settings: invalid tax mode")

// Service coordinates settings access.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (Settings, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, st Settings) (Settings, error) {
	if st.TaxMode == "" {
		st.TaxMode = TaxModeKleinunternehmer
	}
	if st.TaxMode != TaxModeKleinunternehmer && st.TaxMode != TaxModeRegular {
		return Settings{}, ErrInvalidTaxMode
	}
	if st.BusinessName == "" {
		st.BusinessName = Default().BusinessName
	}
	if err := s.repo.Save(ctx, st); err != nil {
		return Settings{}, err
	}
	return s.repo.Get(ctx)
}
