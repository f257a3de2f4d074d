package service

import (
	"context"
	"strings"

	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/repository"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// UnitService manages hospital units.
type UnitService struct {
	units repository.UnitRepository
}

// UnitInput carries unit fields for create and update.
type UnitInput struct {
	Name            string
	Organization    domain.Organization
	ManagerCategory *domain.ManagerCategory
	IsActive        bool
}

// NewUnitService constructs the service.
func NewUnitService(units repository.UnitRepository) *UnitService {
	return &UnitService{units: units}
}

// CreateUnit adds a unit.
func (s *UnitService) CreateUnit(ctx context.Context, input UnitInput) (*domain.Unit, error) {
	if err := validateUnitInput(&input); err != nil {
		return nil, err
	}
	unit := &domain.Unit{
		Name:            input.Name,
		Organization:    input.Organization,
		ManagerCategory: input.ManagerCategory,
		IsActive:        input.IsActive,
	}
	if err := s.units.Create(ctx, unit); err != nil {
		return nil, apperrors.MapError(err)
	}
	return unit, nil
}

// UpdateUnit edits a unit. Tickets keep their snapshotted category: editing a
// unit never reroutes in-flight approvals.
func (s *UnitService) UpdateUnit(ctx context.Context, id string, input UnitInput) (*domain.Unit, error) {
	if err := validateUnitInput(&input); err != nil {
		return nil, err
	}
	unit, err := s.units.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	unit.Name = input.Name
	unit.Organization = input.Organization
	unit.ManagerCategory = input.ManagerCategory
	unit.IsActive = input.IsActive
	if err := s.units.Update(ctx, unit); err != nil {
		return nil, apperrors.MapError(err)
	}
	return unit, nil
}

// ListUnits returns units for the admin screen.
func (s *UnitService) ListUnits(ctx context.Context, limit, offset int) ([]domain.Unit, error) {
	units, err := s.units.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return units, nil
}

// ListActiveUnits returns the units selectable during registration.
func (s *UnitService) ListActiveUnits(ctx context.Context) ([]domain.Unit, error) {
	units, err := s.units.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return units, nil
}

// DeleteUnit removes a unit unless accounts still reference it.
func (s *UnitService) DeleteUnit(ctx context.Context, id string) error {
	inUse, err := s.units.HasUsers(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if inUse {
		return apperrors.NewConflict("unit masih digunakan oleh pengguna", nil)
	}
	if err := s.units.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func validateUnitInput(input *UnitInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return apperrors.NewValidationError("nama unit wajib diisi", nil)
	}
	if !input.Organization.Valid() {
		return apperrors.NewValidationError("organisasi tidak dikenali", nil)
	}
	if input.ManagerCategory != nil {
		if _, ok := domain.CategoryFromMixed(*input.ManagerCategory); !ok {
			return apperrors.NewValidationError("kategori manager tidak dikenali", nil)
		}
	}
	return nil
}
