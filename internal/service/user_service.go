package service

import (
	"context"
	"time"

	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/events"
	"github.com/Dwisantra/simpefov2/internal/repository"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// UserService covers admin account management and verification.
type UserService struct {
	users      repository.UserRepository
	units      repository.UnitRepository
	dispatcher events.Dispatcher
}

// UserDependencies bundles collaborators.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	UnitRepo   repository.UnitRepository
	Dispatcher events.Dispatcher
}

// UserUpdateInput carries admin-editable account fields. Nil pointers leave
// the field untouched.
type UserUpdateInput struct {
	Name            *string
	Phone           *string
	Role            *domain.Role
	ManagerCategory *domain.ManagerCategory
	Organization    *domain.Organization
	UnitID          *string
	ClearUnit       bool
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		units:      deps.UnitRepo,
		dispatcher: deps.Dispatcher,
	}
}

// ListUsers returns accounts for the admin screen.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// GetUser fetches one account.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateUser applies admin edits. Changing role away from Manager drops the
// category; changing organization drops a unit that no longer matches.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Role != nil {
		role, ok := domain.RoleFromMixed(*input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("peran tidak dikenali", nil)
		}
		user.Role = role
	}
	if input.ManagerCategory != nil {
		category, ok := domain.CategoryFromMixed(*input.ManagerCategory)
		if !ok {
			return nil, apperrors.NewValidationError("kategori manager tidak dikenali", nil)
		}
		user.ManagerCategory = &category
	}
	if user.Role != domain.RoleManager {
		user.ManagerCategory = nil
	}
	if input.Organization != nil {
		if !input.Organization.Valid() {
			return nil, apperrors.NewValidationError("organisasi tidak dikenali", nil)
		}
		user.Organization = *input.Organization
	}
	if input.ClearUnit {
		user.UnitID = nil
	} else if input.UnitID != nil {
		unit, err := s.units.GetByID(ctx, *input.UnitID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if unit.Organization != user.Organization {
			return nil, apperrors.NewValidationError("unit tidak sesuai organisasi", nil)
		}
		user.UnitID = &unit.ID
	}

	// A unit from the old organization cannot stay attached after an org move.
	if user.UnitID != nil && input.Organization != nil && input.UnitID == nil {
		unit, err := s.units.GetByID(ctx, *user.UnitID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if unit.Organization != user.Organization {
			user.UnitID = nil
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// VerifyUser marks an account as verified, unlocking login and submissions.
func (s *UserService) VerifyUser(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if user.IsVerified() {
		return nil, apperrors.NewConflict("akun sudah diverifikasi", nil)
	}

	now := time.Now()
	user.VerifiedAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	// The escrowed password has served its purpose once the verification
	// notification goes out.
	if err := s.users.ClearInitialPassword(ctx, user.ID); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:  events.EventUserVerified,
		Actor: events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.UserVerifiedPayload{
			VerifiedUserID: user.ID,
			Role:           user.Role,
		},
	})
	return user, nil
}
