package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Dwisantra/simpefov2/internal/auth"
	"github.com/Dwisantra/simpefov2/internal/config"
	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/repository"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// AuthService coordinates registration, login and credential management.
type AuthService struct {
	users      repository.UserRepository
	units      repository.UnitRepository
	tokenMgr   *auth.TokenManager
	revoked    *auth.RevocationStore
	bcryptCost int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	UnitRepo   repository.UnitRepository
	Revocation *auth.RevocationStore
}

// RegisterInput describes a self-registration request.
type RegisterInput struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	UnitID       string
	Organization domain.Organization
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		units:      deps.UnitRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		revoked:    deps.Revocation,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a requester account pending admin verification. The
// plaintext initial password is escrowed so an admin can relay it; it is
// wiped on the first password change.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Name == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("nama, email dan password wajib diisi", nil)
	}
	if !input.Organization.Valid() {
		return nil, apperrors.NewValidationError("organisasi tidak dikenali", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email sudah terdaftar", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	unit, err := s.units.GetByID(ctx, input.UnitID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !unit.IsActive {
		return nil, apperrors.NewValidationError("unit tidak aktif", nil)
	}
	if unit.Organization != input.Organization {
		return nil, apperrors.NewValidationError("unit tidak sesuai organisasi", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	initial := input.Password
	user := &domain.User{
		Name:            strings.TrimSpace(input.Name),
		Email:           email,
		Phone:           strings.TrimSpace(input.Phone),
		PasswordHash:    hash,
		InitialPassword: &initial,
		Role:            domain.RoleRequester,
		Organization:    input.Organization,
		UnitID:          &unit.ID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates a verified account and issues a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("email atau password salah")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("email atau password salah")
	}
	if !user.IsVerified() {
		return nil, "", time.Time{}, apperrors.NewForbidden("akun belum diverifikasi")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// Logout revokes the presented token for its remaining lifetime.
func (s *AuthService) Logout(ctx context.Context, tokenID string) error {
	if err := s.revoked.Revoke(ctx, tokenID, s.tokenMgr.TTL()); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// ChangePassword verifies the current password before updating, which also
// clears the escrowed initial password.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password baru minimal 8 karakter", nil)
	}
	if err := auth.ComparePassword(actor.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("password saat ini salah")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, actor.ID, hash); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// SetSignCode stores the approval PIN for the caller. Setting it requires the
// account password so a hijacked session cannot silently rotate the PIN.
func (s *AuthService) SetSignCode(ctx context.Context, actor *domain.User, password, signCode string) error {
	if len(signCode) < 4 {
		return apperrors.NewValidationError("kode tanda tangan minimal 4 karakter", nil)
	}
	if err := auth.ComparePassword(actor.PasswordHash, password); err != nil {
		return apperrors.NewUnauthorized("password salah")
	}
	hash, err := auth.HashSignCode(signCode, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdateSignCode(ctx, actor.ID, hash); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
