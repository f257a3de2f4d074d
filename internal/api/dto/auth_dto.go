package dto

import (
	"time"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

// RegisterRequest payload for self-registration.
type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	UnitID       string `json:"unit_id"`
	Organization string `json:"organization"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload for password rotation.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SignCodeRequest payload for saving the approval PIN.
type SignCodeRequest struct {
	Password string `json:"password"`
	SignCode string `json:"sign_code"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the account shape returned by the API. Credential hashes
// never leave the service.
type UserResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	Role            int        `json:"role"`
	RoleLabel       string     `json:"role_label"`
	ManagerCategory *int       `json:"manager_category,omitempty"`
	CategoryLabel   string     `json:"category_label,omitempty"`
	Organization    string     `json:"organization"`
	UnitID          *string    `json:"unit_id,omitempty"`
	Verified        bool       `json:"verified"`
	HasSignCode     bool       `json:"has_sign_code"`
	CreatedAt       time.Time  `json:"created_at"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
}

// FromUser maps a domain user to its API shape.
func FromUser(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         int(u.Role),
		RoleLabel:    u.Role.Label(),
		Organization: string(u.Organization),
		UnitID:       u.UnitID,
		Verified:     u.IsVerified(),
		HasSignCode:  u.HasSignCode(),
		CreatedAt:    u.CreatedAt,
		VerifiedAt:   u.VerifiedAt,
	}
	if u.ManagerCategory != nil {
		category := int(*u.ManagerCategory)
		resp.ManagerCategory = &category
		resp.CategoryLabel = u.ManagerCategory.Label()
	}
	return resp
}

// FromUsers maps a slice of users.
func FromUsers(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, FromUser(&users[i]))
	}
	return out
}
