package dto

import (
	"time"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

// UserUpdateRequest carries admin account edits. Absent fields stay as-is.
type UserUpdateRequest struct {
	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	Role            *int    `json:"role"`
	ManagerCategory *int    `json:"manager_category"`
	Organization    *string `json:"organization"`
	UnitID          *string `json:"unit_id"`
	ClearUnit       bool    `json:"clear_unit"`
}

// UnitRequest carries unit fields for create and update.
type UnitRequest struct {
	Name            string `json:"name"`
	Organization    string `json:"organization"`
	ManagerCategory *int   `json:"manager_category"`
	IsActive        *bool  `json:"is_active"`
}

// UnitResponse is the API shape of a unit.
type UnitResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Organization    string    `json:"organization"`
	ManagerCategory *int      `json:"manager_category,omitempty"`
	CategoryLabel   string    `json:"category_label,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FromUnit maps a unit.
func FromUnit(u *domain.Unit) UnitResponse {
	resp := UnitResponse{
		ID:           u.ID,
		Name:         u.Name,
		Organization: string(u.Organization),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.ManagerCategory != nil {
		category := int(*u.ManagerCategory)
		resp.ManagerCategory = &category
		resp.CategoryLabel = u.ManagerCategory.Label()
	}
	return resp
}

// FromUnits maps a slice of units.
func FromUnits(units []domain.Unit) []UnitResponse {
	out := make([]UnitResponse, 0, len(units))
	for i := range units {
		out = append(out, FromUnit(&units[i]))
	}
	return out
}
