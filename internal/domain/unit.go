package domain

import "time"

// Unit is an organizational unit a requester belongs to. Its manager
// category decides which manager signs off tickets raised from the unit.
type Unit struct {
	ID              string
	Name            string
	Organization    Organization
	ManagerCategory *ManagerCategory
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
