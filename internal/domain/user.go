package domain

import "time"

// User models every account in the system: requesters, managers, directors
// and admins are distinguished by Role, not by separate tables.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	// InitialPassword holds the escrowed first password so the verification
	// mail can include it; cleared once the mail goes out.
	InitialPassword *string
	// SignCodeHash is the bcrypt hash of the short approval PIN. Distinct
	// from the login password; nil until the user saves a code.
	SignCodeHash    *string
	Role            Role
	ManagerCategory *ManagerCategory
	Organization    Organization
	UnitID          *string
	VerifiedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsVerified reports whether an admin has verified the account. Unverified
// accounts cannot log in or submit tickets.
func (u *User) IsVerified() bool {
	return u != nil && u.VerifiedAt != nil
}

// HasSignCode reports whether an approval PIN is on file.
func (u *User) HasSignCode() bool {
	return u != nil && u.SignCodeHash != nil && *u.SignCodeHash != ""
}
