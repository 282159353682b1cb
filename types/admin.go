package types

import "time"

// RoleAdmin is the only role known to the registry.
const RoleAdmin = "admin"

// Admin represents an administrator login identity.
type Admin struct {
	// ID is the unique identifier of the administrator.
	ID int `json:"id" db:"id"`

	// Username is the unique login name.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the bcrypt hash of the password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Role is the authorization level of the account. Always RoleAdmin.
	Role string `json:"role" db:"role"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
