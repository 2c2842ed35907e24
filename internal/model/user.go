package model

import "time"

// Roles understood by the access layer.  STAFF carries the catalog
// mutation capability and sees every reservation.
const (
	RoleStaff    = "STAFF"
	RoleCustomer = "CUSTOMER"
)

// User represents an application user record as stored in the
// `users` table.  The struct is used by the repository layer;
// handlers expose their own response shapes and never the hash.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – STAFF or CUSTOMER.
//	IsActive     – whether the account may log in.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// IsStaff reports whether the user holds the staff role.
func (u User) IsStaff() bool { return u.Role == RoleStaff }

// RefreshToken models an entry in the `refresh_tokens` table.  Only
// the SHA-256 hash of the token handed to the client is stored.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the token.
//	TokenHash – SHA-256 hex digest of the token value.
//	ExpiresAt – expiration timestamp of the token.
//	RevokedAt – when the token was revoked (nil while active).
//	CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
