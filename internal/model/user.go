package model

import "time"

// Role is the authorization level of a user. The set is closed.
type Role string

const (
	RoleUser            Role = "USER"
	RoleRestaurantAdmin Role = "RESTAURANT_ADMIN"
	RoleSuperAdmin      Role = "SUPERADMIN"
)

// Roles lists every valid role, lowest privilege first.
var Roles = []Role{RoleUser, RoleRestaurantAdmin, RoleSuperAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleRestaurantAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// HasRole reports whether role is a member of permitted. It is the pure
// predicate behind the role gate middleware.
func HasRole(role Role, permitted ...Role) bool {
	for _, p := range permitted {
		if role == p {
			return true
		}
	}
	return false
}

// User mirrors a row of the `users` table.
//
// Fields:
//
//	ID                    – primary key, immutable.
//	Name, Username        – profile; Username is unique.
//	Email                 – unique, stored lower-cased.
//	Phone                 – free-form phone number.
//	PasswordHash          – bcrypt hash, never empty.
//	Role                  – one of Roles.
//	RestaurantID          – restaurant managed by a RESTAURANT_ADMIN (nullable).
//	RefreshTokenHash      – SHA-256 of the single active refresh token ("" when logged out).
//	RefreshTokenExpiresAt – expiry of that token (nullable).
type User struct {
	ID                    uint64
	Name                  string
	Username              string
	Email                 string
	Phone                 string
	PasswordHash          string
	Role                  Role
	RestaurantID          *uint64
	RefreshTokenHash      string
	RefreshTokenExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// PublicUser is the projection returned to clients. It never carries the
// password hash or token material.
type PublicUser struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Role         Role    `json:"role"`
	RestaurantID *uint64 `json:"restaurantId,omitempty"`
}

// Public returns the client-facing projection of u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		RestaurantID: u.RestaurantID,
	}
}

// UserQuery selects a page of users for the admin table.
type UserQuery struct {
	Page   int
	Limit  int
	Search string
}

// Offset is the zero-based row offset for q.
func (q UserQuery) Offset() int { return (q.Page - 1) * q.Limit }

// UserUpdate carries the profile fields an administrator may change.
type UserUpdate struct {
	Name     string
	Username string
	Email    string
	Phone    string
	Role     Role
}
