package model

import "time"

// Admin roles form a closed enum.  Capabilities are derived from the role
// through a static table rather than stored per row, so a role always means
// the same thing everywhere.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Admin account statuses.  Only active admins may log in or refresh.
const (
	AdminActive    = "active"
	AdminInactive  = "inactive"
	AdminSuspended = "suspended"
)

// Capability names a single administrative permission.
type Capability string

const (
	CapManageUsers   Capability = "manage_users"
	CapManageAdmins  Capability = "manage_admins"
	CapViewAnalytics Capability = "view_analytics"
)

// roleCapabilities is the static role -> capability set table.
var roleCapabilities = map[string]map[Capability]bool{
	RoleSuperAdmin: {
		CapManageUsers:   true,
		CapManageAdmins:  true,
		CapViewAnalytics: true,
	},
	RoleAdmin: {
		CapViewAnalytics: true,
	},
}

// RoleCan reports whether the given admin role grants a capability.
func RoleCan(role string, c Capability) bool {
	return roleCapabilities[role][c]
}

// ValidAdminRole reports whether s names a known admin role.
func ValidAdminRole(s string) bool {
	return s == RoleAdmin || s == RoleSuperAdmin
}

// ValidAdminStatus reports whether s names a known admin status.
func ValidAdminStatus(s string) bool {
	return s == AdminActive || s == AdminInactive || s == AdminSuspended
}

// Admin represents a row in the `admins` table.  Like User it carries a
// single-slot RefreshToken.  CreatedBy/UpdatedBy are nullable back-references
// to the admin who created or last modified the row; they are plain ids,
// never an ownership relation, and nothing cascades through them.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name.
//  Phone        – unique phone number.
//  Email        – unique email address.
//  Gender       – "male" or "female".
//  PasswordHash – bcrypt hashed password.
//  Role         – "admin" or "super_admin".
//  Status       – "active", "inactive" or "suspended".
//  RefreshToken – single-slot refresh token value (null when logged out).
//  LastLogin    – stamped on every successful login (nullable).
//  CreatedBy    – id of the creating admin (nullable).
//  UpdatedBy    – id of the last modifying admin (nullable).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Admin struct {
	ID           uint64     // admins.id
	Name         string     // admins.name
	Phone        string     // admins.phone
	Email        string     // admins.email
	Gender       string     // admins.gender
	PasswordHash string     // admins.password_hash
	Role         string     // admins.role
	Status       string     // admins.status
	RefreshToken *string    // admins.refresh_token (nullable)
	LastLogin    *time.Time // admins.last_login (nullable)
	CreatedBy    *uint64    // admins.created_by (nullable)
	UpdatedBy    *uint64    // admins.updated_by (nullable)
	CreatedAt    time.Time  // admins.created_at
	UpdatedAt    time.Time  // admins.updated_at
}
