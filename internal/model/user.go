package model

import "time"

// User represents an application account as stored in the `users` table.
// Each field corresponds to a column.  The json tags are omitted because
// these structs are used by the repository layer; handlers define separate
// response types with appropriate JSON tags and never expose PasswordHash,
// OTPCode or RefreshToken.
//
// A user holds at most one valid refresh token at a time: RefreshToken is a
// single nullable slot, overwritten on every login/verification and cleared
// on logout or password change.  Any previously issued refresh token stops
// being honored the moment the slot changes, even if it has not expired.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – display name (2-50 chars).
//  Phone           – unique phone number, digits only.
//  Email           – unique email address.
//  Gender          – "male" or "female".
//  PasswordHash    – bcrypt hashed password.
//  Role            – "user" or "admin".
//  OTPCode         – pending 6-digit verification code (null once verified).
//  OTPExpiresAt    – expiry of the pending code (null once verified).
//  IsVerified      – whether the email has been verified.
//  EmailVerifiedAt – when verification happened (null before).
//  RefreshToken    – single-slot refresh token value (null when logged out).
//  CreatedAt       – timestamp of creation.
//  UpdatedAt       – timestamp of last update.
type User struct {
	ID              uint64     // users.id
	Name            string     // users.name
	Phone           string     // users.phone
	Email           string     // users.email
	Gender          string     // users.gender
	PasswordHash    string     // users.password_hash
	Role            string     // users.role
	OTPCode         *string    // users.otp_code (nullable)
	OTPExpiresAt    *time.Time // users.otp_expires (nullable)
	IsVerified      bool       // users.is_verified
	EmailVerifiedAt *time.Time // users.email_verified_at (nullable)
	RefreshToken    *string    // users.refresh_token (nullable)
	CreatedAt       time.Time  // users.created_at
	UpdatedAt       time.Time  // users.updated_at
}
