// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let handlers distinguish failure
// scenarios without inspecting driver errors: ErrEmailExists and
// ErrPhoneExists map unique-constraint violations on registration,
// ErrForbidden marks ownership violations on user-scoped records.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique
// email constraint.  Handlers translate this into HTTP 400.
var ErrEmailExists = errors.New("email already exists")

// ErrPhoneExists is returned when an insert or update collides with the
// unique phone constraint.
var ErrPhoneExists = errors.New("phone already in use")

// ErrForbidden is returned when the caller attempts an operation on a
// record they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")
