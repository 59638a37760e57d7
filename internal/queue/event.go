// Package queue defines message payloads exchanged over the message broker.
package queue

// UserVerifiedEvent is published after a user completes OTP verification.
// It carries enough for downstream consumers (welcome mail, analytics) to
// act without querying the primary database.
type UserVerifiedEvent struct {
	UserID     uint64 `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	VerifiedAt string `json:"verified_at"`
}
