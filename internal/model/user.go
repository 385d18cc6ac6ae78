package model

import "time"

// User mirrors the 'users' table.  Email carries a unique index; the
// password hash never leaves the service boundary.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
