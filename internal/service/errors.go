package service

import "errors"

// Session lifecycle failures.  Handlers translate these into status codes;
// anything else coming out of the service is treated as a transient store
// failure.
var (
	// ErrEmailExists: signup against an already-registered email.
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password; login deliberately does not distinguish them.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownRefreshToken: the presented value has no row, either
	// because it was never issued, already rotated, or revoked by logout.
	ErrUnknownRefreshToken = errors.New("unknown refresh token")
	// ErrExpiredRefreshToken: the row existed but had expired; it has been
	// deleted as a side effect of detection.
	ErrExpiredRefreshToken = errors.New("refresh token expired")
	// ErrUnknownUser: a refresh token outlived its owning user.
	ErrUnknownUser = errors.New("user not found")
)
