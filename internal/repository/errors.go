// Package repository implements the durable stores over database/sql.
// Sentinel errors defined here let the service layer distinguish business
// failures from connectivity problems without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert violates the users table's
// unique email index.
var ErrEmailExists = errors.New("email already exists")
