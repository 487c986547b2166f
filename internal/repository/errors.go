// Package repository implements the data access layer over database/sql.
// This file defines sentinel errors reused across repositories so handlers
// can map failure scenarios to HTTP statuses without inspecting SQL errors.
package repository

import (
    "errors"
    "strings"
)

// ErrNotFound is returned when a referenced row does not exist.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state: a duplicate unique field, a delete with active
// dependents, or revoking an already revoked token.  Handlers translate
// it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned on user creation when the email is already
// registered to a verified account.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports whether err is a MySQL duplicate-key violation.
// MySQL error 1062: duplicate entry for a unique key.
func isDuplicate(err error) bool {
    return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
