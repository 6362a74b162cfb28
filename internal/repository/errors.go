// Package repository defines the data access layer and the error values
// shared across repositories.  Handlers use errors.Is on these sentinels to
// pick a status code.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.  Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrSoldOut is returned when a magazine has fewer available copies than
// requested.  Handlers translate it into HTTP 409.
var ErrSoldOut = errors.New("not enough copies available")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as deleting a user with active reservations or an
// invalid status transition.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when a user with the same email already exists.
var ErrEmailExists = errors.New("email already exists")

// ErrUnknownConsentType is returned when a consent row names a purpose
// outside model.ConsentTypes.
var ErrUnknownConsentType = errors.New("unknown consent type")
