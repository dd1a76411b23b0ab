// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios without inspecting driver errors. For example, ErrNotFound
// indicates that a looked-up row does not exist, while ErrConflict
// signals a uniqueness collision.
package repository

import "errors"

// ErrNotFound is returned when a row looked up by id or unique column
// does not exist. Callers translate it into a 404 or, at the session
// gate, into an invalid-token rejection.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing
// unique value. Handlers should translate this into an HTTP 409
// response naming the colliding field.
var ErrConflict = errors.New("conflict")
