package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateAccount is returned when an insert collides with an existing
// member_account. It is raised both by the pre-insert existence check and by
// the unique constraint, so concurrent registrations cannot create two rows.
var ErrDuplicateAccount = errors.New("account already in use")
