package services

import "errors"

// Failure classes shared by the services. Handlers translate these into
// HTTP statuses; everything else is treated as an internal error.
var (
	// ErrNotFound covers both genuinely missing records and records the
	// requester is not allowed to see, so ownership mismatches do not leak
	// resource existence.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when a registration or profile update would
	// violate email uniqueness.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidCredentials is the single error for unknown email and wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
