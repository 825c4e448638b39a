package repository

import "errors"

// Sentinel errors returned by repositories. Controllers translate them to
// HTTP statuses; anything else is treated as a store failure.
var (
	// ErrNotFound indicates an unresolvable client, block, reason or user.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyBlocked indicates the client already has an effective block
	// and force was not requested.
	ErrAlreadyBlocked = errors.New("client already has an active block")
	// ErrNoActiveBlock indicates the client has no effective block to lift.
	ErrNoActiveBlock = errors.New("client has no active block")
	// ErrBlockNotActive indicates a lift or update against a block whose
	// stored status is already inactive.
	ErrBlockNotActive = errors.New("block is not active")
	// ErrNoChange signals a patch that leaves every field unchanged. No
	// history entry is written for such updates.
	ErrNoChange = errors.New("no changes made")
	// ErrDuplicate indicates a unique-constraint conflict (client identifier,
	// reason code, username, email).
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalidReason indicates a reason code or id not present in the catalog.
	ErrInvalidReason = errors.New("invalid block reason")
	// ErrValidation indicates input that fails model validation, such as an
	// over-long client identifier on auto-registration.
	ErrValidation = errors.New("invalid request data")
)
