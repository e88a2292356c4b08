package model

import "errors"

// Sentinel errors shared across services. Handlers map these to user-facing
// notices; anything else is an internal failure.
var (
	// ErrNotFound covers unknown or inactive bots and giveaways.
	ErrNotFound = errors.New("not found")

	// ErrOutOfStock means a unique giveaway's item pool is exhausted.
	ErrOutOfStock = errors.New("out of stock")

	// ErrAlreadyClaimed means the user already holds a pending or approved
	// attempt and the giveaway does not allow retakes.
	ErrAlreadyClaimed = errors.New("already claimed")
)
