package repository

import "errors"

var (
	// ErrAlreadyTracked is returned by Add when the (item_id, sid) pair
	// already has a record.
	ErrAlreadyTracked = errors.New("item is already tracked")

	// ErrNotTracked is returned by Get/Update when the pair has no record.
	// Update never creates records implicitly.
	ErrNotTracked = errors.New("item is not tracked")
)
