package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidVote     = errors.New("invalid vote value")
	ErrTxnRetryLimit   = errors.New("transaction conflict: retry limit reached")
	ErrMissingIdentity = errors.New("user id and library id are required")
)
