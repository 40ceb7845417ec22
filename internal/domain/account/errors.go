package account

import "errors"

// ErrProfileNotFound means a verified user has no profile row.
var ErrProfileNotFound = errors.New("profile not found")

// ErrNoCredit is returned by a conditional decrement that found no credit left.
var ErrNoCredit = errors.New("no credit left")

// ErrInvalidCredential means the bearer token was missing, malformed or rejected.
var ErrInvalidCredential = errors.New("invalid credential")
