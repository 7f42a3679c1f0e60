package repository

import "errors"

// ErrNotFound is returned by point lookups that miss. Any other error from a
// repository is a transport or database failure.
var ErrNotFound = errors.New("record not found")
