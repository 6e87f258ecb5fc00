package store

import "errors"

// ErrNotFound is returned when a record has never been written or was cleared.
var ErrNotFound = errors.New("record not found")
