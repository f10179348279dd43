package repositories

import "errors"

// ErrNotFound is returned when the requested record does not exist
var ErrNotFound = errors.New("record not found")

// ErrInvalidID is returned for post IDs that are not valid ObjectID hex strings
var ErrInvalidID = errors.New("invalid post ID format")
