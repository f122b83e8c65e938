package repository

import "errors"

// ErrNotFound indicates the requested key holds no value.
var ErrNotFound = errors.New("not found")
