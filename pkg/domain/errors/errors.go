package errors

import "errors"

// requested record does not exist.
var ErrMissing = errors.New("missing")

// a record to be created already exists.
var ErrConflict = errors.New("conflict")
