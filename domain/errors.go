package domain

import "errors"

// ErrAlreadyExists indicates that the underlying storage rejected an insert
// because an entity with the same keys is already persisted.
var ErrAlreadyExists = errors.New("already exists")
