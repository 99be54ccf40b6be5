package persistence

import "errors"

// ErrNotFound marks a Load for a key with no saved record.
var ErrNotFound = errors.New("persistence: record not found")
