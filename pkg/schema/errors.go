package schema

import (
	"errors"
	"fmt"
)

// ErrSchema marks a fatal schema error: a placeholder referencing a
// column that does not exist, or one whose role is incompatible with
// how it is being used (e.g. a non-time-stamp column used as a join
// time stamp).
var ErrSchema = errors.New("schema")

// ErrConfiguration marks a fatal configuration error: an inconsistent
// or out-of-range hyperparameter combination.
var ErrConfiguration = errors.New("configuration")

// ErrNotFitted marks an attempt to transform or emit SQL before Fit.
var ErrNotFitted = errors.New("not fitted")

// ErrCancelled marks a cooperative cancellation of a Fit/Transform.
var ErrCancelled = errors.New("cancelled")

func newSchemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

func newConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
