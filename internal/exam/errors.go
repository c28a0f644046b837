package exam

import (
	"errors"
	"fmt"
)

// Error taxonomy. Handlers map these onto HTTP statuses; everything not
// wrapping one of them is treated as internal.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrFailedPrecondition = errors.New("failed precondition")

	// ErrAlreadySubmitted rejects a second submission for the same
	// (student, exam) pair. It matches ErrFailedPrecondition.
	ErrAlreadySubmitted = fmt.Errorf("%w: exam already submitted", ErrFailedPrecondition)
)
