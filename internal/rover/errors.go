package rover

import "errors"

// Caller-input errors. Hardware faults never produce these; they are
// reported inside Reply instead.
var (
	ErrInvalidSpeed    = errors.New("speed must be a finite number")
	ErrSpeedOutOfRange = errors.New("speed out of range")
	ErrUnknownTool     = errors.New("unknown tool")
)
