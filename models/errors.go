package models

import "errors"

// The simulation core knows exactly two failure classes. Both are fatal for
// a run and are never retried.
var (
	// ErrInputData covers malformed fixtures: bad score strings, unknown team
	// or group codes, missing federation rankings, wrong group sizes.
	ErrInputData = errors.New("invalid input data")

	// ErrInvariantViolation signals a stage sequencing bug, e.g. a partition
	// that does not hold the expected number of teams.
	ErrInvariantViolation = errors.New("tournament invariant violated")
)
