package services

import "errors"

// Errors shared by the services and the HTTP error mapping.
var (
	ErrValidationFailed = errors.New("validation failed")

	// Simulation runs
	ErrRunNotFound   = errors.New("simulation run not found")
	ErrRunInProgress = errors.New("simulation run is still in progress")
	ErrRunFailed     = errors.New("simulation run failed")

	// Optional collaborators
	ErrArchiveDisabled = errors.New("run archive is not configured")
	ErrReportsDisabled = errors.New("report storage is not configured")
)
