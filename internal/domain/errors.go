package domain

import "errors"

var (
	// Input errors
	ErrInputValidation        = errors.New("input validation failed")
	ErrUnknownCalculationType = errors.New("unknown calculation type")
	ErrProjectNotFound        = errors.New("project not found")

	// Computation errors
	ErrComputation = errors.New("computation failed")

	// Run errors
	ErrConcurrency      = errors.New("calculation already running for project and type")
	ErrRunNotFound      = errors.New("calculation run not found")
	ErrRunNotRestorable = errors.New("only completed runs can be restored")
	ErrRunTypeMismatch  = errors.New("cannot compare runs of different calculation types")
	ErrRunFinalized     = errors.New("calculation run is already finalized")
)
