package summarizer

import (
	"errors"

	"github.com/medforge/healthagent/store"
)

// ErrUnavailable indicates no generation service is configured; the caller
// should report the AI capability as uninitialized rather than failed.
var ErrUnavailable = errors.New("generation service not initialized")

// GenerationError wraps a failure of the remote generation call: network
// error, timeout or malformed output. It is retryable by the caller; the
// workflow performs no internal retry.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Cause.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// PersistenceError wraps a rejected summary write that was not the expected
// uniqueness race.
type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return "failed to persist summary: " + e.Cause.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

func isAlreadyExists(err error) bool {
	return errors.Is(err, store.ErrAlreadyExists)
}
