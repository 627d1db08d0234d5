package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput is returned when a caller supplies an unusable value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPrecondition is matched by every *PreconditionError.
	ErrPrecondition = errors.New("precondition failed")

	// ErrGenerationFailure is matched by every *GenerationError.
	ErrGenerationFailure = errors.New("title generation failed")
)

// Pieces of session state Generate depends on.
const (
	MissingTitles  = "titles"
	MissingContext = "context"
	MissingConfig  = "config"
)

// PreconditionError lists the session state that has not been set yet, in
// the order titles, context, config.
type PreconditionError struct {
	Missing []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrPrecondition, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrPrecondition) true.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// Reasons a generation produced nothing.
const (
	ReasonRemoteCall   = "remote_call"
	ReasonNoCandidates = "no_candidates"
)

// GenerationError tells a failed model call apart from a reply that held
// no usable candidates. Both match ErrGenerationFailure.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", ErrGenerationFailure, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s (%s)", ErrGenerationFailure, e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrGenerationFailure) true.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailure
}
