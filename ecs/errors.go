package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntity is returned when operating on an entity that was never
	// created or has already been removed.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrMissingComponent is returned when reading a component the entity does not have.
	ErrMissingComponent = errors.New("missing component")

	// ErrNoSuchSystem is returned when looking up a system type that was never registered.
	ErrNoSuchSystem = errors.New("no such system")

	// ErrSystemCreation is wrapped by every SystemCreationError.
	ErrSystemCreation = errors.New("system creation failed")

	// ErrMissingInjectable is returned when a system asks for a value the world was not given.
	ErrMissingInjectable = errors.New("missing injectable")
)

// SystemCreationError reports a system declaration that could not be turned into
// a system during world construction.
type SystemCreationError struct {
	// Index is the position of the declaration in WorldConfig.Systems.
	Index int
	// System names the system type, when known.
	System string
	Err    error
}

func (e *SystemCreationError) Error() string {
	if e.System == "" {
		return fmt.Sprintf("ecs: create system #%d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("ecs: create system #%d (%s): %v", e.Index, e.System, e.Err)
}

// Unwrap exposes both ErrSystemCreation and the underlying cause to errors.Is.
func (e *SystemCreationError) Unwrap() []error {
	return []error{ErrSystemCreation, e.Err}
}

func invalidEntity(e Entity) error {
	return fmt.Errorf("ecs: entity %d: %w", e, ErrInvalidEntity)
}
