package workflow

import "context"

// StateMachine tracks the state of one record and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire reports whether trigger has a transition whose guard passes
	CanFire(ctx context.Context, trigger Trigger) bool

	// Fire executes the trigger, moving to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the triggers CanFire accepts, in configuration order
	PermittedTriggers(ctx context.Context) []Trigger
}
