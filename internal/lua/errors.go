package lua

import "errors"

var (
	// ErrNilRuntime is returned when a nil runtime is passed to a constructor.
	ErrNilRuntime = errors.New("runtime cannot be nil")

	// ErrFunctionNotFound is returned when a called global is not defined.
	ErrFunctionNotFound = errors.New("Lua function not found")

	// ErrLimitExceeded is returned when a script exceeds its CPU or memory
	// budget.
	ErrLimitExceeded = errors.New("Lua resource limit exceeded")

	// ErrNoContext is returned by drawing functions called while no
	// drawing context is attached.
	ErrNoContext = errors.New("no drawing context attached")

	// ErrInvalidPath is returned when a path argument is not a path
	// created by vg.path().
	ErrInvalidPath = errors.New("expected path userdata")
)
