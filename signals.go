package formz

import "github.com/zoobzio/capitan"

// Store lifecycle signals.
var (
	// StoreStarted is emitted when a store is activated.
	StoreStarted = capitan.NewSignal(
		"formz.store.started",
		"Store activated",
	)

	// StoreStopped is emitted when a store's context ends and its loop exits.
	StoreStopped = capitan.NewSignal(
		"formz.store.stopped",
		"Store torn down",
	)

	// StatePublished is emitted for every state a store publishes.
	StatePublished = capitan.NewSignal(
		"formz.state.published",
		"Store state published",
	)
)

// Validation signals.
var (
	// ValidationStarted is emitted when a validator invocation begins.
	ValidationStarted = capitan.NewSignal(
		"formz.validation.started",
		"Validator invoked",
	)

	// ValidationSettled is emitted when a validator returns a result that is
	// still current.
	ValidationSettled = capitan.NewSignal(
		"formz.validation.settled",
		"Validator settled",
	)

	// ValidationCancelled is emitted when a newer value supersedes an
	// in-flight validator invocation.
	ValidationCancelled = capitan.NewSignal(
		"formz.validation.cancelled",
		"Validator invocation superseded",
	)

	// ValidationPanicked is emitted when a validator panics. The panic is
	// converted into an Error result.
	ValidationPanicked = capitan.NewSignal(
		"formz.validation.panicked",
		"Validator panicked",
	)
)
