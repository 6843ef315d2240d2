package formz

import "github.com/zoobzio/capitan"

// Field keys for formz events.
var (
	// KeyStoreID is the unique identifier of the emitting store.
	KeyStoreID = capitan.NewStringKey("store_id")

	// KeyElement is the dotted path of the element, or its title at the root.
	KeyElement = capitan.NewStringKey("element")

	// KeyKind is the element kind: "field" or "group".
	KeyKind = capitan.NewStringKey("kind")

	// KeyVerdict is the verdict of a validation result.
	KeyVerdict = capitan.NewStringKey("verdict")

	// KeyError is the error message when a validator fails or panics.
	KeyError = capitan.NewStringKey("error")

	// KeyDebounce is the value debounce window of the store.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyDuration is how long a validator took to settle.
	KeyDuration = capitan.NewDurationKey("duration")
)
