package model

import "errors"

// Error categories. Callers wrap these with fmt.Errorf("%w: ...") so that
// errors.Is can classify a failure without inspecting the message.
var (
	// ErrNetwork covers transport failures and non-2xx responses from any
	// remote call.
	ErrNetwork = errors.New("network error")

	// ErrParse means the generated itinerary could not be turned into a plan.
	ErrParse = errors.New("could not parse itinerary")

	// ErrPersistence means a stored trip record is missing or undecodable, or
	// a record could not be encoded for saving.
	ErrPersistence = errors.New("persistence error")

	// ErrImport means an export envelope is malformed or its nested payloads
	// could not be decoded.
	ErrImport = errors.New("import failed")
)
