package uri

import "go.bryk.io/jose-uri/errors"

// Sentinel errors for the error kinds named in the specification's error
// taxonomy. Wrapped with go.bryk.io/jose-uri/errors so every failure
// carries a stacktrace and, where useful, an offset/component hint.
var (
	// ErrInvalidURI flags a malformed raw component, an invalid parameter
	// reference, a disallowed character, or a `**/**` sequence.
	ErrInvalidURI = errors.New("invalid uri")

	// ErrMissingParameterValue is returned when rendering is requested with
	// fewer values than declared parameters.
	ErrMissingParameterValue = errors.New("missing parameter value")

	// ErrParameterValueMismatch is returned when a substituted value fails
	// to match its parameter's declared pattern.
	ErrParameterValueMismatch = errors.New("value does not match expected pattern")

	// ErrIncompatibleBuilderOption flags an option combination that cannot
	// be honored together, e.g. PathPattern with an origin-form request
	// target.
	ErrIncompatibleBuilderOption = errors.New("incompatible builder option")
)
