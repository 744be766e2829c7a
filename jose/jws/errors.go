package jws

import (
	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose"
)

// ErrNoSuitableKey is returned when no candidate key passes the
// trust/use/alg/kid filter and, when configured, the backing
// jwk.Service resolution chain is exhausted.
var ErrNoSuitableKey = jose.ErrNoSuitableKey

// ErrUnknownCritical is returned when a header's "crit" list names a
// parameter that is in neither the builder/reader's understood set nor
// the signing algorithm's own processed parameters.
var ErrUnknownCritical = jose.ErrUnknownCritical

// ErrNoneNotAllowed is returned when a header selects the insecure
// "none" algorithm without the caller explicitly opting in.
var ErrNoneNotAllowed = errors.New("'none' algorithm requires explicit opt-in")

// ErrInvalidJOSE is returned for malformed compact/JSON serializations:
// wrong segment count, invalid Base64URL, or a header that does not
// parse as JSON.
var ErrInvalidJOSE = jose.ErrInvalidJOSE

// VerificationError aggregates the per-key failures accumulated while
// iterating candidate keys during Read, surfaced only once every
// candidate has been exhausted.
type VerificationError struct {
	Causes map[string]error
}

func (e *VerificationError) Error() string {
	msg := "signature verification failed"
	for kid, err := range e.Causes {
		msg += "; " + kid + ": " + err.Error()
	}
	return msg
}

// Unwrap exposes the individual per-key causes, allowing errors.Is/As
// to reach any of them.
func (e *VerificationError) Unwrap() []error {
	causes := make([]error, 0, len(e.Causes))
	for _, err := range e.Causes {
		causes = append(causes, err)
	}
	return causes
}
