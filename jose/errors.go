// Package jose holds the sentinel errors shared by the jwk, jws, jwe and
// jwt packages, so a caller can match on a single set of error values
// regardless of which object type surfaced the failure.
package jose

import "go.bryk.io/jose-uri/errors"

// ErrNoSuitableKey is returned when no candidate key passes the
// trust/use/alg/kid filter and, when configured, the backing
// jwk.Service resolution chain is exhausted.
var ErrNoSuitableKey = errors.New("no suitable key available for this operation")

// ErrUnknownCritical is returned when a header's "crit" list names a
// parameter that is in neither the builder/reader's understood set nor
// the processing algorithm's own handled parameters.
var ErrUnknownCritical = errors.New("header references an unrecognized critical extension")

// ErrInvalidJOSE is returned for malformed compact/JSON serializations:
// wrong segment count, invalid Base64URL, or a header that does not
// parse as JSON.
var ErrInvalidJOSE = errors.New("malformed JOSE object")

// ErrInconsistentKey is returned when resolved key material disagrees
// with parameters supplied alongside it: an inline "jwk" header whose
// fields don't match the key recovered from the store/resolver/x5c
// chain for the same candidate, for instance.
var ErrInconsistentKey = errors.New("resolved key material is inconsistent with the supplied parameters")

// ErrUntrustedKey is returned when a resolved key was never corroborated
// by a trust-bearing resolution step (store, resolver, validated x5c
// chain, or a trusted jku) and the caller has not opted into accepting
// untrusted keys.
var ErrUntrustedKey = errors.New("resolved key is untrusted")
