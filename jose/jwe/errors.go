package jwe

import (
	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose"
)

// ErrNoSuitableKey is returned when no configured key or key service can
// satisfy the object's "alg"/"kid" hints.
var ErrNoSuitableKey = jose.ErrNoSuitableKey

// ErrUnknownCritical is returned when a "crit" extension name falls
// outside the union of understood header parameters.
var ErrUnknownCritical = jose.ErrUnknownCritical

// ErrInvalidJOSE is returned for malformed compact or JSON serializations.
var ErrInvalidJOSE = jose.ErrInvalidJOSE

// ErrUnsupportedAlgorithm is returned when a key management or content
// encryption algorithm identifier is not implemented by this package.
var ErrUnsupportedAlgorithm = errors.New("unsupported key management or content encryption algorithm")

// ErrDecryptionFailed is returned whenever key recovery, key unwrap or
// content decryption fails, without distinguishing the cause to avoid
// leaking an oracle to an active attacker.
var ErrDecryptionFailed = errors.New("decryption failed")

// ErrCompressionBomb is returned when DEFLATE-decompressing a payload's
// plaintext would exceed the configured output-size cap.
var ErrCompressionBomb = errors.New("compressed payload exceeds maximum allowed size")

// DecryptionError aggregates the per-candidate-key failures observed
// while attempting to decrypt a JWE, mirroring jws.VerificationError.
type DecryptionError struct {
	Causes map[string]error
}

func (e *DecryptionError) Error() string {
	msg := "decryption failed"
	for kid, err := range e.Causes {
		msg += "; " + kid + ": " + err.Error()
	}
	return msg
}

func (e *DecryptionError) Unwrap() []error {
	causes := make([]error, 0, len(e.Causes))
	for _, err := range e.Causes {
		causes = append(causes, err)
	}
	return causes
}
