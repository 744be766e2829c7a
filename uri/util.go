package uri

import (
	"fmt"

	"go.bryk.io/jose-uri/errors"
)

// wrapf wraps `sentinel` with a formatted prefix, preserving
// errors.Is(result, sentinel) semantics.
func wrapf(sentinel error, format string, args ...interface{}) error {
	return errors.Wrap(sentinel, fmt.Sprintf(format, args...))
}
