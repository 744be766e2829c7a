/*
Package jws implements JSON Web Signature (RFC-7515) construction and
verification: compact, detached-compact and JSON (general/flattened)
serialization over any JWA signing algorithm registered in jose/jwa.

A Builder composes a Header and signs a payload with a jwk.Key; Read and
ReadJSON parse an existing token back into a Message, resolving the
signing key from the keys given with WithReaderKeys, falling back to a
jwk.Service set with WithReaderService, and enforcing the
"crit" extension contract of RFC-7515 §4.1.11.
*/
package jws
