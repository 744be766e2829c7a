/*
Package jwa provides cryptographic algorithm identifiers as described by RFC-7518.

The specification registers cryptographic algorithms and identifiers
to be used with the JSON Web Signature (JWS), JSON Web Encryption
(JWE), and JSON Web Key (JWK) specifications. It defines several
IANA registries for these identifiers.

More information:
https://www.rfc-editor.org/rfc/rfc7518.html
*/
package jwa
