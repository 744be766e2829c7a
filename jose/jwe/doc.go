/*
Package jwe implements JSON Web Encryption (RFC-7516): compact and JSON
(general/flattened) serialization over the key management and content
encryption algorithms registered in jose/jwa, operating on jose/jwk key
material.

A Builder determines the Content Encryption Key according to the
selected "alg" (direct use, key agreement, key wrap or key encryption),
invokes the matching content cipher from jose/jwa, and emits any
algorithm-specific header parameters the key management step produces
(epk/apu/apv, iv/tag, p2s/p2c). Reader reverses the process, trying each
candidate key in turn.
*/
package jwe
