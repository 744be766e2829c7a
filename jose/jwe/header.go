package jwe

import "go.bryk.io/jose-uri/jose/jws"

// Header is the JOSE header shared with JWS, reused as-is: RFC-7516's
// registered members (enc, zip, epk, apu, apv, p2s, p2c, iv, tag, ...)
// are already part of the generic set jws.Header implements.
type Header = jws.Header
