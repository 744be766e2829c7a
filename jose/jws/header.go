package jws

import (
	"encoding/json"

	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose/jwk"
)

// registeredParams lists every JOSE header member this package knows how
// to marshal/unmarshal by name; anything else round-trips through Extra.
var registeredParams = map[string]bool{
	"alg": true, "enc": true, "zip": true, "kid": true, "typ": true,
	"cty": true, "crit": true, "jku": true, "jwk": true, "x5u": true,
	"x5c": true, "x5t": true, "x5t#S256": true, "epk": true, "apu": true,
	"apv": true, "p2s": true, "p2c": true, "iv": true, "tag": true,
}

// Header is the generic JOSE header shared by JWS and JWE objects
// (spec.md's JOSE-Header: "alg, enc, zip, kid, typ, cty, crit, jku, jwk,
// x5u, x5c, x5t, x5t#S256, epk, apu, apv, p2s, p2c, iv, tag", plus any
// application-defined extension carried in Extra).
type Header struct {
	// Algorithm identifies the JWS signing algorithm or the JWE key
	// management algorithm.
	Algorithm string `json:"alg,omitempty"`
	// EncryptionAlgorithm ("enc") identifies the JWE content cipher.
	EncryptionAlgorithm string `json:"enc,omitempty"`
	// Compression ("zip") names the compression algorithm applied to the
	// JWE plaintext before encryption; only "DEF" is recognized.
	Compression string `json:"zip,omitempty"`
	// KeyID ("kid") hints at the key used to produce the object.
	KeyID string `json:"kid,omitempty"`
	// Type ("typ") declares the media type of the complete object.
	Type string `json:"typ,omitempty"`
	// ContentType ("cty") declares the media type of the payload.
	ContentType string `json:"cty,omitempty"`
	// Critical ("crit") lists extension parameter names a reader must
	// understand in order to accept the object.
	Critical []string `json:"crit,omitempty"`
	// JKU is a URL to a JWK Set carrying the signing/encryption key.
	JKU string `json:"jku,omitempty"`
	// JWK is an inline public key.
	JWK *jwk.Record `json:"jwk,omitempty"`
	// X5U is a URL to an X.509 certificate or certificate chain.
	X5U string `json:"x5u,omitempty"`
	// X5C is an inline X.509 certificate chain, each entry base64-encoded
	// (not base64url, per RFC-7517 §4.7).
	X5C []string `json:"x5c,omitempty"`
	// X5T is the base64url SHA-1 thumbprint of the X.509 certificate.
	X5T string `json:"x5t,omitempty"`
	// X5TS256 is the base64url SHA-256 thumbprint of the X.509 certificate.
	X5TS256 string `json:"x5t#S256,omitempty"`
	// EPK carries the ephemeral public key for ECDH-ES key agreement.
	EPK *jwk.Record `json:"epk,omitempty"`
	// APU is the base64url-noPad Agreement PartyUInfo value.
	APU string `json:"apu,omitempty"`
	// APV is the base64url-noPad Agreement PartyVInfo value.
	APV string `json:"apv,omitempty"`
	// P2S is the base64url-noPad PBES2 salt input.
	P2S string `json:"p2s,omitempty"`
	// P2C is the PBES2 iteration count.
	P2C int `json:"p2c,omitempty"`
	// IV is the base64url-noPad initialization vector used by an
	// AES-GCM key-wrap algorithm.
	IV string `json:"iv,omitempty"`
	// Tag is the base64url-noPad authentication tag produced by an
	// AES-GCM key-wrap algorithm.
	Tag string `json:"tag,omitempty"`
	// Extra carries any application-defined header parameter not listed
	// above, merged flat into the serialized JSON object.
	Extra map[string]interface{} `json:"-"`
}

// Understood returns the set of parameter names this header type itself
// recognizes as non-critical-eligible, used together with the signing
// algorithm's own ProcessedParameters() to compute the "crit" closure.
func (h Header) Understood() map[string]bool {
	u := make(map[string]bool, len(registeredParams))
	for k := range registeredParams {
		u[k] = true
	}
	return u
}

// Get returns a parameter value, checking the alg, enc, zip, kid, typ and
// cty fields first and falling back to Extra for any other name.
func (h Header) Get(name string) (interface{}, bool) {
	switch name {
	case "alg":
		return h.Algorithm, h.Algorithm != ""
	case "enc":
		return h.EncryptionAlgorithm, h.EncryptionAlgorithm != ""
	case "zip":
		return h.Compression, h.Compression != ""
	case "kid":
		return h.KeyID, h.KeyID != ""
	case "typ":
		return h.Type, h.Type != ""
	case "cty":
		return h.ContentType, h.ContentType != ""
	}
	v, ok := h.Extra[name]
	return v, ok
}

// MarshalJSON flattens the registered fields and Extra into a single
// JSON object, as required by RFC-7515 §4/RFC-7516 §4 (all header
// parameters live at the same level).
func (h Header) MarshalJSON() ([]byte, error) {
	type alias Header
	base, err := json.Marshal(alias(h))
	if err != nil {
		return nil, err
	}
	if len(h.Extra) == 0 {
		return base, nil
	}
	merged := make(map[string]interface{})
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range h.Extra {
		if registeredParams[k] {
			continue // registered members always win over a colliding Extra entry.
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON recovers the registered fields and moves every
// unrecognized member into Extra.
func (h *Header) UnmarshalJSON(data []byte) error {
	type alias Header
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return errors.Wrap(err, "invalid JOSE header")
	}
	raw := make(map[string]interface{})
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "invalid JOSE header")
	}
	for k := range raw {
		if registeredParams[k] {
			delete(raw, k)
		}
	}
	*h = Header(a)
	if len(raw) > 0 {
		h.Extra = raw
	}
	return nil
}

// checkCritical validates the "crit" closure described by spec.md §4.5:
// every listed name must belong to the union of the header's own
// understood set and the signing/key-management algorithm's processed
// parameters.
func checkCritical(h Header, algProcessed []string) error {
	if len(h.Critical) == 0 {
		return nil
	}
	understood := h.Understood()
	for _, p := range algProcessed {
		understood[p] = true
	}
	for _, name := range h.Critical {
		if !understood[name] {
			return errors.Wrap(ErrUnknownCritical, "'"+name+"'")
		}
	}
	return nil
}
