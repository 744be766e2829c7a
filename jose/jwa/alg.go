package jwa

import (
	"crypto"
	"crypto/elliptic"

	"go.bryk.io/jose-uri/errors"
)

// Alg values provide valid cryptographic algorithm identifiers as described
// by RFC-7518.
//
// Methods specify proper underlying configuration and settings required to
// generate and validate JOSE objects using the different hashing, signature,
// key-management and content-encryption mechanisms defined in the
// specification. The identifier is also used verbatim as the 'alg' (or
// 'enc') JOSE header value.
//
// https://www.rfc-editor.org/rfc/rfc7518.html#section-3.1
type Alg string

// Family groups algorithm identifiers by the JWK key type they operate on.
type Family string

// Supported key families.
const (
	EC    Family = "EC"
	RSA   Family = "RSA"
	OCT   Family = "oct"
	EdEC  Family = "OKP" // Octet Key Pair, covers Ed25519.
	XEC   Family = "OKP" // X25519 also registers as Octet Key Pair.
	PBES2 Family = "oct" // password-based, carried as a symmetric secret.
	None  Family = ""
)

// Kind classifies what an algorithm is used for.
type Kind int

// Supported algorithm kinds.
const (
	// SignKind algorithms produce/verify digital signatures or MACs.
	SignKind Kind = iota
	// KeyMgmtDirect algorithms use the key material itself (or a value
	// derived from it) as the Content Encryption Key, without producing
	// an encrypted-key segment.
	KeyMgmtDirect
	// KeyMgmtWrap algorithms wrap a randomly generated CEK.
	KeyMgmtWrap
	// KeyMgmtEncrypt algorithms encrypt a randomly generated CEK.
	KeyMgmtEncrypt
	// EncKind algorithms are content encryption ciphers.
	EncKind
)

// Signature algorithms.
const (
	// NONE - Insecure token, i.e. empty signature segment.
	NONE Alg = "none"
	// HS256 - HMAC using SHA-256.
	HS256 Alg = "HS256"
	// HS384 - HMAC using SHA-384.
	HS384 Alg = "HS384"
	// HS512 - HMAC using SHA-512.
	HS512 Alg = "HS512"
	// RS256 - RSASSA-PKCS1-v1_5 using SHA-256.
	RS256 Alg = "RS256"
	// RS384 - RSASSA-PKCS1-v1_5 using SHA-384.
	RS384 Alg = "RS384"
	// RS512 - RSASSA-PKCS1-v1_5 using SHA-512.
	RS512 Alg = "RS512"
	// PS256 - RSASSA-PSS using SHA-256 and MGF1 with SHA-256.
	PS256 Alg = "PS256"
	// PS384 - RSASSA-PSS using SHA-384 and MGF1 with SHA-384.
	PS384 Alg = "PS384"
	// PS512 - RSASSA-PSS using SHA-512 and MGF1 with SHA-512.
	PS512 Alg = "PS512"
	// ES256 - ECDSA using P-256 and SHA-256.
	ES256 Alg = "ES256"
	// ES384 - ECDSA using P-384 and SHA-384.
	ES384 Alg = "ES384"
	// ES512 - ECDSA using P-521 and SHA-512.
	ES512 Alg = "ES512"
	// EdDSA - EdDSA signature using Ed25519 (the only curve registered;
	// Ed448 is not supported).
	EdDSA Alg = "EdDSA"
)

// Key management algorithms.
const (
	// DIR - Direct use of a shared symmetric key as the CEK.
	DIR Alg = "dir"
	// ECDHES - Elliptic Curve Diffie-Hellman Ephemeral Static key
	// agreement, direct key agreement mode.
	ECDHES Alg = "ECDH-ES"
	// ECDHESA128KW - ECDH-ES followed by AES-128 key wrap.
	ECDHESA128KW Alg = "ECDH-ES+A128KW"
	// ECDHESA192KW - ECDH-ES followed by AES-192 key wrap.
	ECDHESA192KW Alg = "ECDH-ES+A192KW"
	// ECDHESA256KW - ECDH-ES followed by AES-256 key wrap.
	ECDHESA256KW Alg = "ECDH-ES+A256KW"
	// A128KW - AES key wrap using a 128-bit key.
	A128KW Alg = "A128KW"
	// A192KW - AES key wrap using a 192-bit key.
	A192KW Alg = "A192KW"
	// A256KW - AES key wrap using a 256-bit key.
	A256KW Alg = "A256KW"
	// A128GCMKW - AES-GCM key wrap using a 128-bit key.
	A128GCMKW Alg = "A128GCMKW"
	// A192GCMKW - AES-GCM key wrap using a 192-bit key.
	A192GCMKW Alg = "A192GCMKW"
	// A256GCMKW - AES-GCM key wrap using a 256-bit key.
	A256GCMKW Alg = "A256GCMKW"
	// RSA1_5 - RSAES-PKCS1-v1_5.
	RSA1_5 Alg = "RSA1_5" //nolint:revive,stylecheck
	// RSAOAEP - RSAES OAEP using default parameters.
	RSAOAEP Alg = "RSA-OAEP"
	// RSAOAEP256 - RSAES OAEP using SHA-256 and MGF1 with SHA-256.
	RSAOAEP256 Alg = "RSA-OAEP-256"
	// RSAOAEP384 - RSAES OAEP using SHA-384 and MGF1 with SHA-384.
	RSAOAEP384 Alg = "RSA-OAEP-384"
	// RSAOAEP512 - RSAES OAEP using SHA-512 and MGF1 with SHA-512.
	RSAOAEP512 Alg = "RSA-OAEP-512"
	// PBES2HS256A128KW - PBES2 with HMAC SHA-256 and "A128KW" wrapping.
	PBES2HS256A128KW Alg = "PBES2-HS256+A128KW"
	// PBES2HS384A192KW - PBES2 with HMAC SHA-384 and "A192KW" wrapping.
	PBES2HS384A192KW Alg = "PBES2-HS384+A192KW"
	// PBES2HS512A256KW - PBES2 with HMAC SHA-512 and "A256KW" wrapping.
	PBES2HS512A256KW Alg = "PBES2-HS512+A256KW"
)

// Content encryption algorithms.
const (
	// A128CBCHS256 - AES_128_CBC_HMAC_SHA_256.
	A128CBCHS256 Alg = "A128CBC-HS256"
	// A192CBCHS384 - AES_192_CBC_HMAC_SHA_384.
	A192CBCHS384 Alg = "A192CBC-HS384"
	// A256CBCHS512 - AES_256_CBC_HMAC_SHA_512.
	A256CBCHS512 Alg = "A256CBC-HS512"
	// A128GCM - AES GCM using a 128-bit key.
	A128GCM Alg = "A128GCM"
	// A192GCM - AES GCM using a 192-bit key.
	A192GCM Alg = "A192GCM"
	// A256GCM - AES GCM using a 256-bit key.
	A256GCM Alg = "A256GCM"
)

// entry describes the static properties of a registered algorithm.
type entry struct {
	family  Family
	kind    Kind
	keyLen  int      // required raw key length in bytes, 0 when not fixed
	params  []string // JOSE header parameters this algorithm consumes
	curve   func() elliptic.Curve
	hashFn  crypto.Hash
	okpCrv  string // OKP "crv" value, when applicable
	pssSalt bool
}

// registry holds the full set of supported algorithm identifiers.
var registry = map[Alg]entry{
	NONE:  {family: None, kind: SignKind},
	HS256: {family: OCT, kind: SignKind, hashFn: crypto.SHA256},
	HS384: {family: OCT, kind: SignKind, hashFn: crypto.SHA384},
	HS512: {family: OCT, kind: SignKind, hashFn: crypto.SHA512},
	RS256: {family: RSA, kind: SignKind, hashFn: crypto.SHA256},
	RS384: {family: RSA, kind: SignKind, hashFn: crypto.SHA384},
	RS512: {family: RSA, kind: SignKind, hashFn: crypto.SHA512},
	PS256: {family: RSA, kind: SignKind, hashFn: crypto.SHA256, pssSalt: true},
	PS384: {family: RSA, kind: SignKind, hashFn: crypto.SHA384, pssSalt: true},
	PS512: {family: RSA, kind: SignKind, hashFn: crypto.SHA512, pssSalt: true},
	ES256: {family: EC, kind: SignKind, hashFn: crypto.SHA256, curve: elliptic.P256},
	ES384: {family: EC, kind: SignKind, hashFn: crypto.SHA384, curve: elliptic.P384},
	ES512: {family: EC, kind: SignKind, hashFn: crypto.SHA512, curve: elliptic.P521},
	EdDSA: {family: EdEC, kind: SignKind, okpCrv: "Ed25519"},

	DIR:          {family: OCT, kind: KeyMgmtDirect},
	ECDHES:       {family: EC, kind: KeyMgmtDirect, params: []string{"epk", "apu", "apv"}},
	ECDHESA128KW: {family: EC, kind: KeyMgmtWrap, keyLen: 16, params: []string{"epk", "apu", "apv"}},
	ECDHESA192KW: {family: EC, kind: KeyMgmtWrap, keyLen: 24, params: []string{"epk", "apu", "apv"}},
	ECDHESA256KW: {family: EC, kind: KeyMgmtWrap, keyLen: 32, params: []string{"epk", "apu", "apv"}},
	A128KW:       {family: OCT, kind: KeyMgmtWrap, keyLen: 16},
	A192KW:       {family: OCT, kind: KeyMgmtWrap, keyLen: 24},
	A256KW:       {family: OCT, kind: KeyMgmtWrap, keyLen: 32},
	A128GCMKW:    {family: OCT, kind: KeyMgmtEncrypt, keyLen: 16, params: []string{"iv", "tag"}},
	A192GCMKW:    {family: OCT, kind: KeyMgmtEncrypt, keyLen: 24, params: []string{"iv", "tag"}},
	A256GCMKW:    {family: OCT, kind: KeyMgmtEncrypt, keyLen: 32, params: []string{"iv", "tag"}},
	RSA1_5:       {family: RSA, kind: KeyMgmtEncrypt},
	RSAOAEP:      {family: RSA, kind: KeyMgmtEncrypt, hashFn: crypto.SHA1},
	RSAOAEP256:   {family: RSA, kind: KeyMgmtEncrypt, hashFn: crypto.SHA256},
	RSAOAEP384:   {family: RSA, kind: KeyMgmtEncrypt, hashFn: crypto.SHA384},
	RSAOAEP512:   {family: RSA, kind: KeyMgmtEncrypt, hashFn: crypto.SHA512},

	PBES2HS256A128KW: {family: PBES2, kind: KeyMgmtEncrypt, keyLen: 16, hashFn: crypto.SHA256, params: []string{"p2s", "p2c"}},
	PBES2HS384A192KW: {family: PBES2, kind: KeyMgmtEncrypt, keyLen: 24, hashFn: crypto.SHA384, params: []string{"p2s", "p2c"}},
	PBES2HS512A256KW: {family: PBES2, kind: KeyMgmtEncrypt, keyLen: 32, hashFn: crypto.SHA512, params: []string{"p2s", "p2c"}},

	A128CBCHS256: {kind: EncKind, keyLen: 32, hashFn: crypto.SHA256},
	A192CBCHS384: {kind: EncKind, keyLen: 48, hashFn: crypto.SHA384},
	A256CBCHS512: {kind: EncKind, keyLen: 64, hashFn: crypto.SHA512},
	A128GCM:      {kind: EncKind, keyLen: 16},
	A192GCM:      {kind: EncKind, keyLen: 24},
	A256GCM:      {kind: EncKind, keyLen: 32},
}

// lookup returns the registry entry for `a` or an error when unknown.
func (a Alg) lookup() (entry, error) {
	e, ok := registry[a]
	if !ok {
		return entry{}, errors.Errorf("unknown algorithm identifier '%s'", a)
	}
	return e, nil
}

// Family returns the JWK key family required by the algorithm.
func (a Alg) Family() (Family, error) {
	e, err := a.lookup()
	if err != nil {
		return "", err
	}
	return e.family, nil
}

// Kind returns the category the algorithm belongs to.
func (a Alg) Kind() (Kind, error) {
	e, err := a.lookup()
	if err != nil {
		return 0, err
	}
	return e.kind, nil
}

// HashFunction returns the proper crypto function for the algorithm identifier.
func (a Alg) HashFunction() (crypto.Hash, error) {
	e, err := a.lookup()
	if err != nil {
		return 0, err
	}
	if e.hashFn == 0 {
		return 0, errors.Errorf("algorithm '%s' does not declare a hash function", a)
	}
	return e.hashFn, nil
}

// Curve returns the proper Elliptic curve for the algorithm identifier.
func (a Alg) Curve() (elliptic.Curve, error) {
	e, err := a.lookup()
	if err != nil {
		return nil, err
	}
	if e.curve == nil {
		return nil, errors.Errorf("invalid curve identifier %s", a)
	}
	return e.curve(), nil
}

// KeyLen returns the fixed raw key length (in bytes) mandated by the
// algorithm, or 0 when the length is not fixed by the algorithm itself
// (e.g. RSA, HMAC, ECDH-ES direct).
func (a Alg) KeyLen() int {
	e, err := a.lookup()
	if err != nil {
		return 0
	}
	return e.keyLen
}

// ProcessedParameters returns the set of JOSE header parameter names this
// algorithm consumes. Used by readers to compute the 'understood' set for
// the 'crit' check.
func (a Alg) ProcessedParameters() []string {
	e, err := a.lookup()
	if err != nil {
		return nil
	}
	return e.params
}

// IsPSS reports whether the signature algorithm uses RSASSA-PSS padding.
func (a Alg) IsPSS() bool {
	e, err := a.lookup()
	if err != nil {
		return false
	}
	return e.pssSalt
}

// PSSSaltLength returns the MGF1/PSS salt length mandated by RFC-7518
// (salt length == hash length, trailer field 1).
func (a Alg) PSSSaltLength() (int, error) {
	hf, err := a.HashFunction()
	if err != nil {
		return 0, err
	}
	return hf.Size(), nil
}
