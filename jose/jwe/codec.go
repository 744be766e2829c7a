package jwe

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"

	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose/jwa"
	"go.bryk.io/jose-uri/jose/jwk"
)

// b64 is the Base64URL-noPad encoding mandated for every JOSE segment.
var b64 = base64.RawURLEncoding

// Encoder converts a typed plaintext into its wire representation.
type Encoder func(payload interface{}) ([]byte, error)

// Decoder recovers a typed plaintext from its wire representation.
type Decoder func(data []byte, target interface{}) error

// jsonEncoder is the default Encoder: raw bytes pass through untouched,
// anything else is JSON-marshaled.
func jsonEncoder(payload interface{}) ([]byte, error) {
	if b, ok := payload.([]byte); ok {
		return b, nil
	}
	return json.Marshal(payload)
}

// jsonDecoder is the default Decoder, the mirror of jsonEncoder.
func jsonDecoder(data []byte, target interface{}) error {
	if b, ok := target.(*[]byte); ok {
		*b = data
		return nil
	}
	return json.Unmarshal(data, target)
}

// deflate compresses `data` per the "DEF" zip algorithm (RFC-7516 §4.1.3),
// the one stdlib exception to the ecosystem-library rule: no dependency
// in the reference corpus exposes raw DEFLATE.
func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// maxInflatedSize bounds the plaintext recovered from a "DEF" compressed
// payload, guarding against decompression bombs: a small ciphertext that
// expands into an output large enough to exhaust memory.
const maxInflatedSize = 64 << 20 // 64 MiB

func inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	limited := io.LimitReader(r, maxInflatedSize+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid 'zip' compressed content")
	}
	if len(out) > maxInflatedSize {
		return nil, ErrCompressionBomb
	}
	return out, nil
}

// candidateFilter narrows `keys` down to the ones marked trusted whose ID
// matches the header's "kid" hint (when both are set). Keys are not
// filtered by "alg".
func candidateFilter(keys []jwk.Key, h Header) []jwk.Key {
	out := make([]jwk.Key, 0, len(keys))
	for _, k := range keys {
		if !k.Trusted() {
			continue
		}
		if h.KeyID != "" && k.ID() != "" && k.ID() != h.KeyID {
			continue
		}
		out = append(out, k)
	}
	return out
}

// resolveKey implements the candidate-then-service resolution chain
// shared by the Builder and Reader: filter the explicitly supplied keys
// first, falling back to the jwk.Service resolution chain when none pass.
func resolveKey(ctx context.Context, keys []jwk.Key, svc *jwk.Service, h Header) (jwk.Key, error) {
	if candidates := candidateFilter(keys, h); len(candidates) > 0 {
		return candidates[0], nil
	}
	if svc == nil {
		return nil, ErrNoSuitableKey
	}
	k, err := svc.Resolve(ctx, serviceCandidate(h))
	if err != nil {
		return nil, errors.Wrap(ErrNoSuitableKey, err.Error())
	}
	return k, nil
}

// candidateKeys returns every supplied key consistent with the header,
// used by the Reader to try each match in sequence rather than stopping
// at the first.
func candidateKeys(ctx context.Context, keys []jwk.Key, svc *jwk.Service, h Header) ([]jwk.Key, error) {
	candidates := candidateFilter(keys, h)
	if len(candidates) > 0 {
		return candidates, nil
	}
	if svc == nil {
		return nil, ErrNoSuitableKey
	}
	k, err := svc.Resolve(ctx, serviceCandidate(h))
	if err != nil {
		return nil, errors.Wrap(ErrNoSuitableKey, err.Error())
	}
	return []jwk.Key{k}, nil
}

func serviceCandidate(h Header) jwk.Candidate {
	return jwk.Candidate{
		KeyID:   h.KeyID,
		X5T:     h.X5T,
		X5TS256: h.X5TS256,
		JKU:     h.JKU,
		X5U:     h.X5U,
		X5C:     h.X5C,
		JWK:     h.JWK,
	}
}

// checkCritical validates the "crit" closure: every listed name must
// belong to the union of the header's own understood set and the key
// management/content encryption algorithms' processed parameters.
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

// processedParams merges the parameter sets consumed by both the key
// management ("alg") and content encryption ("enc") algorithms.
func processedParams(alg, enc string) []string {
	out := append([]string{}, jwa.Alg(alg).ProcessedParameters()...)
	return append(out, jwa.Alg(enc).ProcessedParameters()...)
}
