package jws

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose/jwa"
	"go.bryk.io/jose-uri/jose/jwk"
)

// jwaAlg adapts a bare header "alg" string into the jwa.Alg type used to
// look up hash functions and processed-parameter sets.
func jwaAlg(alg string) jwa.Alg {
	return jwa.Alg(alg)
}

// processedParams returns the JOSE header parameter names consumed by
// `alg`, used to compute the "crit" understood-set closure.
func processedParams(alg string) []string {
	return jwaAlg(alg).ProcessedParameters()
}

// b64 is the Base64URL-noPad encoding mandated for every JOSE segment.
var b64 = base64.RawURLEncoding

// Encoder converts a typed payload into its wire representation.
type Encoder func(payload interface{}) ([]byte, error)

// Decoder recovers a typed payload from its wire representation.
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

// candidateFilter narrows `keys` down to the ones consistent with the
// header's key hints (alg, kid) that are also marked trusted, per
// spec.md §4.5 step 2.
func candidateFilter(keys []jwk.Key, h Header) []jwk.Key {
	out := make([]jwk.Key, 0, len(keys))
	for _, k := range keys {
		if !k.Trusted() {
			continue
		}
		if h.Algorithm != "" && string(k.Alg()) != h.Algorithm {
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
// shared by builders and readers: filter the explicitly supplied keys
// first, falling back to the jwk.Service resolution chain when none
// pass (store -> resolver -> x5c -> x5u -> jku -> inline jwk header).
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

// serviceCandidate extracts the key-identifying hints a jwk.Service
// resolution chain needs from a JOSE header.
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

// candidateKeys returns every supplied key consistent with the header,
// used by readers to try each match in sequence rather than stopping at
// the first.
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
