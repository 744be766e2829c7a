package jws

import (
	"context"
	"crypto/rand"
	"encoding/json"

	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose/jwk"
)

// Builder composes a JOSE header and payload into a signed Message,
// mirroring the functional-options shape of the teacher's JWT
// `GeneratorOption`.
type Builder struct {
	header    Header
	keys      []jwk.Key
	service   *jwk.Service
	encoder   Encoder
	allowNone bool
}

// Option configures a Builder.
type Option func(*Builder)

// NewBuilder returns a Builder ready to sign payloads, defaulting to the
// JSON Encoder and rejecting the "none" algorithm.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{encoder: jsonEncoder}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithAlgorithm sets the signing algorithm identifier.
func WithAlgorithm(alg string) Option {
	return func(b *Builder) { b.header.Algorithm = alg }
}

// WithKeyID sets the "kid" header hint.
func WithKeyID(kid string) Option {
	return func(b *Builder) { b.header.KeyID = kid }
}

// WithType sets the "typ" header value.
func WithType(typ string) Option {
	return func(b *Builder) { b.header.Type = typ }
}

// WithContentType sets the "cty" header value.
func WithContentType(cty string) Option {
	return func(b *Builder) { b.header.ContentType = cty }
}

// WithCritical declares the "crit" extension names this object requires
// readers to understand.
func WithCritical(names ...string) Option {
	return func(b *Builder) { b.header.Critical = names }
}

// WithExtra sets an application-defined header parameter.
func WithExtra(name string, value interface{}) Option {
	return func(b *Builder) {
		if b.header.Extra == nil {
			b.header.Extra = make(map[string]interface{})
		}
		b.header.Extra[name] = value
	}
}

// WithEncoder overrides the default payload Encoder.
func WithEncoder(enc Encoder) Option {
	return func(b *Builder) { b.encoder = enc }
}

// WithKeys supplies the candidate signing keys, tried in order against
// the header's alg/kid hints.
func WithKeys(keys ...jwk.Key) Option {
	return func(b *Builder) { b.keys = keys }
}

// WithService attaches a jwk.Service consulted when no supplied key
// satisfies the header.
func WithService(svc *jwk.Service) Option {
	return func(b *Builder) { b.service = svc }
}

// AllowNone opts into producing an unsigned ("alg":"none") object.
func AllowNone() Option {
	return func(b *Builder) { b.allowNone = true }
}

// Build signs `payload`, returning the resulting Message. Follows
// spec.md §4.5's build algorithm: merge header, reject "none" unless
// opted in, select a key, encode the payload, sign.
func (b *Builder) Build(payload interface{}) (*Message, error) {
	return b.build(context.Background(), payload)
}

// BuildDetached signs `payload` and renders the detached-compact form,
// where the middle (payload) segment of the compact string is empty.
func (b *Builder) BuildDetached(payload interface{}) (string, error) {
	m, err := b.build(context.Background(), payload)
	if err != nil {
		return "", err
	}
	return m.DetachedString(), nil
}

// BuildJSON signs `payload` once per candidate key and renders the JSON
// serialization: flattened when exactly one key signs, general
// (multi-signature) otherwise.
func (b *Builder) BuildJSON(payload interface{}) ([]byte, error) {
	ctx := context.Background()
	keys, err := candidateKeys(ctx, b.keys, b.service, b.header)
	if err != nil {
		return nil, err
	}

	encoded, cty, err := b.encodePayload(payload)
	if err != nil {
		return nil, err
	}
	_ = cty

	sigs := make([]signature, 0, len(keys))
	for _, k := range keys {
		h := b.header
		if h.Algorithm == "" {
			h.Algorithm = string(k.Alg())
		}
		if h.KeyID == "" {
			h.KeyID = k.ID()
		}
		if err := checkCritical(h, processedParams(h.Algorithm)); err != nil {
			return nil, err
		}
		m, err := b.signWith(h, k, encoded)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, signature{Protected: string(m.protected), Signature: b64.EncodeToString(m.signature)})
	}

	if len(sigs) == 1 {
		return json.Marshal(flattenedDoc{
			Payload:   b64.EncodeToString(encoded),
			Protected: sigs[0].Protected,
			Signature: sigs[0].Signature,
		})
	}
	return json.Marshal(generalDoc{Payload: b64.EncodeToString(encoded), Signatures: sigs})
}

func (b *Builder) build(ctx context.Context, payload interface{}) (*Message, error) {
	if b.header.Algorithm == "none" && !b.allowNone {
		return nil, ErrNoneNotAllowed
	}

	key, err := resolveKey(ctx, b.keys, b.service, b.header)
	if err != nil {
		if b.header.Algorithm == "none" {
			// the none algorithm requires no key material at all.
		} else {
			return nil, err
		}
	}

	h := b.header
	if h.Algorithm == "" && key != nil {
		h.Algorithm = string(key.Alg())
	}
	if h.KeyID == "" && key != nil {
		h.KeyID = key.ID()
	}
	if err := checkCritical(h, processedParams(h.Algorithm)); err != nil {
		return nil, err
	}

	encoded, _, err := b.encodePayload(payload)
	if err != nil {
		return nil, err
	}
	return b.signWith(h, key, encoded)
}

func (b *Builder) signWith(h Header, key jwk.Key, payload []byte) (*Message, error) {
	protected, err := h.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode header")
	}
	encodedHeader := make([]byte, b64.EncodedLen(len(protected)))
	b64.Encode(encodedHeader, protected)

	signingInput := make([]byte, 0, len(encodedHeader)+1+b64.EncodedLen(len(payload)))
	signingInput = append(signingInput, encodedHeader...)
	signingInput = append(signingInput, '.')
	signingInput = b64.AppendEncode(signingInput, payload)

	if h.Algorithm == "none" {
		return &Message{header: h, protected: encodedHeader, payload: payload}, nil
	}
	if key == nil {
		return nil, ErrNoSuitableKey
	}
	hf, err := jwaAlg(h.Algorithm).HashFunction()
	if err != nil {
		return nil, err
	}
	sig, err := key.Sign(rand.Reader, signingInput, hf)
	if err != nil {
		return nil, errors.Wrap(err, "signing failed")
	}
	return &Message{header: h, protected: encodedHeader, payload: payload, signature: sig}, nil
}

// encodePayload runs the builder's Encoder and returns the resulting
// bytes plus the effective content type used to pick it (reserved for
// a future media-type converter registry).
func (b *Builder) encodePayload(payload interface{}) ([]byte, string, error) {
	data, err := b.encoder(payload)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to encode payload")
	}
	return data, b.header.ContentType, nil
}
