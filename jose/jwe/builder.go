package jwe

import (
	"context"
	"encoding/json"

	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose/jwa"
	"go.bryk.io/jose-uri/jose/jwk"
)

// Builder composes a JOSE header and plaintext into an encrypted Message,
// mirroring the functional-options shape of jws.Builder.
type Builder struct {
	header  Header
	keys    []jwk.Key
	service *jwk.Service
	encoder Encoder
	p2c     int
	aad     []byte
}

// Option configures a Builder.
type Option func(*Builder)

// NewBuilder returns a Builder ready to encrypt plaintexts, defaulting to
// the JSON Encoder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{encoder: jsonEncoder}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithAlgorithm sets the key management algorithm identifier ("alg").
func WithAlgorithm(alg string) Option {
	return func(b *Builder) { b.header.Algorithm = alg }
}

// WithEncryption sets the content encryption algorithm identifier ("enc").
func WithEncryption(enc string) Option {
	return func(b *Builder) { b.header.EncryptionAlgorithm = enc }
}

// WithCompression enables the "DEF" plaintext compression algorithm.
func WithCompression(zip string) Option {
	return func(b *Builder) { b.header.Compression = zip }
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

// WithAPU sets the raw (not yet base64url-encoded) Agreement PartyUInfo
// value used by ECDH-ES key management.
func WithAPU(apu []byte) Option {
	return func(b *Builder) { b.header.APU = b64.EncodeToString(apu) }
}

// WithAPV sets the raw Agreement PartyVInfo value.
func WithAPV(apv []byte) Option {
	return func(b *Builder) { b.header.APV = b64.EncodeToString(apv) }
}

// WithPBES2IterationCount overrides the default PBES2 "p2c" iteration count.
func WithPBES2IterationCount(n int) Option {
	return func(b *Builder) { b.p2c = n }
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

// WithEncoder overrides the default plaintext Encoder.
func WithEncoder(enc Encoder) Option {
	return func(b *Builder) { b.encoder = enc }
}

// WithKeys supplies the candidate recipient keys.
func WithKeys(keys ...jwk.Key) Option {
	return func(b *Builder) { b.keys = keys }
}

// WithService attaches a jwk.Service consulted when no supplied key
// satisfies the header.
func WithService(svc *jwk.Service) Option {
	return func(b *Builder) { b.service = svc }
}

// WithAAD sets the external Additional Authenticated Data used by the
// JSON serialization (RFC-7516 §5.1 step 14); compact serialization
// never carries external AAD.
func WithAAD(aad []byte) Option {
	return func(b *Builder) { b.aad = aad }
}

// Build encrypts `payload`, returning the resulting Message.
func (b *Builder) Build(payload interface{}) (*Message, error) {
	return b.build(context.Background(), payload, nil)
}

// BuildJSON renders the JSON serialization (flattened for a single
// recipient, general for several). Per RFC-7516 §5.1, the content is
// encrypted exactly once under one CEK; each recipient only contributes
// its own wrapping of that same CEK. Direct key management algorithms
// ("dir", "ECDH-ES") derive the CEK from a single key and therefore
// reject more than one candidate recipient.
func (b *Builder) BuildJSON(payload interface{}) ([]byte, error) {
	ctx := context.Background()
	keys, err := candidateKeys(ctx, b.keys, b.service, b.header)
	if err != nil {
		return nil, err
	}
	if b.header.Algorithm == "" || b.header.EncryptionAlgorithm == "" {
		return nil, errors.New("both 'alg' and 'enc' must be set")
	}
	alg := jwa.Alg(b.header.Algorithm)
	algKind, err := alg.Kind()
	if err != nil {
		return nil, err
	}
	if algKind == jwa.KeyMgmtDirect && len(keys) > 1 {
		return nil, errors.New("direct key management algorithms support only a single recipient")
	}

	sharedHeader := b.header
	sharedHeader.KeyID = ""
	if err := checkCritical(sharedHeader, processedParams(sharedHeader.Algorithm, sharedHeader.EncryptionAlgorithm)); err != nil {
		return nil, err
	}

	cipherImpl, err := jwa.Alg(sharedHeader.EncryptionAlgorithm).Cipher()
	if err != nil {
		return nil, err
	}

	plaintext, err := b.encoder(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payload")
	}
	toEncrypt := plaintext
	if sharedHeader.Compression == "DEF" {
		toEncrypt, err = deflate(plaintext)
		if err != nil {
			return nil, errors.Wrap(err, "failed to compress payload")
		}
	}

	recipients := make([]recipient, 0, len(keys))
	var cek []byte
	if algKind == jwa.KeyMgmtDirect {
		recHeader := sharedHeader
		recHeader.KeyID = keys[0].ID()
		var encryptedKey []byte
		cek, encryptedKey, err = deriveCEK(&recHeader, alg, jwa.Alg(sharedHeader.EncryptionAlgorithm), keys[0], b.p2c)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, recipient{
			Header:       recipientHeader(recHeader),
			EncryptedKey: b64.EncodeToString(encryptedKey),
		})
	} else {
		cek, err = jwa.RandomBytes(cipherImpl.KeySize())
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			recHeader := sharedHeader
			recHeader.KeyID = k.ID()
			encryptedKey, werr := wrapCEK(&recHeader, alg, cek, k, b.p2c)
			if werr != nil {
				return nil, werr
			}
			recipients = append(recipients, recipient{
				Header:       recipientHeader(recHeader),
				EncryptedKey: b64.EncodeToString(encryptedKey),
			})
		}
	}

	protected, err := sharedHeader.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode header")
	}
	encodedHeader := make([]byte, b64.EncodedLen(len(protected)))
	b64.Encode(encodedHeader, protected)

	aad := make([]byte, len(encodedHeader))
	copy(aad, encodedHeader)
	if len(b.aad) > 0 {
		aad = append(aad, '.')
		aad = b64.AppendEncode(aad, b.aad)
	}

	iv, err := jwa.RandomBytes(cipherImpl.IVSize())
	if err != nil {
		return nil, err
	}
	ciphertext, tag, err := cipherImpl.Encrypt(cek, iv, aad, toEncrypt)
	if err != nil {
		return nil, errors.Wrap(err, "content encryption failed")
	}

	if len(recipients) == 1 {
		doc := flattenedDoc{
			Protected:    string(encodedHeader),
			Header:       recipients[0].Header,
			EncryptedKey: recipients[0].EncryptedKey,
			IV:           b64.EncodeToString(iv),
			Ciphertext:   b64.EncodeToString(ciphertext),
			Tag:          b64.EncodeToString(tag),
		}
		if len(b.aad) > 0 {
			doc.AAD = b64.EncodeToString(b.aad)
		}
		return json.Marshal(doc)
	}
	doc := generalDoc{
		Protected:  string(encodedHeader),
		IV:         b64.EncodeToString(iv),
		Ciphertext: b64.EncodeToString(ciphertext),
		Tag:        b64.EncodeToString(tag),
		Recipients: recipients,
	}
	if len(b.aad) > 0 {
		doc.AAD = b64.EncodeToString(b.aad)
	}
	return json.Marshal(doc)
}

// recipientHeader extracts the per-recipient header members (kid and
// whatever a key-management step stamped into `full`) that must travel
// in a recipient's own "header" object rather than the shared protected
// header. Returns nil when nothing in `full` is recipient-specific.
func recipientHeader(full Header) *Header {
	if full.KeyID == "" && full.EPK == nil && full.IV == "" && full.Tag == "" && full.P2S == "" && full.P2C == 0 {
		return nil
	}
	return &Header{
		KeyID: full.KeyID,
		EPK:   full.EPK,
		IV:    full.IV,
		Tag:   full.Tag,
		P2S:   full.P2S,
		P2C:   full.P2C,
	}
}

func (b *Builder) build(ctx context.Context, payload interface{}, forKey jwk.Key) (*Message, error) {
	key := forKey
	var err error
	if key == nil {
		key, err = resolveKey(ctx, b.keys, b.service, b.header)
		if err != nil {
			return nil, err
		}
	}

	h := b.header
	if h.Algorithm == "" || h.EncryptionAlgorithm == "" {
		return nil, errors.New("both 'alg' and 'enc' must be set")
	}
	if h.KeyID == "" {
		h.KeyID = key.ID()
	}
	if err := checkCritical(h, processedParams(h.Algorithm, h.EncryptionAlgorithm)); err != nil {
		return nil, err
	}

	cipherImpl, err := jwa.Alg(h.EncryptionAlgorithm).Cipher()
	if err != nil {
		return nil, err
	}

	plaintext, err := b.encoder(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payload")
	}
	toEncrypt := plaintext
	if h.Compression == "DEF" {
		toEncrypt, err = deflate(plaintext)
		if err != nil {
			return nil, errors.Wrap(err, "failed to compress payload")
		}
	}

	cek, encryptedKey, err := deriveCEK(&h, jwa.Alg(h.Algorithm), jwa.Alg(h.EncryptionAlgorithm), key, b.p2c)
	if err != nil {
		return nil, err
	}

	protected, err := h.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode header")
	}
	encodedHeader := make([]byte, b64.EncodedLen(len(protected)))
	b64.Encode(encodedHeader, protected)

	aad := make([]byte, len(encodedHeader))
	copy(aad, encodedHeader)
	if len(b.aad) > 0 {
		aad = append(aad, '.')
		aad = b64.AppendEncode(aad, b.aad)
	}

	iv, err := jwa.RandomBytes(cipherImpl.IVSize())
	if err != nil {
		return nil, err
	}
	ciphertext, tag, err := cipherImpl.Encrypt(cek, iv, aad, toEncrypt)
	if err != nil {
		return nil, errors.Wrap(err, "content encryption failed")
	}

	return &Message{
		header:       h,
		protected:    encodedHeader,
		encryptedKey: encryptedKey,
		iv:           iv,
		ciphertext:   ciphertext,
		tag:          tag,
		aad:          b.aad,
		plaintext:    plaintext,
	}, nil
}
