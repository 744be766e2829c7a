package jwe

import (
	"context"
	"encoding/json"

	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose/jwa"
	"go.bryk.io/jose-uri/jose/jwk"
)

// Reader parses and decrypts JWE objects, mirroring jws.Reader's
// functional-options shape.
type Reader struct {
	keys       []jwk.Key
	service    *jwk.Service
	decoder    Decoder
	wantType   string
	forbidCTY  bool
	understood map[string]bool
}

// ReadOption configures a Reader.
type ReadOption func(*Reader)

// NewReader returns a Reader using the JSON Decoder by default.
func NewReader(opts ...ReadOption) *Reader {
	r := &Reader{decoder: jsonDecoder, understood: map[string]bool{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithReaderKeys supplies the candidate decryption keys.
func WithReaderKeys(keys ...jwk.Key) ReadOption {
	return func(r *Reader) { r.keys = keys }
}

// WithReaderService attaches a jwk.Service consulted when no supplied
// key satisfies the header.
func WithReaderService(svc *jwk.Service) ReadOption {
	return func(r *Reader) { r.service = svc }
}

// WithReaderDecoder overrides the default plaintext Decoder.
func WithReaderDecoder(dec Decoder) ReadOption {
	return func(r *Reader) { r.decoder = dec }
}

// RequireType rejects objects whose "typ" header does not match `typ`.
func RequireType(typ string) ReadOption {
	return func(r *Reader) { r.wantType = typ }
}

// ForbidContentType rejects objects that carry a "cty" header.
func ForbidContentType() ReadOption {
	return func(r *Reader) { r.forbidCTY = true }
}

// Understands declares extra "crit" extension names the reader itself
// recognizes.
func Understands(names ...string) ReadOption {
	return func(r *Reader) {
		for _, n := range names {
			r.understood[n] = true
		}
	}
}

// Decode recovers a typed plaintext from a decrypted Message using the
// Reader's configured Decoder.
func (r *Reader) Decode(m *Message, target interface{}) error {
	return r.decoder(m.Plaintext(), target)
}

// Read parses and decrypts a compact-serialized JWE.
func (r *Reader) Read(token string) (*Message, error) {
	header, protected, encKeySeg, ivSeg, ctSeg, tagSeg, err := splitCompact(token)
	if err != nil {
		return nil, err
	}
	encryptedKey, err := b64.DecodeString(encKeySeg)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid encrypted-key segment")
	}
	iv, err := b64.DecodeString(ivSeg)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid iv segment")
	}
	ciphertext, err := b64.DecodeString(ctSeg)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid ciphertext segment")
	}
	tag, err := b64.DecodeString(tagSeg)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid tag segment")
	}
	m, err := r.decrypt(context.Background(), header, protected, encryptedKey, iv, protected, ciphertext, tag)
	return m, err
}

func (r *Reader) checkHeaderConstraints(h Header) error {
	if r.wantType != "" && h.Type != r.wantType {
		return errors.Wrap(ErrInvalidJOSE, "unexpected 'typ' value")
	}
	if r.forbidCTY && h.ContentType != "" {
		return errors.Wrap(ErrInvalidJOSE, "unexpected 'cty' value")
	}
	processed := processedParams(h.Algorithm, h.EncryptionAlgorithm)
	understood := h.Understood()
	for name := range r.understood {
		understood[name] = true
	}
	for _, p := range processed {
		understood[p] = true
	}
	for _, name := range h.Critical {
		if !understood[name] {
			return errors.Wrap(ErrUnknownCritical, "'"+name+"'")
		}
	}
	return nil
}

// decrypt tries every candidate key in turn, returning the first one
// whose key recovery and content decryption both succeed.
func (r *Reader) decrypt(ctx context.Context, h Header, protected, encryptedKey, iv, aad, ciphertext, tag []byte) (*Message, error) {
	if err := r.checkHeaderConstraints(h); err != nil {
		return nil, err
	}
	cipherImpl, err := jwa.Alg(h.EncryptionAlgorithm).Cipher()
	if err != nil {
		return nil, err
	}
	candidates, err := candidateKeys(ctx, r.keys, r.service, h)
	if err != nil {
		return nil, err
	}

	failures := make(map[string]error)
	for _, k := range candidates {
		cek, err := recoverCEK(h, jwa.Alg(h.Algorithm), jwa.Alg(h.EncryptionAlgorithm), k, encryptedKey)
		if err != nil {
			failures[k.ID()] = err
			continue
		}
		plaintext, err := cipherImpl.Decrypt(cek, iv, aad, ciphertext, tag)
		if err != nil {
			failures[k.ID()] = err
			continue
		}
		if h.Compression == "DEF" {
			plaintext, err = inflate(plaintext)
			if err != nil {
				failures[k.ID()] = err
				continue
			}
		}
		return &Message{
			header:       h,
			protected:    protected,
			encryptedKey: encryptedKey,
			iv:           iv,
			ciphertext:   ciphertext,
			tag:          tag,
			plaintext:    plaintext,
		}, nil
	}
	return nil, &DecryptionError{Causes: failures}
}

// jsonDoc is used to sniff whether an incoming JSON document is the
// flattened or general serialization before decoding into the right shape.
type jsonDoc struct {
	Protected    string      `json:"protected,omitempty"`
	Unprotected  *Header     `json:"unprotected,omitempty"`
	Header       *Header     `json:"header,omitempty"`
	EncryptedKey string      `json:"encrypted_key,omitempty"`
	AAD          string      `json:"aad,omitempty"`
	IV           string      `json:"iv"`
	Ciphertext   string      `json:"ciphertext"`
	Tag          string      `json:"tag"`
	Recipients   []recipient `json:"recipients,omitempty"`
}

// ReadJSON parses and decrypts the JSON (general or flattened)
// serialization, returning one decrypted Message per recipient that
// successfully decrypts.
func (r *Reader) ReadJSON(data []byte) ([]*Message, error) {
	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid JSON serialization")
	}

	iv, err := b64.DecodeString(doc.IV)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid iv segment")
	}
	ciphertext, err := b64.DecodeString(doc.Ciphertext)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid ciphertext segment")
	}
	tag, err := b64.DecodeString(doc.Tag)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid tag segment")
	}

	protected, err := b64.DecodeString(doc.Protected)
	var sharedHeader Header
	if doc.Protected != "" {
		if err != nil {
			return nil, errors.Wrap(ErrInvalidJOSE, "invalid protected header segment")
		}
		if err := sharedHeader.UnmarshalJSON(protected); err != nil {
			return nil, errors.Wrap(ErrInvalidJOSE, "invalid protected header JSON")
		}
	}

	aad := []byte(doc.Protected)
	if doc.AAD != "" {
		externalAAD, aerr := b64.DecodeString(doc.AAD)
		if aerr != nil {
			return nil, errors.Wrap(ErrInvalidJOSE, "invalid aad segment")
		}
		aad = append(aad, '.')
		aad = b64.AppendEncode(aad, externalAAD)
	}

	recs := doc.Recipients
	if len(recs) == 0 {
		recs = []recipient{{Header: doc.Header, EncryptedKey: doc.EncryptedKey}}
	}

	out := make([]*Message, 0, len(recs))
	var lastErr error
	for _, rec := range recs {
		h := sharedHeader
		if doc.Unprotected != nil {
			h = mergeHeader(h, *doc.Unprotected)
		}
		if rec.Header != nil {
			h = mergeHeader(h, *rec.Header)
		}
		encryptedKey, derr := b64.DecodeString(rec.EncryptedKey)
		if derr != nil {
			lastErr = errors.Wrap(ErrInvalidJOSE, "invalid encrypted-key segment")
			continue
		}
		m, derr := r.decrypt(context.Background(), h, protected, encryptedKey, iv, aad, ciphertext, tag)
		if derr != nil {
			lastErr = derr
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, &DecryptionError{Causes: map[string]error{"*": errors.New("no recipient decrypted")}}
	}
	return out, nil
}

// mergeHeader layers `over` on top of `base`, used to combine the shared
// protected/unprotected header with a per-recipient header in the JSON
// serialization.
func mergeHeader(base, over Header) Header {
	merged := base
	if over.Algorithm != "" {
		merged.Algorithm = over.Algorithm
	}
	if over.EncryptionAlgorithm != "" {
		merged.EncryptionAlgorithm = over.EncryptionAlgorithm
	}
	if over.KeyID != "" {
		merged.KeyID = over.KeyID
	}
	if over.EPK != nil {
		merged.EPK = over.EPK
	}
	if over.APU != "" {
		merged.APU = over.APU
	}
	if over.APV != "" {
		merged.APV = over.APV
	}
	if over.IV != "" {
		merged.IV = over.IV
	}
	if over.Tag != "" {
		merged.Tag = over.Tag
	}
	if over.P2S != "" {
		merged.P2S = over.P2S
	}
	if over.P2C != 0 {
		merged.P2C = over.P2C
	}
	for k, v := range over.Extra {
		if merged.Extra == nil {
			merged.Extra = make(map[string]interface{})
		}
		merged.Extra[k] = v
	}
	return merged
}
