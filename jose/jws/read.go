package jws

import (
	"context"
	"encoding/json"

	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose/jwk"
)

// Reader parses and verifies JWS objects, mirroring the Builder's
// functional-options shape.
type Reader struct {
	keys       []jwk.Key
	service    *jwk.Service
	decoder    Decoder
	wantType   string // "" means no constraint.
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

// WithReaderKeys supplies the candidate verification keys.
func WithReaderKeys(keys ...jwk.Key) ReadOption {
	return func(r *Reader) { r.keys = keys }
}

// WithReaderService attaches a jwk.Service consulted when no supplied
// key satisfies the header.
func WithReaderService(svc *jwk.Service) ReadOption {
	return func(r *Reader) { r.service = svc }
}

// WithReaderDecoder overrides the default payload Decoder.
func WithReaderDecoder(dec Decoder) ReadOption {
	return func(r *Reader) { r.decoder = dec }
}

// RequireType rejects objects whose "typ" header does not match `typ`.
// An empty `typ` places no constraint on the header.
func RequireType(typ string) ReadOption {
	return func(r *Reader) { r.wantType = typ }
}

// ForbidContentType rejects objects that carry a "cty" header, as JWT
// readers do for their top-level token.
func ForbidContentType() ReadOption {
	return func(r *Reader) { r.forbidCTY = true }
}

// Understands declares extra "crit" extension names the reader itself
// recognizes, beyond the header's own registered members and the
// algorithm's processed parameters.
func Understands(names ...string) ReadOption {
	return func(r *Reader) {
		for _, n := range names {
			r.understood[n] = true
		}
	}
}

// Read parses and verifies a compact-serialized JWS, returning the
// Message on the first key whose signature verifies. On exhaustion
// returns a *VerificationError aggregating every per-key failure.
func (r *Reader) Read(token string) (*Message, error) {
	return r.read(context.Background(), token, nil)
}

// ReadDetached verifies a detached-compact JWS (empty payload segment),
// supplying the out-of-band payload bytes explicitly.
func (r *Reader) ReadDetached(token string, payload []byte) (*Message, error) {
	return r.read(context.Background(), token, payload)
}

func (r *Reader) read(ctx context.Context, token string, detachedPayload []byte) (*Message, error) {
	header, protected, payloadSeg, sigSeg, err := splitCompact(token)
	if err != nil {
		return nil, err
	}
	if err := r.checkHeaderConstraints(header); err != nil {
		return nil, err
	}

	var payload []byte
	if payloadSeg == "" {
		payload = detachedPayload
	} else {
		payload, err = b64.DecodeString(payloadSeg)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidJOSE, "invalid payload segment")
		}
	}
	sig, err := b64.DecodeString(sigSeg)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid signature segment")
	}

	signingInput := make([]byte, 0, len(protected)+1+b64.EncodedLen(len(payload)))
	signingInput = append(signingInput, protected...)
	signingInput = append(signingInput, '.')
	signingInput = b64.AppendEncode(signingInput, payload)

	if header.Algorithm == "none" {
		return &Message{header: header, protected: protected, payload: payload}, nil
	}

	candidates, err := candidateKeys(ctx, r.keys, r.service, header)
	if err != nil {
		return nil, err
	}
	hf, err := jwaAlg(header.Algorithm).HashFunction()
	if err != nil {
		return nil, err
	}

	failures := make(map[string]error)
	for _, k := range candidates {
		if k.Verify(hf, signingInput, sig) {
			return &Message{header: header, protected: protected, payload: payload, signature: sig}, nil
		}
		failures[k.ID()] = errors.New("signature mismatch")
	}
	return nil, &VerificationError{Causes: failures}
}

func (r *Reader) checkHeaderConstraints(h Header) error {
	if r.wantType != "" && h.Type != r.wantType {
		return errors.Wrap(ErrInvalidJOSE, "unexpected 'typ' value")
	}
	if r.forbidCTY && h.ContentType != "" {
		return errors.Wrap(ErrInvalidJOSE, "unexpected 'cty' value")
	}
	processed := processedParams(h.Algorithm)
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

// jsonDoc is used to sniff whether an incoming JSON document is the
// flattened or general serialization before decoding into the right shape.
type jsonDoc struct {
	Payload    string      `json:"payload"`
	Protected  string      `json:"protected,omitempty"`
	Header     *Header     `json:"header,omitempty"`
	Signature  string      `json:"signature,omitempty"`
	Signatures []signature `json:"signatures,omitempty"`
}

// Decode recovers a typed payload from a verified Message using the
// Reader's configured Decoder (the JSON Decoder by default).
func (r *Reader) Decode(m *Message, target interface{}) error {
	return r.decoder(m.Payload(), target)
}

// ReadJSON parses and verifies the JSON (general or flattened)
// serialization, returning one verified Message per recipient whose
// signature checks out.
func (r *Reader) ReadJSON(data []byte) ([]*Message, error) {
	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid JSON serialization")
	}
	payload, err := b64.DecodeString(doc.Payload)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidJOSE, "invalid payload segment")
	}

	sigs := doc.Signatures
	if len(sigs) == 0 {
		sigs = []signature{{Protected: doc.Protected, Signature: doc.Signature}}
	}

	out := make([]*Message, 0, len(sigs))
	var lastErr error
	for _, s := range sigs {
		header, protected, err := decodeProtected(s.Protected)
		if err != nil {
			lastErr = err
			continue
		}
		if err := r.checkHeaderConstraints(header); err != nil {
			lastErr = err
			continue
		}
		sig, err := b64.DecodeString(s.Signature)
		if err != nil {
			lastErr = errors.Wrap(ErrInvalidJOSE, "invalid signature segment")
			continue
		}
		signingInput := make([]byte, 0, len(protected)+1+b64.EncodedLen(len(payload)))
		signingInput = append(signingInput, protected...)
		signingInput = append(signingInput, '.')
		signingInput = b64.AppendEncode(signingInput, payload)

		candidates, err := candidateKeys(context.Background(), r.keys, r.service, header)
		if err != nil {
			lastErr = err
			continue
		}
		hf, err := jwaAlg(header.Algorithm).HashFunction()
		if err != nil {
			lastErr = err
			continue
		}
		for _, k := range candidates {
			if k.Verify(hf, signingInput, sig) {
				out = append(out, &Message{header: header, protected: protected, payload: payload, signature: sig})
				break
			}
		}
	}
	if len(out) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, &VerificationError{Causes: map[string]error{"*": errors.New("no recipient verified")}}
	}
	return out, nil
}

func decodeProtected(protected string) (Header, []byte, error) {
	raw, err := b64.DecodeString(protected)
	if err != nil {
		return Header{}, nil, errors.Wrap(ErrInvalidJOSE, "invalid protected header segment")
	}
	var h Header
	if err := h.UnmarshalJSON(raw); err != nil {
		return Header{}, nil, errors.Wrap(ErrInvalidJOSE, "invalid protected header JSON")
	}
	return h, []byte(protected), nil
}
