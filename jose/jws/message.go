package jws

import (
	"encoding/json"
	"strings"

	"go.bryk.io/jose-uri/errors"
)

// Message is a built or successfully read JSON Web Signature: a header,
// the raw (already content/compression-encoded) payload bytes and the
// signature produced over them.
type Message struct {
	header    Header
	protected []byte // cached base64url(headerJSON) segment, computed once at Build/Read time.
	payload   []byte
	signature []byte
}

// Header returns the message's JOSE header.
func (m *Message) Header() Header { return m.header }

// Payload returns the decoded-from-base64, still content-encoded
// payload bytes (before any `cty` conversion back to a typed value).
func (m *Message) Payload() []byte { return m.payload }

// Signature returns the raw signature bytes.
func (m *Message) Signature() []byte { return m.signature }

// SigningInput reproduces `base64url(headerJson) || "." || base64url(payload)`,
// the exact byte sequence the signature was computed over.
func (m *Message) SigningInput() []byte {
	out := make([]byte, 0, len(m.protected)+1+b64.EncodedLen(len(m.payload)))
	out = append(out, m.protected...)
	out = append(out, '.')
	out = b64.AppendEncode(out, m.payload)
	return out
}

// String renders the compact serialization `h.p.s`.
func (m *Message) String() string {
	return string(m.protected) + "." + b64.EncodeToString(m.payload) + "." + b64.EncodeToString(m.signature)
}

// DetachedString renders the detached-compact serialization `h..s`,
// omitting the payload segment per spec.md §4.5.
func (m *Message) DetachedString() string {
	return string(m.protected) + ".." + b64.EncodeToString(m.signature)
}

// flattenedDoc is the JSON shape of a single-signature JWS (RFC-7515 §7.2.2).
type flattenedDoc struct {
	Payload   string  `json:"payload"`
	Protected string  `json:"protected,omitempty"`
	Header    *Header `json:"header,omitempty"`
	Signature string  `json:"signature"`
}

// JSON renders the flattened JSON serialization for a single signer.
func (m *Message) JSON() ([]byte, error) {
	doc := flattenedDoc{
		Payload:   b64.EncodeToString(m.payload),
		Protected: string(m.protected),
		Signature: b64.EncodeToString(m.signature),
	}
	return json.Marshal(doc)
}

// generalDoc is the JSON shape of a multi-signature JWS (RFC-7515 §7.2.1).
type generalDoc struct {
	Payload    string      `json:"payload"`
	Signatures []signature `json:"signatures"`
}

type signature struct {
	Protected string  `json:"protected,omitempty"`
	Header    *Header `json:"header,omitempty"`
	Signature string  `json:"signature"`
}

// splitCompact parses a compact (or detached-compact) serialization into
// its three segments, decoding the header but leaving payload/signature
// as raw base64url text for the caller to decode selectively.
func splitCompact(token string) (header Header, protected []byte, payloadSeg, sigSeg string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Header{}, nil, "", "", errors.Wrap(ErrInvalidJOSE, "expected 3 compact segments")
	}
	protected = []byte(parts[0])
	raw, derr := b64.DecodeString(parts[0])
	if derr != nil {
		return Header{}, nil, "", "", errors.Wrap(ErrInvalidJOSE, "invalid header segment")
	}
	if err := header.UnmarshalJSON(raw); err != nil {
		return Header{}, nil, "", "", errors.Wrap(ErrInvalidJOSE, "invalid header JSON")
	}
	return header, protected, parts[1], parts[2], nil
}
