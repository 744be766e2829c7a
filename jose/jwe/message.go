package jwe

import (
	"encoding/json"
	"strings"

	"go.bryk.io/jose-uri/errors"
)

// Message is a built or successfully read JSON Web Encryption object.
type Message struct {
	header       Header
	protected    []byte // cached base64url(headerJSON) segment.
	encryptedKey []byte
	iv           []byte
	ciphertext   []byte
	tag          []byte
	aad          []byte // optional external AAD, JSON serialization only.
	plaintext    []byte
}

// Header returns the message's JOSE header.
func (m *Message) Header() Header { return m.header }

// Plaintext returns the decrypted, still content-encoded plaintext bytes
// (before any "cty" conversion back to a typed value).
func (m *Message) Plaintext() []byte { return m.plaintext }

// String renders the compact serialization `h.k.iv.ct.tag`.
func (m *Message) String() string {
	return string(m.protected) + "." +
		b64.EncodeToString(m.encryptedKey) + "." +
		b64.EncodeToString(m.iv) + "." +
		b64.EncodeToString(m.ciphertext) + "." +
		b64.EncodeToString(m.tag)
}

// recipient is the per-recipient JSON shape (RFC-7516 §7.2.1).
type recipient struct {
	Header       *Header `json:"header,omitempty"`
	EncryptedKey string  `json:"encrypted_key,omitempty"`
}

// flattenedDoc is the JSON shape of a single-recipient JWE (RFC-7516 §7.2.1).
type flattenedDoc struct {
	Protected    string  `json:"protected,omitempty"`
	Unprotected  *Header `json:"unprotected,omitempty"`
	Header       *Header `json:"header,omitempty"`
	EncryptedKey string  `json:"encrypted_key,omitempty"`
	AAD          string  `json:"aad,omitempty"`
	IV           string  `json:"iv"`
	Ciphertext   string  `json:"ciphertext"`
	Tag          string  `json:"tag"`
}

// JSON renders the flattened JSON serialization for a single recipient.
func (m *Message) JSON() ([]byte, error) {
	doc := flattenedDoc{
		Protected:    string(m.protected),
		EncryptedKey: b64.EncodeToString(m.encryptedKey),
		IV:           b64.EncodeToString(m.iv),
		Ciphertext:   b64.EncodeToString(m.ciphertext),
		Tag:          b64.EncodeToString(m.tag),
	}
	if len(m.aad) > 0 {
		doc.AAD = b64.EncodeToString(m.aad)
	}
	return json.Marshal(doc)
}

// generalDoc is the JSON shape of a multi-recipient JWE (RFC-7516 §7.2.1).
type generalDoc struct {
	Protected   string      `json:"protected,omitempty"`
	Unprotected *Header     `json:"unprotected,omitempty"`
	AAD         string      `json:"aad,omitempty"`
	IV          string      `json:"iv"`
	Ciphertext  string      `json:"ciphertext"`
	Tag         string      `json:"tag"`
	Recipients  []recipient `json:"recipients"`
}

// splitCompact parses a compact serialization into its five segments,
// decoding the header but leaving the rest as raw base64url text.
func splitCompact(token string) (header Header, protected []byte, encKeySeg, ivSeg, ctSeg, tagSeg string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 5 {
		return Header{}, nil, "", "", "", "", errors.Wrap(ErrInvalidJOSE, "expected 5 compact segments")
	}
	protected = []byte(parts[0])
	raw, derr := b64.DecodeString(parts[0])
	if derr != nil {
		return Header{}, nil, "", "", "", "", errors.Wrap(ErrInvalidJOSE, "invalid header segment")
	}
	if err := header.UnmarshalJSON(raw); err != nil {
		return Header{}, nil, "", "", "", "", errors.Wrap(ErrInvalidJOSE, "invalid header JSON")
	}
	return header, protected, parts[1], parts[2], parts[3], parts[4], nil
}
