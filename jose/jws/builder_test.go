package jws

import (
	"strings"
	"testing"

	tdd "github.com/stretchr/testify/assert"
	"go.bryk.io/jose-uri/jose/jwa"
	"go.bryk.io/jose-uri/jose/jwk"
)

type claims struct {
	Issuer     string `json:"iss,omitempty"`
	IsRoot     bool   `json:"http://example.com/is_root,omitempty"`
	Expiration int64  `json:"exp,omitempty"`
}

// S5: HS256 JWS round-trip, including the "flip the last signature byte"
// tamper-detection check.
func TestHS256RoundTrip(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.New(jwa.HS256)
	assert.Nil(err)
	key.SetID("k1")
	key.MarkTrusted()

	b := NewBuilder(
		WithAlgorithm(string(jwa.HS256)),
		WithKeyID("k1"),
		WithType("JWT"),
		WithKeys(key),
	)
	payload := claims{Issuer: "joe", IsRoot: true, Expiration: 9999999999}
	msg, err := b.Build(payload)
	assert.Nil(err)

	compact := msg.String()
	assert.Equal(2, strings.Count(compact, "."))

	r := NewReader(WithReaderKeys(key))
	out, err := r.Read(compact)
	assert.Nil(err)
	assert.Equal("JWT", out.Header().Type)

	var recovered claims
	assert.Nil(jsonDecoder(out.Payload(), &recovered))
	assert.Equal(payload, recovered)

	// tamper with the signature's last byte.
	parts := strings.Split(compact, ".")
	sigBytes, err := b64.DecodeString(parts[2])
	assert.Nil(err)
	sigBytes[len(sigBytes)-1] ^= 0x01
	tampered := parts[0] + "." + parts[1] + "." + b64.EncodeToString(sigBytes)

	_, err = r.Read(tampered)
	assert.NotNil(err)
}

func TestBuildRejectsNoneWithoutOptIn(t *testing.T) {
	assert := tdd.New(t)

	b := NewBuilder(WithAlgorithm("none"))
	_, err := b.Build([]byte("hi"))
	assert.ErrorIs(err, ErrNoneNotAllowed)
}

func TestBuildNoneRoundTripWithOptIn(t *testing.T) {
	assert := tdd.New(t)

	b := NewBuilder(WithAlgorithm("none"), AllowNone())
	msg, err := b.Build([]byte("hello"))
	assert.Nil(err)
	assert.Equal(3, strings.Count(msg.String(), ".")+1)

	r := NewReader()
	out, err := r.Read(msg.String())
	assert.Nil(err)
	assert.Equal([]byte("hello"), out.Payload())
}

func TestBuildNoSuitableKey(t *testing.T) {
	assert := tdd.New(t)

	b := NewBuilder(WithAlgorithm(string(jwa.HS256)))
	_, err := b.Build([]byte("hi"))
	assert.ErrorIs(err, ErrNoSuitableKey)
}

func TestDetachedCompact(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.New(jwa.HS256)
	assert.Nil(err)
	key.MarkTrusted()

	b := NewBuilder(WithAlgorithm(string(jwa.HS256)), WithKeys(key))
	detached, err := b.BuildDetached([]byte("payload"))
	assert.Nil(err)

	parts := strings.Split(detached, ".")
	assert.Equal(3, len(parts))
	assert.Equal("", parts[1])

	r := NewReader(WithReaderKeys(key))
	out, err := r.ReadDetached(detached, []byte("payload"))
	assert.Nil(err)
	assert.Equal([]byte("payload"), out.Payload())
}

func TestCriticalUnknownExtension(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.New(jwa.HS256)
	assert.Nil(err)
	key.MarkTrusted()

	b := NewBuilder(WithAlgorithm(string(jwa.HS256)), WithKeys(key), WithCritical("dummy-ext"))
	_, err = b.Build([]byte("hi"))
	assert.ErrorIs(err, ErrUnknownCritical)
}

func TestFlattenedJSONRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.New(jwa.HS256)
	assert.Nil(err)
	key.SetID("k1")
	key.MarkTrusted()

	b := NewBuilder(WithAlgorithm(string(jwa.HS256)), WithKeyID("k1"), WithKeys(key))
	doc, err := b.BuildJSON([]byte("flat-payload"))
	assert.Nil(err)

	r := NewReader(WithReaderKeys(key))
	msgs, err := r.ReadJSON(doc)
	assert.Nil(err)
	assert.Equal(1, len(msgs))
	assert.Equal([]byte("flat-payload"), msgs[0].Payload())
}

func TestGeneralJSONMultiSignature(t *testing.T) {
	assert := tdd.New(t)

	k1, _ := jwk.New(jwa.HS256)
	k1.SetID("k1")
	k1.MarkTrusted()
	k2, err := jwk.New(jwa.ES256)
	assert.Nil(err)
	k2.SetID("k2")
	k2.MarkTrusted()

	b := NewBuilder(WithKeys(k1, k2))
	doc, err := b.BuildJSON([]byte("multi"))
	assert.Nil(err)

	r := NewReader(WithReaderKeys(k1, k2))
	msgs, err := r.ReadJSON(doc)
	assert.Nil(err)
	assert.Equal(2, len(msgs))
}
