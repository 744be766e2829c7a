package jwe

import (
	"strings"
	"testing"

	tdd "github.com/stretchr/testify/assert"
	"go.bryk.io/jose-uri/jose/jwa"
	"go.bryk.io/jose-uri/jose/jwk"
)

type claims struct {
	Issuer string `json:"iss,omitempty"`
}

func TestDirectA256GCMRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.GenerateOCT(32)
	assert.Nil(err)
	key.SetID("k1")
	key.MarkTrusted()

	b := NewBuilder(
		WithAlgorithm(string(jwa.DIR)),
		WithEncryption(string(jwa.A256GCM)),
		WithKeyID("k1"),
		WithKeys(key),
	)
	msg, err := b.Build(claims{Issuer: "joe"})
	assert.Nil(err)

	compact := msg.String()
	assert.Equal(4, strings.Count(compact, "."))
	parts := strings.Split(compact, ".")
	assert.Equal("", parts[1]) // 'dir' carries no encrypted-key segment.

	r := NewReader(WithReaderKeys(key))
	out, err := r.Read(compact)
	assert.Nil(err)

	var recovered claims
	assert.Nil(jsonDecoder(out.Plaintext(), &recovered))
	assert.Equal("joe", recovered.Issuer)

	// flip a byte of the ciphertext segment: must fail closed.
	ct, err := b64.DecodeString(parts[3])
	assert.Nil(err)
	ct[0] ^= 0x01
	tampered := parts[0] + "." + parts[1] + "." + parts[2] + "." + b64.EncodeToString(ct) + "." + parts[4]
	_, err = r.Read(tampered)
	assert.NotNil(err)
}

// S6: A128CBC-HS256 content encryption wrapped under RSA-OAEP.
func TestRSAOAEPWrapRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.GenerateRSA(2048, false)
	assert.Nil(err)
	key.SetID("rsa-1")
	key.MarkTrusted()

	b := NewBuilder(
		WithAlgorithm(string(jwa.RSAOAEP256)),
		WithEncryption(string(jwa.A128CBCHS256)),
		WithKeyID("rsa-1"),
		WithKeys(key),
	)
	msg, err := b.Build([]byte("the true sign of intelligence is not knowledge but imagination"))
	assert.Nil(err)

	compact := msg.String()
	parts := strings.Split(compact, ".")
	assert.Equal(5, len(parts))
	assert.NotEqual("", parts[1]) // wrapped key segment is non-empty.

	r := NewReader(WithReaderKeys(key))
	out, err := r.Read(compact)
	assert.Nil(err)
	assert.Equal([]byte("the true sign of intelligence is not knowledge but imagination"), out.Plaintext())

	// flip a byte of the ciphertext: decryption must fail, not panic.
	ct, err := b64.DecodeString(parts[3])
	assert.Nil(err)
	ct[len(ct)-1] ^= 0x01
	tampered := parts[0] + "." + parts[1] + "." + parts[2] + "." + b64.EncodeToString(ct) + "." + parts[4]
	_, err = r.Read(tampered)
	assert.NotNil(err)
}

// S7: ECDH-ES direct key agreement over P-256, A256GCM content encryption.
func TestECDHESDirectRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	recipient, err := jwk.GenerateEC(jwa.ES256)
	assert.Nil(err)
	recipient.SetID("ec-1")
	recipient.MarkTrusted()

	b := NewBuilder(
		WithAlgorithm(string(jwa.ECDHES)),
		WithEncryption(string(jwa.A256GCM)),
		WithKeyID("ec-1"),
		WithKeys(recipient),
	)
	msg, err := b.Build([]byte("live long and prosper"))
	assert.Nil(err)

	compact := msg.String()
	parts := strings.Split(compact, ".")
	assert.Equal(5, len(parts))
	assert.Equal("", parts[1]) // direct agreement: no encrypted-key segment.
	assert.NotNil(msg.Header().EPK)

	r := NewReader(WithReaderKeys(recipient))
	out, err := r.Read(compact)
	assert.Nil(err)
	assert.Equal([]byte("live long and prosper"), out.Plaintext())
}

func TestA128KWRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.GenerateOCT(16)
	assert.Nil(err)
	key.SetID("kw-1")
	key.MarkTrusted()

	b := NewBuilder(
		WithAlgorithm(string(jwa.A128KW)),
		WithEncryption(string(jwa.A128GCM)),
		WithKeyID("kw-1"),
		WithKeys(key),
	)
	msg, err := b.Build([]byte("wrapped"))
	assert.Nil(err)

	r := NewReader(WithReaderKeys(key))
	out, err := r.Read(msg.String())
	assert.Nil(err)
	assert.Equal([]byte("wrapped"), out.Plaintext())
}

func TestPBES2RoundTrip(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.GeneratePBES2([]byte("correct horse battery staple"))
	assert.Nil(err)
	key.SetID("pw-1")
	key.MarkTrusted()

	b := NewBuilder(
		WithAlgorithm(string(jwa.PBES2HS256A128KW)),
		WithEncryption(string(jwa.A128GCM)),
		WithKeyID("pw-1"),
		WithKeys(key),
		WithPBES2IterationCount(1000),
	)
	msg, err := b.Build([]byte("password protected"))
	assert.Nil(err)
	assert.NotEqual("", msg.Header().P2S)
	assert.Equal(1000, msg.Header().P2C)

	r := NewReader(WithReaderKeys(key))
	out, err := r.Read(msg.String())
	assert.Nil(err)
	assert.Equal([]byte("password protected"), out.Plaintext())
}

func TestFlattenedJSONRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.GenerateOCT(32)
	assert.Nil(err)
	key.SetID("k1")
	key.MarkTrusted()

	b := NewBuilder(
		WithAlgorithm(string(jwa.DIR)),
		WithEncryption(string(jwa.A256GCM)),
		WithKeyID("k1"),
		WithKeys(key),
	)
	doc, err := b.BuildJSON([]byte("flat-payload"))
	assert.Nil(err)

	r := NewReader(WithReaderKeys(key))
	msgs, err := r.ReadJSON(doc)
	assert.Nil(err)
	assert.Equal(1, len(msgs))
	assert.Equal([]byte("flat-payload"), msgs[0].Plaintext())
}

func TestGeneralJSONMultiRecipientRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	k1, err := jwk.GenerateOCT(16)
	assert.Nil(err)
	k1.SetID("r1")
	k1.MarkTrusted()

	k2, err := jwk.GenerateOCT(16)
	assert.Nil(err)
	k2.SetID("r2")
	k2.MarkTrusted()

	b := NewBuilder(
		WithAlgorithm(string(jwa.A128KW)),
		WithEncryption(string(jwa.A128GCM)),
		WithKeys(k1, k2),
	)
	doc, err := b.BuildJSON([]byte("shared-secret"))
	assert.Nil(err)

	var general generalDoc
	assert.Nil(jsonDecoder(doc, &general))
	assert.Equal(2, len(general.Recipients))
	// both recipients must wrap the same CEK: their encrypted_key blobs
	// differ, but either key decrypts the shared ciphertext to the same
	// plaintext.
	assert.NotEqual(general.Recipients[0].EncryptedKey, general.Recipients[1].EncryptedKey)

	r1 := NewReader(WithReaderKeys(k1))
	msgs, err := r1.ReadJSON(doc)
	assert.Nil(err)
	assert.Equal(1, len(msgs))
	assert.Equal([]byte("shared-secret"), msgs[0].Plaintext())

	r2 := NewReader(WithReaderKeys(k2))
	msgs, err = r2.ReadJSON(doc)
	assert.Nil(err)
	assert.Equal(1, len(msgs))
	assert.Equal([]byte("shared-secret"), msgs[0].Plaintext())
}

func TestDirectJSONRejectsMultipleRecipients(t *testing.T) {
	assert := tdd.New(t)

	k1, err := jwk.GenerateOCT(32)
	assert.Nil(err)
	k1.MarkTrusted()
	k2, err := jwk.GenerateOCT(32)
	assert.Nil(err)
	k2.MarkTrusted()

	b := NewBuilder(
		WithAlgorithm(string(jwa.DIR)),
		WithEncryption(string(jwa.A256GCM)),
		WithKeys(k1, k2),
	)
	_, err = b.BuildJSON([]byte("hi"))
	assert.NotNil(err)
}

func TestCompressionRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.GenerateOCT(32)
	assert.Nil(err)
	key.MarkTrusted()

	payload := strings.Repeat("compress me please ", 50)
	b := NewBuilder(
		WithAlgorithm(string(jwa.DIR)),
		WithEncryption(string(jwa.A256GCM)),
		WithCompression("DEF"),
		WithKeys(key),
	)
	msg, err := b.Build([]byte(payload))
	assert.Nil(err)

	r := NewReader(WithReaderKeys(key))
	out, err := r.Read(msg.String())
	assert.Nil(err)
	assert.Equal([]byte(payload), out.Plaintext())
}

func TestCriticalUnknownExtension(t *testing.T) {
	assert := tdd.New(t)

	key, err := jwk.GenerateOCT(32)
	assert.Nil(err)
	key.MarkTrusted()

	b := NewBuilder(
		WithAlgorithm(string(jwa.DIR)),
		WithEncryption(string(jwa.A256GCM)),
		WithKeys(key),
		WithCritical("dummy-ext"),
	)
	_, err = b.Build([]byte("hi"))
	assert.ErrorIs(err, ErrUnknownCritical)
}

func TestBuildNoSuitableKey(t *testing.T) {
	assert := tdd.New(t)

	b := NewBuilder(WithAlgorithm(string(jwa.DIR)), WithEncryption(string(jwa.A256GCM)))
	_, err := b.Build([]byte("hi"))
	assert.ErrorIs(err, ErrNoSuitableKey)
}
