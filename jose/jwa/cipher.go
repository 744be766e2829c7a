package jwa

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"io"

	"go.bryk.io/jose-uri/errors"
)

// ErrAlgorithmMisuse is returned whenever a caller requests a capability
// (signer, key manager, content cipher) from an algorithm identifier that
// does not belong to the matching category.
var ErrAlgorithmMisuse = errors.New("algorithm does not support the requested operation")

// ContentCipher implements the "enc" algorithms of RFC-7518 §5: symmetric
// authenticated encryption of the JWE plaintext/ciphertext under the
// Content Encryption Key.
type ContentCipher interface {
	// KeySize returns the required raw CEK length in bytes.
	KeySize() int
	// IVSize returns the required initialization-vector length in bytes.
	IVSize() int
	// Encrypt authenticates `aad` and encrypts `plaintext` under `cek` and
	// `iv`, returning the ciphertext and the authentication tag.
	Encrypt(cek, iv, aad, plaintext []byte) (ciphertext, tag []byte, err error)
	// Decrypt verifies `tag` over `aad`+ciphertext and, on success, returns
	// the recovered plaintext.
	Decrypt(cek, iv, aad, ciphertext, tag []byte) ([]byte, error)
}

// Cipher returns the ContentCipher implementation for an EncKind algorithm.
// Returns ErrAlgorithmMisuse wrapped with the identifier when `a` is not a
// registered content-encryption algorithm.
func (a Alg) Cipher() (ContentCipher, error) {
	e, err := a.lookup()
	if err != nil {
		return nil, err
	}
	if e.kind != EncKind {
		return nil, errors.Wrap(ErrAlgorithmMisuse, "'"+string(a)+"' is not a content encryption algorithm")
	}
	switch a {
	case A128CBCHS256, A192CBCHS384, A256CBCHS512:
		return &aesCBCHMAC{keyLen: e.keyLen, hashFn: e.hashFn}, nil
	case A128GCM, A192GCM, A256GCM:
		return &aesGCM{keyLen: e.keyLen}, nil
	default:
		return nil, errors.Wrap(ErrAlgorithmMisuse, "unsupported content cipher '"+string(a)+"'")
	}
}

// aesGCM implements the AES-GCM family (RFC-7518 §5.3): a 96-bit IV and a
// 128-bit authentication tag, with the JOSE "Additional Authenticated
// Data" (the ASCII protected header) passed straight through to the AEAD.
type aesGCM struct {
	keyLen int
}

func (c *aesGCM) KeySize() int { return c.keyLen }
func (c *aesGCM) IVSize() int  { return 12 }

func (c *aesGCM) Encrypt(cek, iv, aad, plaintext []byte) ([]byte, []byte, error) {
	gcm, err := newGCM(cek)
	if err != nil {
		return nil, nil, err
	}
	sealed := gcm.Seal(nil, iv, plaintext, aad)
	ct, tag := sealed[:len(sealed)-gcm.Overhead()], sealed[len(sealed)-gcm.Overhead():]
	return ct, tag, nil
}

func (c *aesGCM) Decrypt(cek, iv, aad, ciphertext, tag []byte) ([]byte, error) {
	gcm, err := newGCM(cek)
	if err != nil {
		return nil, err
	}
	sealed := append(append([]byte(nil), ciphertext...), tag...)
	pt, err := gcm.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, errors.Wrap(err, "content authentication failed")
	}
	return pt, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "invalid content encryption key")
	}
	return cipher.NewGCM(block)
}

// aesCBCHMAC implements the AES_CBC_HMAC_SHA2 family (RFC-7518 §5.2): the
// CEK splits into equal MAC and encryption halves, PKCS#7 padding covers
// the plaintext, and the tag is the leftmost half of an HMAC computed over
// AAD || IV || ciphertext || AAD-bit-length.
type aesCBCHMAC struct {
	keyLen int
	hashFn crypto.Hash
}

func (c *aesCBCHMAC) KeySize() int { return c.keyLen }
func (c *aesCBCHMAC) IVSize() int  { return aes.BlockSize }

func (c *aesCBCHMAC) halves(cek []byte) (macKey, encKey []byte) {
	half := len(cek) / 2
	return cek[:half], cek[half:]
}

func (c *aesCBCHMAC) Encrypt(cek, iv, aad, plaintext []byte) ([]byte, []byte, error) {
	macKey, encKey := c.halves(cek)
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid content encryption key")
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	tag := c.authTag(macKey, aad, iv, ciphertext)
	return ciphertext, tag, nil
}

func (c *aesCBCHMAC) Decrypt(cek, iv, aad, ciphertext, tag []byte) ([]byte, error) {
	macKey, encKey := c.halves(cek)
	expected := c.authTag(macKey, aad, iv, ciphertext)
	if subtle.ConstantTimeCompare(expected, tag) != 1 {
		return nil, errors.New("content authentication failed")
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid content encryption key")
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("malformed ciphertext length")
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
	return pkcs7Unpad(padded)
}

func (c *aesCBCHMAC) authTag(macKey, aad, iv, ciphertext []byte) []byte {
	al := make([]byte, 8)
	binary.BigEndian.PutUint64(al, uint64(len(aad))*8)
	mac := hmac.New(c.hashFn.New, macKey)
	mac.Write(aad)
	mac.Write(iv)
	mac.Write(ciphertext)
	mac.Write(al)
	full := mac.Sum(nil)
	return full[:len(full)/2]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty padded content")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-padLen], nil
}

// RandomBytes returns `n` cryptographically random bytes, used by callers
// to generate a fresh CEK or IV.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, errors.Wrap(err, "failed to generate random bytes")
	}
	return b, nil
}
