package jwe

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"math/big"

	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose/jwa"
	"go.bryk.io/jose-uri/jose/jwk"
)

// defaultPBES2IterationCount is used when a Builder does not override it
// via WithPBES2IterationCount; chosen in line with current OWASP PBKDF2
// guidance for HMAC-SHA256-based derivation.
const defaultPBES2IterationCount = 210000

// pubKeyOnly adapts a public key value recovered from an "epk" header
// member into the jwk.Key shape Agree expects, without constructing a
// full key instance (jwk.New cannot dispatch on the ECDH-ES identifier
// for OKP/EC agreement keys, only on signature algorithm prefixes).
// Only Public() is ever invoked on the embedded nil Key by jwk's Agree
// implementations.
type pubKeyOnly struct {
	jwk.Key
	pub crypto.PublicKey
}

func (p *pubKeyOnly) Public() crypto.PublicKey { return p.pub }

// curveSignAlg maps an elliptic curve to the signature algorithm
// identifier jwk.GenerateEC needs to produce a key pair on that curve,
// since the registry does not bind a curve directly to ECDH-ES.
func curveSignAlg(curve elliptic.Curve) (jwa.Alg, error) {
	switch curve {
	case elliptic.P256():
		return jwa.ES256, nil
	case elliptic.P384():
		return jwa.ES384, nil
	case elliptic.P521():
		return jwa.ES512, nil
	default:
		return "", errors.New("unsupported EC curve for ECDH-ES")
	}
}

func curveByName(name string) (elliptic.Curve, error) {
	switch name {
	case "P-256":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	default:
		return nil, errors.Errorf("unsupported curve '%s'", name)
	}
}

// ephemeralFor generates a fresh key agreement key pair on the same
// curve/field as `recipient`, returning both the live key (used to
// perform the agreement) and its public-only JWK Record (emitted as the
// "epk" header member per RFC-7518 §4.6.1.1).
func ephemeralFor(recipient jwk.Key) (jwk.Key, *jwk.Record, error) {
	switch recipient.KeyType() {
	case "EC":
		pub, ok := recipient.Public().(ecdsa.PublicKey)
		if !ok {
			return nil, nil, errors.New("recipient key does not carry an EC public key")
		}
		signAlg, err := curveSignAlg(pub.Curve)
		if err != nil {
			return nil, nil, err
		}
		ephemeral, err := jwk.GenerateEC(signAlg)
		if err != nil {
			return nil, nil, err
		}
		rec := ephemeral.Export(true)
		rec.Use, rec.KeyOps = "", nil
		return ephemeral, &rec, nil
	case "OKP":
		ephemeral, err := jwk.GenerateXEC()
		if err != nil {
			return nil, nil, err
		}
		rec := ephemeral.Export(true)
		rec.Use, rec.KeyOps = "", nil
		return ephemeral, &rec, nil
	default:
		return nil, nil, errors.Errorf("key type '%s' does not support ECDH-ES", recipient.KeyType())
	}
}

// epkPeer reconstructs the ephemeral public key carried by an "epk"
// header member into a value usable as the `peer` argument of Agree.
func epkPeer(rec *jwk.Record) (jwk.Key, error) {
	if rec == nil {
		return nil, errors.New("missing 'epk' header member")
	}
	switch rec.KeyType {
	case "EC":
		curve, err := curveByName(rec.Crv)
		if err != nil {
			return nil, err
		}
		xb, err := b64.DecodeString(rec.X)
		if err != nil {
			return nil, errors.Wrap(err, "invalid 'epk.x' value")
		}
		yb, err := b64.DecodeString(rec.Y)
		if err != nil {
			return nil, errors.Wrap(err, "invalid 'epk.y' value")
		}
		pub := ecdsa.PublicKey{Curve: curve, X: new(big.Int).SetBytes(xb), Y: new(big.Int).SetBytes(yb)}
		return &pubKeyOnly{pub: pub}, nil
	case "OKP":
		if rec.Crv != "X25519" {
			return nil, errors.Errorf("unsupported OKP curve '%s'", rec.Crv)
		}
		xb, err := b64.DecodeString(rec.X)
		if err != nil {
			return nil, errors.Wrap(err, "invalid 'epk.x' value")
		}
		var pub [32]byte
		copy(pub[:], xb)
		return &pubKeyOnly{pub: pub}, nil
	default:
		return nil, errors.Errorf("unsupported 'epk' key type '%s'", rec.KeyType)
	}
}

func decodeOrEmpty(s string) []byte {
	if s == "" {
		return nil
	}
	b, err := b64.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// gcmWrapKey encrypts `cek` with AES-GCM under `kek`, used by the
// A*GCMKW family (a key-management concern distinct from, but
// structurally identical to, jwa's content-encryption AES-GCM cipher).
func gcmWrapKey(kek, iv, cek []byte) (ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid key-encryption key")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	sealed := gcm.Seal(nil, iv, cek, nil)
	return sealed[:len(sealed)-gcm.Overhead()], sealed[len(sealed)-gcm.Overhead():], nil
}

func gcmUnwrapKey(kek, iv, ciphertext, tag []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errors.Wrap(err, "invalid key-encryption key")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	sealed := append(append([]byte(nil), ciphertext...), tag...)
	pt, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, errors.Wrap(ErrDecryptionFailed, "key unwrap authentication failed")
	}
	return pt, nil
}

// deriveCEK computes the Content Encryption Key for `encAlg` according to
// the key management algorithm `alg`, mutating `h` with whatever
// algorithm-specific parameters the management step must emit. Implements
// spec.md's CEK determination step: direct use, direct key agreement,
// key wrapping or key encryption.
func deriveCEK(h *Header, alg, encAlg jwa.Alg, key jwk.Key, p2c int) (cek, encryptedKey []byte, err error) {
	kind, err := alg.Kind()
	if err != nil {
		return nil, nil, err
	}
	cekLen := encAlg.KeyLen()

	switch kind {
	case jwa.KeyMgmtDirect:
		if alg == jwa.DIR {
			secret := key.Secret()
			if len(secret) == 0 {
				return nil, nil, errors.Wrap(ErrNoSuitableKey, "'dir' requires a symmetric key")
			}
			if cekLen != 0 && len(secret) != cekLen {
				return nil, nil, errors.New("key length does not match the content encryption algorithm")
			}
			return secret, []byte{}, nil
		}
		// ECDH-ES, direct key agreement mode.
		ephemeral, epk, derr := ephemeralFor(key)
		if derr != nil {
			return nil, nil, derr
		}
		z, derr := ephemeral.Agree(key)
		if derr != nil {
			return nil, nil, derr
		}
		cek, derr = jwa.ConcatKDF(z, cekLen, []byte(string(encAlg)), decodeOrEmpty(h.APU), decodeOrEmpty(h.APV))
		if derr != nil {
			return nil, nil, derr
		}
		h.EPK = epk
		return cek, []byte{}, nil

	case jwa.KeyMgmtWrap, jwa.KeyMgmtEncrypt:
		cek, err = jwa.RandomBytes(cekLen)
		if err != nil {
			return nil, nil, err
		}
		encryptedKey, err = wrapCEK(h, alg, cek, key, p2c)
		return cek, encryptedKey, err

	default:
		return nil, nil, errors.Wrap(ErrUnsupportedAlgorithm, string(alg))
	}
}

// wrapCEK wraps or encrypts an already-generated `cek` under `key`
// according to `alg`'s KeyMgmtWrap/KeyMgmtEncrypt semantics, mutating `h`
// with any parameters the wrap step must emit (epk/apu/apv, iv/tag,
// p2s/p2c). Split out from deriveCEK so a JSON-serialized JWE with
// multiple recipients can share one CEK, wrapped once per recipient, as
// RFC-7516 §5.1 requires for multi-recipient objects.
func wrapCEK(h *Header, alg jwa.Alg, cek []byte, key jwk.Key, p2c int) ([]byte, error) {
	switch alg {
	case jwa.ECDHESA128KW, jwa.ECDHESA192KW, jwa.ECDHESA256KW:
		ephemeral, epk, err := ephemeralFor(key)
		if err != nil {
			return nil, err
		}
		z, err := ephemeral.Agree(key)
		if err != nil {
			return nil, err
		}
		kek, err := jwa.ConcatKDF(z, alg.KeyLen(), []byte(string(alg)), decodeOrEmpty(h.APU), decodeOrEmpty(h.APV))
		if err != nil {
			return nil, err
		}
		encryptedKey, err := jwa.WrapKey(kek, cek)
		if err != nil {
			return nil, err
		}
		h.EPK = epk
		return encryptedKey, nil
	case jwa.A128KW, jwa.A192KW, jwa.A256KW:
		kek := key.Secret()
		if len(kek) != alg.KeyLen() {
			return nil, errors.New("key-encryption key has the wrong length for this algorithm")
		}
		return jwa.WrapKey(kek, cek)
	case jwa.RSA1_5:
		pub, ok := key.Public().(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("key does not carry an RSA public key")
		}
		return rsa.EncryptPKCS1v15(rand.Reader, pub, cek)
	case jwa.RSAOAEP, jwa.RSAOAEP256, jwa.RSAOAEP384, jwa.RSAOAEP512:
		pub, ok := key.Public().(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("key does not carry an RSA public key")
		}
		hf, err := alg.HashFunction()
		if err != nil {
			return nil, err
		}
		return rsa.EncryptOAEP(hf.New(), rand.Reader, pub, cek, nil)
	case jwa.A128GCMKW, jwa.A192GCMKW, jwa.A256GCMKW:
		kek := key.Secret()
		if len(kek) != alg.KeyLen() {
			return nil, errors.New("key-encryption key has the wrong length for this algorithm")
		}
		iv, err := jwa.RandomBytes(12)
		if err != nil {
			return nil, err
		}
		ciphertext, tag, err := gcmWrapKey(kek, iv, cek)
		if err != nil {
			return nil, err
		}
		h.IV = b64.EncodeToString(iv)
		h.Tag = b64.EncodeToString(tag)
		return ciphertext, nil
	case jwa.PBES2HS256A128KW, jwa.PBES2HS384A192KW, jwa.PBES2HS512A256KW:
		password := key.Secret()
		if len(password) == 0 {
			return nil, errors.Wrap(ErrNoSuitableKey, "PBES2 requires a password-backed key")
		}
		p2s, err := jwa.RandomBytes(16)
		if err != nil {
			return nil, err
		}
		if p2c <= 0 {
			p2c = defaultPBES2IterationCount
		}
		kek, err := alg.PBES2DeriveKey(password, p2s, p2c)
		if err != nil {
			return nil, err
		}
		encryptedKey, err := jwa.WrapKey(kek, cek)
		if err != nil {
			return nil, err
		}
		h.P2S = b64.EncodeToString(p2s)
		h.P2C = p2c
		return encryptedKey, nil
	default:
		return nil, errors.Wrap(ErrUnsupportedAlgorithm, string(alg))
	}
}

// recoverCEK reverses deriveCEK on the read side, recomputing the
// Content Encryption Key from the header's algorithm-specific
// parameters, the recipient's private key and the encrypted-key segment.
func recoverCEK(h Header, alg, encAlg jwa.Alg, key jwk.Key, encryptedKey []byte) ([]byte, error) {
	kind, err := alg.Kind()
	if err != nil {
		return nil, err
	}
	cekLen := encAlg.KeyLen()

	switch kind {
	case jwa.KeyMgmtDirect:
		if alg == jwa.DIR {
			secret := key.Secret()
			if len(secret) == 0 {
				return nil, errors.Wrap(ErrNoSuitableKey, "'dir' requires a symmetric key")
			}
			return secret, nil
		}
		peer, perr := epkPeer(h.EPK)
		if perr != nil {
			return nil, perr
		}
		z, aerr := key.Agree(peer)
		if aerr != nil {
			return nil, errors.Wrap(ErrDecryptionFailed, aerr.Error())
		}
		return jwa.ConcatKDF(z, cekLen, []byte(string(encAlg)), decodeOrEmpty(h.APU), decodeOrEmpty(h.APV))

	case jwa.KeyMgmtWrap:
		if alg == jwa.ECDHESA128KW || alg == jwa.ECDHESA192KW || alg == jwa.ECDHESA256KW {
			peer, perr := epkPeer(h.EPK)
			if perr != nil {
				return nil, perr
			}
			z, aerr := key.Agree(peer)
			if aerr != nil {
				return nil, errors.Wrap(ErrDecryptionFailed, aerr.Error())
			}
			kek, derr := jwa.ConcatKDF(z, alg.KeyLen(), []byte(string(alg)), decodeOrEmpty(h.APU), decodeOrEmpty(h.APV))
			if derr != nil {
				return nil, derr
			}
			cek, uerr := jwa.UnwrapKey(kek, encryptedKey)
			if uerr != nil {
				return nil, errors.Wrap(ErrDecryptionFailed, uerr.Error())
			}
			return cek, nil
		}
		kek := key.Secret()
		if len(kek) != alg.KeyLen() {
			return nil, errors.New("key-encryption key has the wrong length for this algorithm")
		}
		cek, uerr := jwa.UnwrapKey(kek, encryptedKey)
		if uerr != nil {
			return nil, errors.Wrap(ErrDecryptionFailed, uerr.Error())
		}
		return cek, nil

	case jwa.KeyMgmtEncrypt:
		switch alg {
		case jwa.RSA1_5:
			dec, ok := key.Decrypter()
			if !ok {
				return nil, errors.New("key does not support RSA decryption")
			}
			cek, derr := dec.Decrypt(rand.Reader, encryptedKey, nil)
			if derr != nil {
				return nil, errors.Wrap(ErrDecryptionFailed, derr.Error())
			}
			return cek, nil
		case jwa.RSAOAEP, jwa.RSAOAEP256, jwa.RSAOAEP384, jwa.RSAOAEP512:
			dec, ok := key.Decrypter()
			if !ok {
				return nil, errors.New("key does not support RSA decryption")
			}
			hf, herr := alg.HashFunction()
			if herr != nil {
				return nil, herr
			}
			cek, derr := dec.Decrypt(rand.Reader, encryptedKey, &rsa.OAEPOptions{Hash: hf})
			if derr != nil {
				return nil, errors.Wrap(ErrDecryptionFailed, derr.Error())
			}
			return cek, nil
		case jwa.A128GCMKW, jwa.A192GCMKW, jwa.A256GCMKW:
			kek := key.Secret()
			if len(kek) != alg.KeyLen() {
				return nil, errors.New("key-encryption key has the wrong length for this algorithm")
			}
			iv := decodeOrEmpty(h.IV)
			tag := decodeOrEmpty(h.Tag)
			if len(iv) == 0 || len(tag) == 0 {
				return nil, errors.Wrap(ErrInvalidJOSE, "missing 'iv'/'tag' for AES-GCM key wrap")
			}
			return gcmUnwrapKey(kek, iv, encryptedKey, tag)
		case jwa.PBES2HS256A128KW, jwa.PBES2HS384A192KW, jwa.PBES2HS512A256KW:
			password := key.Secret()
			if len(password) == 0 {
				return nil, errors.Wrap(ErrNoSuitableKey, "PBES2 requires a password-backed key")
			}
			p2s := decodeOrEmpty(h.P2S)
			if len(p2s) == 0 || h.P2C <= 0 {
				return nil, errors.Wrap(ErrInvalidJOSE, "missing 'p2s'/'p2c' for PBES2")
			}
			kek, derr := alg.PBES2DeriveKey(password, p2s, h.P2C)
			if derr != nil {
				return nil, derr
			}
			cek, uerr := jwa.UnwrapKey(kek, encryptedKey)
			if uerr != nil {
				return nil, errors.Wrap(ErrDecryptionFailed, uerr.Error())
			}
			return cek, nil
		default:
			return nil, errors.Wrap(ErrUnsupportedAlgorithm, string(alg))
		}
	default:
		return nil, errors.Wrap(ErrUnsupportedAlgorithm, string(alg))
	}
}
