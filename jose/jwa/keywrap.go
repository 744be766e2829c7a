package jwa

import (
	"crypto/aes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"

	"go.bryk.io/jose-uri/errors"
)

// aesKWDefaultIV is the 64-bit integrity check value mandated by RFC-3394 §2.2.3.1.
var aesKWDefaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// WrapKey wraps `cek` under `kek` using the AES Key Wrap algorithm
// (RFC-3394), as required by the A128KW/A192KW/A256KW and the
// ECDH-ES+A*KW/PBES2-HS*+A*KW key-wrap algorithms once they have derived a
// raw AES key-encryption key.
func WrapKey(kek, cek []byte) ([]byte, error) {
	if len(cek)%8 != 0 || len(cek) < 16 {
		return nil, errors.New("key to wrap must be a multiple of 8 bytes, at least 16")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errors.Wrap(err, "invalid key-encryption key")
	}

	n := len(cek) / 8
	r := make([][8]byte, n)
	for i := range r {
		copy(r[i][:], cek[i*8:i*8+8])
	}
	a := aesKWDefaultIV

	buf := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 0; i < n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i][:])
			block.Encrypt(buf, buf)
			t := uint64(n*j + i + 1)
			var tb [8]byte
			binary.BigEndian.PutUint64(tb[:], t)
			for k := range a {
				a[k] = buf[k] ^ tb[k]
			}
			copy(r[i][:], buf[8:])
		}
	}

	out := make([]byte, 0, (n+1)*8)
	out = append(out, a[:]...)
	for _, b := range r {
		out = append(out, b[:]...)
	}
	return out, nil
}

// UnwrapKey reverses WrapKey, returning an integrity check error when the
// recovered check value does not match (a strong signal of a tampered or
// wrong key-encryption key).
func UnwrapKey(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped)%8 != 0 || len(wrapped) < 24 {
		return nil, errors.New("wrapped key must be a multiple of 8 bytes, at least 24")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errors.Wrap(err, "invalid key-encryption key")
	}

	n := len(wrapped)/8 - 1
	var a [8]byte
	copy(a[:], wrapped[:8])
	r := make([][8]byte, n)
	for i := range r {
		copy(r[i][:], wrapped[8+i*8:8+i*8+8])
	}

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n - 1; i >= 0; i-- {
			t := uint64(n*j + i + 1)
			var tb [8]byte
			binary.BigEndian.PutUint64(tb[:], t)
			var x [8]byte
			for k := range a {
				x[k] = a[k] ^ tb[k]
			}
			copy(buf[:8], x[:])
			copy(buf[8:], r[i][:])
			block.Decrypt(buf, buf)
			copy(a[:], buf[:8])
			copy(r[i][:], buf[8:])
		}
	}

	if subtle.ConstantTimeCompare(a[:], aesKWDefaultIV[:]) != 1 {
		return nil, errors.New("key unwrap integrity check failed")
	}
	out := make([]byte, 0, n*8)
	for _, b := range r {
		out = append(out, b[:]...)
	}
	return out, nil
}

// ConcatKDF implements the Concatenation Key Derivation Function of NIST
// SP 800-56A §5.8.1, as profiled by RFC-7518 §4.6.2 for ECDH-ES: the
// derived key material is the leftmost `keyDataLen` bits of repeated
// SHA-256(counter || Z || OtherInfo) rounds, where OtherInfo is
// AlgorithmID || PartyUInfo || PartyVInfo || SuppPubInfo.
func ConcatKDF(z []byte, keyDataLen int, algID, apu, apv []byte) ([]byte, error) {
	hashFn := sha256.New()
	otherInfo := concatKDFOtherInfo(algID, apu, apv, keyDataLen*8)

	reps := (keyDataLen + hashFn.Size() - 1) / hashFn.Size()
	out := make([]byte, 0, reps*hashFn.Size())
	for counter := uint32(1); counter <= uint32(reps); counter++ {
		hashFn.Reset()
		var cb [4]byte
		binary.BigEndian.PutUint32(cb[:], counter)
		hashFn.Write(cb[:])
		hashFn.Write(z)
		hashFn.Write(otherInfo)
		out = hashFn.Sum(out[:len(out):len(out)])
	}
	if len(out) < keyDataLen {
		return nil, errors.New("concat KDF produced insufficient key material")
	}
	return out[:keyDataLen], nil
}

func concatKDFOtherInfo(algID, apu, apv []byte, keyDataLenBits int) []byte {
	var buf []byte
	buf = appendLengthPrefixed(buf, algID)
	buf = appendLengthPrefixed(buf, apu)
	buf = appendLengthPrefixed(buf, apv)
	var suppPub [4]byte
	binary.BigEndian.PutUint32(suppPub[:], uint32(keyDataLenBits))
	buf = append(buf, suppPub[:]...)
	return buf
}

func appendLengthPrefixed(dst, val []byte) []byte {
	var lp [4]byte
	binary.BigEndian.PutUint32(lp[:], uint32(len(val)))
	dst = append(dst, lp[:]...)
	return append(dst, val...)
}
