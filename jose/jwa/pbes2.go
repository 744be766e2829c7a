package jwa

import (
	"golang.org/x/crypto/pbkdf2"
)

// PBES2SaltInput builds the PBKDF2 salt value mandated by RFC-7518 §4.8.1.1:
// the UTF-8 algorithm identifier, a 0x00 separator, then the random
// "p2s" salt input bytes.
func PBES2SaltInput(alg Alg, p2s []byte) []byte {
	out := make([]byte, 0, len(alg)+1+len(p2s))
	out = append(out, []byte(alg)...)
	out = append(out, 0x00)
	return append(out, p2s...)
}

// PBES2DeriveKey derives the AES key-wrap key for a PBES2-HS*+A*KW
// algorithm via PBKDF2, iterated `p2c` times over the salt produced by
// PBES2SaltInput.
func (a Alg) PBES2DeriveKey(password, p2s []byte, p2c int) ([]byte, error) {
	e, err := a.lookup()
	if err != nil {
		return nil, err
	}
	if e.family != PBES2 {
		return nil, ErrAlgorithmMisuse
	}
	salt := PBES2SaltInput(a, p2s)
	return pbkdf2.Key(password, salt, p2c, e.keyLen, e.hashFn.New), nil
}
