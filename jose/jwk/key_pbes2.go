package jwk

import (
	"crypto"
	"io"

	"go.bryk.io/jose-uri/errors"
	cryptoutils "go.bryk.io/jose-uri/internal/crypto"
	"go.bryk.io/jose-uri/jose/jwa"
)

// newPBES2 wraps a user-supplied password as key material usable with the
// PBES2-HS*+A*KW family of key management algorithms. There is no
// corresponding registered JWK "kty"; the password is carried as an "oct"
// secret by convention, matching how implementations commonly represent
// password-based key material.
func newPBES2(password []byte) (Key, error) {
	if len(password) == 0 {
		return nil, errors.New("password must not be empty")
	}
	cp := make([]byte, len(password))
	copy(cp, password)
	return &pbes2Key{secret: cp}, nil
}

type pbes2Key struct {
	secret  []byte
	id      string
	alg     jwa.Alg
	trusted bool
}

func (k *pbes2Key) ID() string {
	if k.id != "" {
		return k.id
	}
	k.id = cryptoutils.RandomID()
	return k.id
}

func (k *pbes2Key) SetID(id string) { k.id = id }

func (k *pbes2Key) Alg() jwa.Alg { return k.alg }

func (k *pbes2Key) KeyType() string { return "oct" }

func (k *pbes2Key) Trusted() bool { return k.trusted }

func (k *pbes2Key) MarkTrusted() { k.trusted = true }

func (k *pbes2Key) Thumbprint() (string, error) {
	return thumbprint(k, []string{"k", "kty"})
}

func (k *pbes2Key) Secret() []byte { return k.secret }

func (k *pbes2Key) Agree(_ Key) ([]byte, error) {
	return nil, ErrUnsupportedOperation
}

func (k *pbes2Key) Decrypter() (crypto.Decrypter, bool) {
	return nil, false
}

func (k *pbes2Key) Public() crypto.PublicKey { return nil }

func (k *pbes2Key) Sign(_ io.Reader, _ []byte, _ crypto.SignerOpts) ([]byte, error) {
	return nil, ErrUnsupportedOperation
}

func (k *pbes2Key) Verify(_ crypto.Hash, _, _ []byte) bool {
	return false
}

func (k *pbes2Key) MarshalBinary() ([]byte, error) {
	dst := make([]byte, b64.EncodedLen(len(k.secret)))
	b64.Encode(dst, k.secret)
	return dst, nil
}

func (k *pbes2Key) UnmarshalBinary(data []byte) error {
	k.secret = make([]byte, b64.DecodedLen(len(data)))
	_, err := b64.Decode(k.secret, data)
	return err
}

func (k *pbes2Key) Export(safe bool) Record {
	rec := Record{
		KeyID:   k.ID(),
		KeyType: "oct",
		Use:     "enc",
		Alg:     string(k.alg),
		KeyOps:  []string{"deriveKey"},
	}
	if !safe {
		rec.K = b64.EncodeToString(k.secret)
	}
	return rec
}

func (k *pbes2Key) Import(r Record) error {
	k.id = r.KeyID
	k.alg = jwa.Alg(r.Alg)
	if r.K == "" {
		return nil
	}
	var err error
	k.secret, err = b64.DecodeString(r.K)
	return err
}
