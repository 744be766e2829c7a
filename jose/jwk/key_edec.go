package jwk

import (
	"crypto"
	"io"

	"go.bryk.io/jose-uri/crypto/ed25519"
	"go.bryk.io/jose-uri/errors"
	cryptoutils "go.bryk.io/jose-uri/internal/crypto"
	"go.bryk.io/jose-uri/jose/jwa"
)

// newEdEC returns a new random Ed25519 ("OKP" family, "crv": "Ed25519")
// signing key pair. Secret material is zeroized when Destroy is invoked.
func newEdEC() (Key, error) {
	kp, err := ed25519.New()
	if err != nil {
		return nil, err
	}
	return &edecKey{kp: kp, alg: jwa.EdDSA}, nil
}

// edecKey wraps an Ed25519 key pair, delegating secret storage to the
// memguard-backed ed25519.KeyPair implementation.
type edecKey struct {
	kp      *ed25519.KeyPair
	id      string
	alg     jwa.Alg
	trusted bool
	pub     *[32]byte // set on import when only public material is available
}

func (k *edecKey) ID() string {
	if k.id != "" {
		return k.id
	}
	k.id = cryptoutils.RandomID()
	return k.id
}

func (k *edecKey) SetID(id string) { k.id = id }

func (k *edecKey) Alg() jwa.Alg { return k.alg }

func (k *edecKey) KeyType() string { return "OKP" }

func (k *edecKey) Trusted() bool { return k.trusted }

func (k *edecKey) MarkTrusted() { k.trusted = true }

func (k *edecKey) Thumbprint() (string, error) {
	return thumbprint(k, []string{"crv", "kty", "x"})
}

func (k *edecKey) Secret() []byte { return nil }

func (k *edecKey) Agree(_ Key) ([]byte, error) {
	return nil, ErrUnsupportedOperation
}

func (k *edecKey) Decrypter() (crypto.Decrypter, bool) {
	return nil, false
}

func (k *edecKey) publicBytes() [32]byte {
	if k.kp != nil {
		return k.kp.PublicKey()
	}
	if k.pub != nil {
		return *k.pub
	}
	return [32]byte{}
}

func (k *edecKey) Public() crypto.PublicKey {
	pub := k.publicBytes()
	return pub
}

func (k *edecKey) Sign(_ io.Reader, data []byte, _ crypto.SignerOpts) ([]byte, error) {
	if k.kp == nil || k.kp.PrivateKey() == nil {
		return nil, errors.New("key is 'verify' only")
	}
	return k.kp.Sign(data), nil
}

func (k *edecKey) Verify(_ crypto.Hash, data, signature []byte) bool {
	pub := k.publicBytes()
	return ed25519.Verify(data, signature, pub[:])
}

func (k *edecKey) MarshalBinary() ([]byte, error) {
	if k.kp == nil {
		return nil, errors.New("no private key material available")
	}
	return k.kp.MarshalBinary()
}

func (k *edecKey) UnmarshalBinary(data []byte) error {
	kp, err := ed25519.Unmarshal(data)
	if err != nil {
		return err
	}
	k.kp = kp
	return nil
}

// Destroy releases the secure memory segment backing the private key.
func (k *edecKey) Destroy() {
	if k.kp != nil {
		k.kp.Destroy()
	}
}

func (k *edecKey) Export(safe bool) Record {
	pub := k.publicBytes()
	rec := Record{
		KeyID:   k.ID(),
		KeyType: "OKP",
		Use:     "sig",
		Alg:     string(k.alg),
		KeyOps:  []string{"verify"},
		Crv:     "Ed25519",
		X:       b64.EncodeToString(pub[:]),
	}
	if !safe && k.kp != nil && k.kp.PrivateKey() != nil {
		rec.KeyOps = append(rec.KeyOps, "sign")
		rec.D = b64.EncodeToString(k.kp.PrivateKey())
	}
	return rec
}

func (k *edecKey) Import(r Record) error {
	if r.Crv != "Ed25519" {
		return errors.Errorf("unsupported OKP curve '%s'", r.Crv)
	}
	k.id = r.KeyID
	k.alg = jwa.Alg(r.Alg)

	xb, err := b64.DecodeString(r.X)
	if err != nil {
		return errors.Wrap(err, "invalid 'x' value")
	}
	var pub [32]byte
	copy(pub[:], xb)
	k.pub = &pub

	if r.D == "" {
		return nil
	}
	db, err := b64.DecodeString(r.D)
	if err != nil {
		return errors.Wrap(err, "invalid 'd' value")
	}
	kp, err := ed25519.FromPrivateKey(db)
	if err != nil {
		return errors.Wrap(err, "invalid private key seed")
	}
	k.kp = kp
	return nil
}
