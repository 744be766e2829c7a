package jwk

import (
	"crypto"
	"io"

	"go.bryk.io/jose-uri/crypto/x25519"
	"go.bryk.io/jose-uri/errors"
	cryptoutils "go.bryk.io/jose-uri/internal/crypto"
	"go.bryk.io/jose-uri/jose/jwa"
)

// newXEC returns a new random X25519 ("OKP" family, "crv": "X25519") key
// agreement key pair. Secret material is zeroized when Destroy is invoked.
func newXEC() (Key, error) {
	kp, err := x25519.New()
	if err != nil {
		return nil, err
	}
	return &xecKey{kp: kp, alg: jwa.ECDHES}, nil
}

// xecKey wraps an X25519 key pair, used exclusively for ECDH-ES based key
// management algorithms. It does not support signing.
type xecKey struct {
	kp      *x25519.KeyPair
	id      string
	alg     jwa.Alg
	trusted bool
	pub     *[32]byte
}

func (k *xecKey) ID() string {
	if k.id != "" {
		return k.id
	}
	k.id = cryptoutils.RandomID()
	return k.id
}

func (k *xecKey) SetID(id string) { k.id = id }

func (k *xecKey) Alg() jwa.Alg { return k.alg }

func (k *xecKey) KeyType() string { return "OKP" }

func (k *xecKey) Trusted() bool { return k.trusted }

func (k *xecKey) MarkTrusted() { k.trusted = true }

func (k *xecKey) Thumbprint() (string, error) {
	return thumbprint(k, []string{"crv", "kty", "x"})
}

func (k *xecKey) Secret() []byte { return nil }

func (k *xecKey) publicBytes() [32]byte {
	if k.kp != nil {
		return k.kp.PublicKey()
	}
	if k.pub != nil {
		return *k.pub
	}
	return [32]byte{}
}

// Agree performs X25519 Diffie-Hellman against the peer's public key.
func (k *xecKey) Agree(peer Key) ([]byte, error) {
	if k.kp == nil {
		return nil, errors.New("key has no private scalar available for agreement")
	}
	pub, ok := peer.Public().([32]byte)
	if !ok {
		return nil, errors.New("peer key is not an X25519 public key")
	}
	shared := k.kp.DH(pub)
	if shared == nil {
		return nil, errors.New("failed to compute shared secret")
	}
	return shared, nil
}

func (k *xecKey) Decrypter() (crypto.Decrypter, bool) {
	return nil, false
}

func (k *xecKey) Public() crypto.PublicKey {
	return k.publicBytes()
}

func (k *xecKey) Sign(_ io.Reader, _ []byte, _ crypto.SignerOpts) ([]byte, error) {
	return nil, ErrUnsupportedOperation
}

func (k *xecKey) Verify(_ crypto.Hash, _, _ []byte) bool {
	return false
}

func (k *xecKey) MarshalBinary() ([]byte, error) {
	if k.kp == nil {
		return nil, errors.New("no private key material available")
	}
	return k.kp.MarshalBinary()
}

func (k *xecKey) UnmarshalBinary(data []byte) error {
	kp, err := x25519.Unmarshal(data)
	if err != nil {
		return err
	}
	k.kp = kp
	return nil
}

// Destroy releases the secure memory segment backing the private key.
func (k *xecKey) Destroy() {
	if k.kp != nil {
		k.kp.Destroy()
	}
}

func (k *xecKey) Export(safe bool) Record {
	pub := k.publicBytes()
	rec := Record{
		KeyID:   k.ID(),
		KeyType: "OKP",
		Use:     "enc",
		Alg:     string(k.alg),
		KeyOps:  []string{"deriveBits"},
		Crv:     "X25519",
		X:       b64.EncodeToString(pub[:]),
	}
	if !safe && k.kp != nil && k.kp.PrivateKey() != nil {
		// The "d" value carries the PEM-encoded private key since the raw
		// scalar cannot be round-tripped without re-applying the clamping
		// step performed at generation time.
		pemBytes, err := k.kp.MarshalBinary()
		if err == nil {
			rec.D = b64.EncodeToString(pemBytes)
		}
	}
	return rec
}

func (k *xecKey) Import(r Record) error {
	if r.Crv != "X25519" {
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
	kp, err := x25519.Unmarshal(db)
	if err != nil {
		return errors.Wrap(err, "invalid private key material")
	}
	k.kp = kp
	return nil
}
