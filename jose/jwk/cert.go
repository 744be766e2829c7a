package jwk

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"

	"go.bryk.io/jose-uri/errors"
)

// decodeX5C parses a JWK "x5c" chain (array of base64-STANDARD-encoded
// DER certificates, leaf first) into parsed certificates.
func decodeX5C(chain []string) ([]*x509.Certificate, error) {
	out := make([]*x509.Certificate, 0, len(chain))
	for _, c := range chain {
		der, err := base64.StdEncoding.DecodeString(c)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base64 certificate entry")
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, errors.Wrap(err, "invalid certificate DER encoding")
		}
		out = append(out, cert)
	}
	return out, nil
}

// fromCertificate builds a public-only Key instance from the leaf
// certificate's public key, supporting the EC and RSA families.
func fromCertificate(cert *x509.Certificate) (Key, error) {
	switch pub := cert.PublicKey.(type) {
	case *ecdsa.PublicKey:
		return &ecKey{sk: &ecdsa.PrivateKey{PublicKey: *pub}}, nil
	case *rsa.PublicKey:
		return &rsaKey{key: &rsa.PrivateKey{PublicKey: *pub}}, nil
	default:
		return nil, errors.New("unsupported certificate public key type")
	}
}
