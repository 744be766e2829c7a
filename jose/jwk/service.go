package jwk

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"io"
	lib "net/http"
	"time"

	"go.bryk.io/jose-uri/errors"
	"go.bryk.io/jose-uri/jose"
	"go.bryk.io/jose-uri/log"
	httpclient "go.bryk.io/jose-uri/net/http"
)

// CertValidator validates a leaf certificate against a set of trust
// anchors, returning nil when the chain verifies.
type CertValidator interface {
	Validate(chain []*x509.Certificate) error
}

// x509Validator is the default CertValidator, backed by the standard
// library PKIX chain-building verifier.
type x509Validator struct {
	roots *x509.CertPool
}

func (v *x509Validator) Validate(chain []*x509.Certificate) error {
	if len(chain) == 0 {
		return errors.New("empty certificate chain")
	}
	opts := x509.VerifyOptions{Roots: v.roots}
	if len(chain) > 1 {
		opts.Intermediates = x509.NewCertPool()
		for _, c := range chain[1:] {
			opts.Intermediates.AddCert(c)
		}
	}
	_, err := chain[0].Verify(opts)
	return err
}

// urlFetcher abstracts the HTTP GET performed to resolve `jku`/`x5u`
// values. A small interface keeps the Service testable without a live
// network dependency.
type urlFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// httpFetcher is the default urlFetcher, backed by the module's own
// net/http.Client.
type httpFetcher struct {
	hc *httpclient.Client
}

func newHTTPFetcher(timeout time.Duration) *httpFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc, _ := httpclient.NewClient(httpclient.WithTimeout(timeout))
	return &httpFetcher{hc: hc}
}

func (f *httpFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.hc.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != lib.StatusOK {
		return nil, errors.Errorf("unexpected status code %d fetching %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// Service composes a JWK-Store, a Resolver chain and the `jku`/`x5u`
// URL-based fallbacks into the single resolution pipeline described for
// JWK builders: store lookup, resolver lookup, certificate chain
// validation and, finally, URL-based key-set retrieval.
type Service struct {
	store           Store
	resolver        Resolver
	fetcher         urlFetcher
	validator       CertValidator
	resolveJKU      bool
	trustedJKU      map[string]bool
	resolveX5U      bool
	validateCert    bool
	allowUntrusted  bool
	keyStorePass    []byte
	fetchTimeout    time.Duration
	log             log.Logger
}

// ServiceOption adjusts the configuration of a Service instance.
type ServiceOption func(*Service) error

// WithStore sets the backing Store used to cache/locate previously
// resolved keys. Defaults to NopStore.
func WithStore(s Store) ServiceOption {
	return func(svc *Service) error {
		svc.store = s
		return nil
	}
}

// WithResolver registers an application-level key Resolver, consulted
// after the store and before the `jku`/`x5u` URL fallbacks.
func WithResolver(r Resolver) ServiceOption {
	return func(svc *Service) error {
		svc.resolver = r
		return nil
	}
}

// WithJKUResolution enables fetching `jku` URLs during key resolution,
// trusting only the URLs present in `trusted`.
func WithJKUResolution(enabled bool, trusted ...string) ServiceOption {
	return func(svc *Service) error {
		svc.resolveJKU = enabled
		for _, u := range trusted {
			svc.trustedJKU[u] = true
		}
		return nil
	}
}

// WithX5UResolution enables fetching `x5u` URLs during key resolution.
func WithX5UResolution(enabled bool) ServiceOption {
	return func(svc *Service) error {
		svc.resolveX5U = enabled
		return nil
	}
}

// WithCertificateValidation enables X.509 certificate path validation
// for keys carrying an `x5c` chain, verified against `roots`.
func WithCertificateValidation(enabled bool, roots *x509.CertPool) ServiceOption {
	return func(svc *Service) error {
		svc.validateCert = enabled
		svc.validator = &x509Validator{roots: roots}
		return nil
	}
}

// WithUntrustedInlineKey controls whether Resolve may return a key that
// was recovered purely from an inline "jwk" header value, without any
// corroborating store/resolver/x5c/jku step. Defaults to false: such a
// key is rejected with ErrUntrustedKey.
func WithUntrustedInlineKey(allowed bool) ServiceOption {
	return func(svc *Service) error {
		svc.allowUntrusted = allowed
		return nil
	}
}

// WithKeyStorePassword records a key store password on the Service. The
// value is only stored: no Store in this package receives or reads it,
// and Resolve does not use it.
func WithKeyStorePassword(password []byte) ServiceOption {
	return func(svc *Service) error {
		svc.keyStorePass = password
		return nil
	}
}

// WithFetchTimeout bounds how long `jku`/`x5u` HTTP fetches may take.
func WithFetchTimeout(d time.Duration) ServiceOption {
	return func(svc *Service) error {
		svc.fetchTimeout = d
		return nil
	}
}

// WithLogger attaches a structured logger to the service, used to
// report resolution failures without aborting the overall chain.
func WithLogger(l log.Logger) ServiceOption {
	return func(svc *Service) error {
		svc.log = l
		return nil
	}
}

// NewService returns a JWK-Service ready to resolve keys through its
// store, resolver and URL-based fallback chain.
func NewService(options ...ServiceOption) (*Service, error) {
	svc := &Service{
		store:      NopStore{},
		resolver:   ResolverFunc(func(_ string) (Key, error) { return nil, ErrKeyNotFound }),
		trustedJKU: make(map[string]bool),
		log:        log.Discard(),
	}
	for _, opt := range options {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	svc.fetcher = newHTTPFetcher(svc.fetchTimeout)
	return svc, nil
}

// Candidate bundles a JOSE header's key-identifying hints, used by jws
// and jwe builders/readers to drive Service.Resolve without reaching
// into header-specific types.
type Candidate struct {
	KeyID   string
	X5T     string
	X5TS256 string
	JKU     string
	X5U     string
	X5C     []string
	JWK     *Record
}

// Resolve implements the JWK builder resolution algorithm described for
// JWK factories: store lookup by kid/x5t/x5t#S256/JWK-thumbprint,
// resolver lookup, certificate-chain validation and finally URL-based
// retrieval. Store hits are returned as stored; keys from the resolver,
// a validated or fetched certificate, or a listed `jku` URL are marked
// trusted; an inline 'jwk' key stays untrusted. The returned key must be
// byte-consistent with any inline 'jwk' header value also present in `c`
// (see checkConsistency).
func (s *Service) Resolve(ctx context.Context, c Candidate) (Key, error) {
	ids := []string{c.KeyID, c.X5T, c.X5TS256, candidateThumbprint(c)}

	// 1. store lookup, by kid, by x5t/x5t#S256, then by JWK thumbprint;
	// returned verbatim.
	for _, id := range ids {
		if id == "" {
			continue
		}
		if k, err := s.store.Get(id); err == nil {
			if err := checkConsistency(k, c); err != nil {
				return nil, err
			}
			return k, nil
		}
	}

	var resolved Key

	// 2. application resolver, by kid, by x5t/x5t#S256, then by JWK
	// thumbprint.
	for _, id := range ids {
		if id == "" {
			continue
		}
		if k, err := s.resolver.Resolve(id); err == nil {
			if err := checkConsistency(k, c); err != nil {
				return nil, err
			}
			k.MarkTrusted()
			resolved = k
			break
		}
	}

	// 3. x5c certificate chain validation.
	if resolved == nil && len(c.X5C) > 0 && s.validateCert {
		chain, err := decodeX5C(c.X5C)
		if err != nil {
			s.log.Warningf("invalid x5c chain: %v", err)
		} else if err := s.validator.Validate(chain); err == nil {
			k, err := fromCertificate(chain[0])
			if err == nil {
				k.MarkTrusted()
				resolved = k
			}
		}
	}

	// 4. x5u / jku URL-based retrieval.
	if resolved == nil && c.X5U != "" && s.resolveX5U {
		if k, err := s.fetchX5U(ctx, c.X5U); err == nil {
			resolved = k
		} else {
			s.log.Warningf("failed to resolve x5u '%s': %v", c.X5U, err)
		}
	}
	if resolved == nil && c.JKU != "" && s.resolveJKU {
		if k, err := s.fetchJKU(ctx, c.JKU, c.KeyID); err == nil {
			if s.trustedJKU[c.JKU] {
				k.MarkTrusted()
			}
			resolved = k
		} else {
			s.log.Warningf("failed to resolve jku '%s': %v", c.JKU, err)
		}
	}

	// 5. fall back to the inline 'jwk' header value, untrusted unless
	// one of the steps above already corroborated it.
	if resolved == nil && c.JWK != nil {
		k, err := Import(*c.JWK)
		if err != nil {
			return nil, errors.Wrap(err, "invalid inline 'jwk' header")
		}
		resolved = k
	}

	if resolved == nil {
		return nil, ErrKeyNotFound
	}

	if err := checkConsistency(resolved, c); err != nil {
		return nil, err
	}
	if !resolved.Trusted() && !s.allowUntrusted {
		return nil, jose.ErrUntrustedKey
	}

	// cache successful resolutions for subsequent lookups, by kid and by
	// the key's own JWK thumbprint.
	if c.KeyID != "" {
		_ = s.store.Set(c.KeyID, resolved)
	}
	if tp, err := resolved.Thumbprint(); err == nil {
		_ = s.store.Set(tp, resolved)
	}
	return resolved, nil
}

// candidateThumbprint computes the RFC-7638 JWK thumbprint of a
// candidate's inline "jwk" header value, if present, so Resolve can
// probe the store/resolver by thumbprint alongside kid/x5t/x5t#S256.
func candidateThumbprint(c Candidate) string {
	if c.JWK == nil {
		return ""
	}
	k, err := Import(*c.JWK)
	if err != nil {
		return ""
	}
	tp, err := k.Thumbprint()
	if err != nil {
		return ""
	}
	return tp
}

// checkConsistency verifies that a resolved key's thumbprint matches
// any key material the caller supplied alongside the same candidate: an
// inline "jwk" header value, or the leaf certificate of an "x5c" chain.
// A mismatch means the resolved key disagrees with what the caller
// expected to be using and must not be used silently.
func checkConsistency(k Key, c Candidate) error {
	if c.JWK != nil {
		if inline, err := Import(*c.JWK); err == nil {
			if !thumbprintsMatch(k, inline) {
				return jose.ErrInconsistentKey
			}
		}
	}
	if len(c.X5C) > 0 {
		if chain, err := decodeX5C(c.X5C); err == nil && len(chain) > 0 {
			if leaf, err := fromCertificate(chain[0]); err == nil {
				if !thumbprintsMatch(k, leaf) {
					return jose.ErrInconsistentKey
				}
			}
		}
	}
	return nil
}

// thumbprintsMatch reports whether two keys share the same RFC-7638
// thumbprint. Keys that cannot produce one (an unexpected Key
// implementation) are treated as non-comparable rather than mismatched.
func thumbprintsMatch(a, b Key) bool {
	ta, err := a.Thumbprint()
	if err != nil {
		return true
	}
	tb, err := b.Thumbprint()
	if err != nil {
		return true
	}
	return ta == tb
}

func (s *Service) fetchJKU(ctx context.Context, url, kid string) (Key, error) {
	raw, err := s.fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	var set Set
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, errors.Wrap(err, "invalid JWK set payload")
	}
	for _, rec := range set.Keys {
		if kid == "" || rec.KeyID == kid {
			return Import(rec)
		}
	}
	return nil, ErrKeyNotFound
}

func (s *Service) fetchX5U(ctx context.Context, url string) (Key, error) {
	raw, err := s.fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid X.509 certificate payload")
	}
	if s.validateCert {
		if err := s.validator.Validate([]*x509.Certificate{cert}); err != nil {
			return nil, errors.Wrap(err, "certificate path validation failed")
		}
	}
	k, err := fromCertificate(cert)
	if err != nil {
		return nil, err
	}
	k.MarkTrusted()
	return k, nil
}
