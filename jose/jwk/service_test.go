package jwk

import (
	"context"
	"testing"

	tdd "github.com/stretchr/testify/assert"
	"go.bryk.io/jose-uri/jose"
	"go.bryk.io/jose-uri/jose/jwa"
)

func TestServiceResolveByThumbprint(t *testing.T) {
	assert := tdd.New(t)

	k, err := New(jwa.HS256)
	assert.Nil(err, "generate key")
	tp, err := k.Thumbprint()
	assert.Nil(err, "thumbprint")

	store := NewMemoryStore()
	assert.Nil(store.Set(tp, k), "seed store")

	svc, err := NewService(WithStore(store), WithUntrustedInlineKey(true))
	assert.Nil(err, "new service")

	rec := k.Export(false)
	resolved, err := svc.Resolve(context.Background(), Candidate{JWK: &rec})
	assert.Nil(err, "resolve by thumbprint")
	resolvedTP, _ := resolved.Thumbprint()
	assert.Equal(tp, resolvedTP, "resolved key mismatch")
}

func TestServiceResolveInconsistentKeyRejected(t *testing.T) {
	assert := tdd.New(t)

	stored, err := New(jwa.HS256)
	assert.Nil(err, "generate stored key")
	other, err := New(jwa.HS256)
	assert.Nil(err, "generate other key")

	store := NewMemoryStore()
	assert.Nil(store.Set("shared-kid", stored), "seed store")

	svc, err := NewService(WithStore(store))
	assert.Nil(err, "new service")

	rec := other.Export(false)
	_, err = svc.Resolve(context.Background(), Candidate{KeyID: "shared-kid", JWK: &rec})
	assert.ErrorIs(err, jose.ErrInconsistentKey, "expected inconsistent key error")
}

func TestServiceResolveUntrustedInlineKeyRejectedByDefault(t *testing.T) {
	assert := tdd.New(t)

	k, err := New(jwa.HS256)
	assert.Nil(err, "generate key")

	svc, err := NewService()
	assert.Nil(err, "new service")

	rec := k.Export(false)
	_, err = svc.Resolve(context.Background(), Candidate{JWK: &rec})
	assert.ErrorIs(err, jose.ErrUntrustedKey, "expected untrusted key error")

	svc2, err := NewService(WithUntrustedInlineKey(true))
	assert.Nil(err, "new service with untrusted keys allowed")
	resolved, err := svc2.Resolve(context.Background(), Candidate{JWK: &rec})
	assert.Nil(err, "resolve should succeed when untrusted keys are allowed")
	assert.NotNil(resolved, "resolved key")
}
