package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitd/internal/structures"
)

type identityTestCache struct {
	data map[string][]byte
}

func (c *identityTestCache) Get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}
func (c *identityTestCache) Set(key string, value []byte) {
	c.data[key] = value
}

func newIdentityProvider(owner, credential, tokenInfoURL string, devMode bool) (IdentityProviderInterface, *identityTestCache) {
	cache := &identityTestCache{data: make(map[string][]byte)}
	conf := &structures.Config{
		Sync: structures.SyncConfig{RequestTimeout: 5},
		Identity: structures.IdentityConfig{
			Owner:        owner,
			Credential:   credential,
			TokenInfoURL: tokenInfoURL,
			DevMode:      devMode,
		},
	}
	return NewIdentityProvider(conf, cache, &cacheTestLogger{}), cache
}

func TestIdentity_DevModeTrustsConfiguredOwner(t *testing.T) {
	ip, _ := newIdentityProvider(" Dev@Example.COM ", "", "", true)

	owner, err := ip.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", owner)
}

func TestIdentity_NoOwnerIsRefused(t *testing.T) {
	ip, _ := newIdentityProvider("", "", "", true)

	_, err := ip.Resolve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentity)
}

func TestIdentity_NoCredentialOutsideDevMode(t *testing.T) {
	ip, _ := newIdentityProvider("dev@example.com", "", "", false)

	_, err := ip.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrIdentity)
}

func TestIdentity_IntrospectionVerifiesOwner(t *testing.T) {
	var queried string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queried = r.URL.Query().Get("id_token")
		io.WriteString(w, `{"email":"Dev@Example.com"}`)
	}))
	defer server.Close()

	ip, cache := newIdentityProvider("dev@example.com", "tok-1", server.URL, false)

	owner, err := ip.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", owner)
	assert.Equal(t, "tok-1", queried)

	// Verified token lands in the cache.
	cached, ok := cache.Get("token:tok-1")
	require.True(t, ok)
	assert.Equal(t, "dev@example.com", string(cached))
}

func TestIdentity_CachedTokenSkipsIntrospection(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, `{"email":"dev@example.com"}`)
	}))
	defer server.Close()

	ip, _ := newIdentityProvider("dev@example.com", "tok-1", server.URL, false)

	_, err := ip.Resolve(context.Background())
	require.NoError(t, err)
	_, err = ip.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestIdentity_ForeignTokenRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"email":"someone.else@example.com"}`)
	}))
	defer server.Close()

	ip, _ := newIdentityProvider("dev@example.com", "tok-1", server.URL, false)

	_, err := ip.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrIdentity)
}

func TestIdentity_IntrospectionFailureRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ip, _ := newIdentityProvider("dev@example.com", "tok-1", server.URL, false)

	_, err := ip.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrIdentity)
}

func TestIdentity_EmptyEmailRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	ip, _ := newIdentityProvider("dev@example.com", "tok-1", server.URL, false)

	_, err := ip.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrIdentity)
}
