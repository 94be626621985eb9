package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"habitd/internal/structures"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// ErrIdentity marks a failed owner resolution. The orchestrator refuses to
// sync when it sees this; it is never swallowed like a transport error.
var ErrIdentity = errors.New("owner identity could not be verified")

// IdentityProviderInterface maps a caller-presented credential to a verified,
// stable owner id (a normalized email). Every remote call is scoped to this
// value; nothing else ever derives it.
type IdentityProviderInterface interface {
	Resolve(ctx context.Context) (string, error)
}

type IdentityProvider struct {
	conf   *structures.Config
	cache  CacheProviderInterface
	logger Logger
	client *http.Client
}

func NewIdentityProvider(conf *structures.Config, cache CacheProviderInterface, logger Logger) IdentityProviderInterface {
	return &IdentityProvider{
		conf:   conf,
		cache:  cache,
		logger: logger,
		client: &http.Client{Timeout: conf.Sync.RequestTimeout * time.Second},
	}
}

// Resolve verifies the configured credential against the token introspection
// endpoint and returns the verified owner email, lowercased. In dev mode the
// configured owner is trusted verbatim. Verified tokens are cached so the
// sync loop does not introspect on every pass.
func (ip *IdentityProvider) Resolve(ctx context.Context) (string, error) {
	owner := strings.ToLower(strings.TrimSpace(ip.conf.Identity.Owner))
	if owner == "" {
		return "", fmt.Errorf("%w: no owner configured", ErrIdentity)
	}

	if ip.conf.Identity.DevMode {
		return owner, nil
	}

	token := ip.conf.Identity.Credential
	if token == "" {
		return "", fmt.Errorf("%w: no credential configured", ErrIdentity)
	}

	if cached, ok := ip.cache.Get("token:" + token); ok {
		if string(cached) == owner {
			return owner, nil
		}
		return "", fmt.Errorf("%w: credential belongs to %s", ErrIdentity, string(cached))
	}

	verified, err := ip.introspect(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrIdentity, err)
	}

	ip.cache.Set("token:"+token, []byte(verified))

	if verified != owner {
		return "", fmt.Errorf("%w: credential belongs to %s", ErrIdentity, verified)
	}
	return owner, nil
}

func (ip *IdentityProvider) introspect(ctx context.Context, token string) (string, error) {
	endpoint := ip.conf.Identity.TokenInfoURL
	if endpoint == "" {
		endpoint = defaultTokenInfoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?id_token="+url.QueryEscape(token), nil)
	if err != nil {
		return "", err
	}

	resp, err := ip.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tokeninfo returned status %d", resp.StatusCode)
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Email == "" {
		return "", errors.New("tokeninfo response carries no email")
	}
	return strings.ToLower(payload.Email), nil
}
