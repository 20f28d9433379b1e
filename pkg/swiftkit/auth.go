// Authentication against the remote service: exchanging account credentials
// for a storage URL, an optional CDN management URL, and a session token.
package swiftkit

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// AuthResult carries everything a Connection needs to start issuing
// requests. CDNURL is empty when the account has no CDN support.
type AuthResult struct {
	StorageURL string
	CDNURL     string
	Token      string
}

// Authenticator exchanges credentials for an AuthResult. The Connection
// calls it once on first use and again whenever a request comes back 401.
// Implementations must be safe to call repeatedly.
type Authenticator interface {
	Authenticate() (AuthResult, error)
}

// Auth authenticates against a real authentication endpoint.
type Auth struct {
	Account  string // optional; when set the path becomes /v{N}/{account}/auth
	Username string
	APIKey   string
	URL      string
	Version  int           // zero means DefaultAPIVersion
	Timeout  time.Duration // zero means DefaultTimeout
}

// NewAuth returns an Auth for the common username/api-key case.
func NewAuth(username, apiKey, authurl string) *Auth {
	return &Auth{Username: username, APIKey: apiKey, URL: authurl}
}

// authPath returns the request path for the configured account and version,
// prefixed with any path carried by the auth URL itself.
func (a *Auth) authPath(base *url.URL) string {
	p := strings.TrimRight(base.Path, "/")
	if a.Account != "" {
		version := a.Version
		if version == 0 {
			version = DefaultAPIVersion
		}
		p = fmt.Sprintf("%s/v%d/%s/auth", p, version, url.PathEscape(a.Account))
	}
	if p == "" {
		p = "/"
	}
	return p
}

// Authenticate performs the single GET against the authentication service.
// 204 with the routing headers is the only success shape; 401 means the
// credentials were rejected; anything else is a ResponseError.
func (a *Auth) Authenticate() (AuthResult, error) {
	base, err := url.Parse(a.URL)
	if err != nil {
		return AuthResult{}, &InvalidURLError{URL: a.URL}
	}

	timeout := a.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	req, err := http.NewRequest("GET", base.Scheme+"://"+base.Host+a.authPath(base), nil)
	if err != nil {
		return AuthResult{}, errors.Wrap(err, "building authentication request")
	}
	req.Header.Set("X-Storage-User", a.Username)
	req.Header.Set("X-Storage-Pass", a.APIKey)
	req.Header.Set("User-Agent", UserAgent)

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return AuthResult{}, errors.Wrap(err, "contacting authentication service")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return AuthResult{}, ErrAuthenticationFailed
	}
	if resp.StatusCode != http.StatusNoContent {
		return AuthResult{}, &ResponseError{Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}

	result := AuthResult{
		StorageURL: resp.Header.Get("X-Storage-Url"),
		CDNURL:     resp.Header.Get("X-CDN-Management-Url"),
		Token:      resp.Header.Get("X-Storage-Token"),
	}
	if result.Token == "" {
		result.Token = resp.Header.Get("X-Auth-Token")
	}
	if result.StorageURL == "" || result.Token == "" {
		return AuthResult{}, &AuthenticationError{Reason: "missing storage url or token headers"}
	}
	return result, nil
}

// MockAuth synthesizes a deterministic AuthResult without any network
// access. It lets tests point a real Connection at a fake backend. The
// Connection treats it exactly like Auth.
type MockAuth struct {
	Account string
	URL     string // base storage URL the fake backend listens on
	CDNURL  string // optional CDN management URL
	Version int
}

// Authenticate returns the configured URL with version and account appended
// and a fixed token.
func (m *MockAuth) Authenticate() (AuthResult, error) {
	version := m.Version
	if version == 0 {
		version = DefaultAPIVersion
	}
	result := AuthResult{
		StorageURL: fmt.Sprintf("%s/v%d/%s", strings.TrimRight(m.URL, "/"), version, m.Account),
		Token:      "xxxxxxxxxxxxxxxxxxxxxx",
	}
	if m.CDNURL != "" {
		result.CDNURL = fmt.Sprintf("%s/v%d/%s", strings.TrimRight(m.CDNURL, "/"), version, m.Account)
	}
	return result, nil
}
