package swiftkit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swiftkit/swiftkit/pkg/swiftkit"
)

func TestAuthenticate(t *testing.T) {
	var gotPath, gotUser, gotPass string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser = r.Header.Get("X-Storage-User")
		gotPass = r.Header.Get("X-Storage-Pass")
		w.Header().Set("X-Storage-Url", "http://storage.example.com/v1/acct")
		w.Header().Set("X-Storage-Token", "tok123")
		w.Header().Set("X-CDN-Management-Url", "http://cdn.example.com/v1/acct")
		w.WriteHeader(204)
	}))
	defer ts.Close()

	auth := swiftkit.NewAuth("user", "key", ts.URL)
	result, err := auth.Authenticate()
	assert.Nil(t, err)
	assert.Equal(t, "http://storage.example.com/v1/acct", result.StorageURL)
	assert.Equal(t, "http://cdn.example.com/v1/acct", result.CDNURL)
	assert.Equal(t, "tok123", result.Token)
	assert.Equal(t, "user", gotUser)
	assert.Equal(t, "key", gotPass)
	assert.Equal(t, "/", gotPath)
}

func TestAuthenticateAccountPath(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("X-Storage-Url", "http://storage.example.com/v1/acct")
		w.Header().Set("X-Auth-Token", "tok456")
		w.WriteHeader(204)
	}))
	defer ts.Close()

	auth := &swiftkit.Auth{Account: "acct", Username: "user", APIKey: "key", URL: ts.URL, Version: 1}
	result, err := auth.Authenticate()
	assert.Nil(t, err)
	// the X-Auth-Token fallback is accepted when X-Storage-Token is absent
	assert.Equal(t, "tok456", result.Token)
	assert.Equal(t, "", result.CDNURL)
	assert.Equal(t, "/v1/acct/auth", gotPath)
}

func TestAuthenticateRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
	}))
	defer ts.Close()

	_, err := swiftkit.NewAuth("user", "bad", ts.URL).Authenticate()
	assert.Equal(t, swiftkit.ErrAuthenticationFailed, err)
}

func TestAuthenticateMalformed(t *testing.T) {
	// 204 without the routing headers is a protocol violation, not a
	// credential problem
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(204)
	}))
	defer ts.Close()

	_, err := swiftkit.NewAuth("user", "key", ts.URL).Authenticate()
	assert.IsType(t, &swiftkit.AuthenticationError{}, err)
}

func TestAuthenticateServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer ts.Close()

	_, err := swiftkit.NewAuth("user", "key", ts.URL).Authenticate()
	respErr, ok := err.(*swiftkit.ResponseError)
	assert.True(t, ok)
	assert.Equal(t, 503, respErr.Status)
}

func TestMockAuth(t *testing.T) {
	auth := &swiftkit.MockAuth{Account: "acct", URL: "http://localhost:9080/", Version: 1}
	result, err := auth.Authenticate()
	assert.Nil(t, err)
	assert.Equal(t, "http://localhost:9080/v1/acct", result.StorageURL)
	assert.Equal(t, "", result.CDNURL)
	assert.NotEmpty(t, result.Token)

	// deterministic: same inputs, same outputs
	again, err := auth.Authenticate()
	assert.Nil(t, err)
	assert.Equal(t, result, again)

	withCDN := &swiftkit.MockAuth{Account: "acct", URL: "http://localhost:9080", CDNURL: "http://localhost:9081"}
	result, err = withCDN.Authenticate()
	assert.Nil(t, err)
	assert.Equal(t, "http://localhost:9081/v1/acct", result.CDNURL)
}
