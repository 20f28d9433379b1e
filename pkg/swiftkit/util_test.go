package swiftkit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEndpoint(t *testing.T) {
	ep, err := parseEndpoint("http://storage.example.com/v1/acct")
	assert.Nil(t, err)
	assert.Equal(t, "storage.example.com", ep.host)
	assert.Equal(t, 80, ep.port)
	assert.Equal(t, "v1/acct", ep.prefix)
	assert.False(t, ep.useTLS)

	ep, err = parseEndpoint("https://storage.example.com:8443/v1/acct/")
	assert.Nil(t, err)
	assert.Equal(t, 8443, ep.port)
	assert.Equal(t, "v1/acct", ep.prefix)
	assert.True(t, ep.useTLS)

	ep, err = parseEndpoint("https://storage.example.com")
	assert.Nil(t, err)
	assert.Equal(t, 443, ep.port)
	assert.Equal(t, "", ep.prefix)

	_, err = parseEndpoint("ftp://storage.example.com")
	assert.IsType(t, &InvalidURLError{}, err)

	_, err = parseEndpoint("http://")
	assert.IsType(t, &InvalidURLError{}, err)
}

func TestBuildPath(t *testing.T) {
	assert.Equal(t, "/v1/acct/", buildPath("v1/acct", nil))
	assert.Equal(t, "/v1/acct/", buildPath("v1/acct", []string{""}))
	assert.Equal(t, "/v1/acct/cont", buildPath("v1/acct", []string{"cont"}))
	assert.Equal(t, "/v1/acct/cont/obj", buildPath("v1/acct", []string{"cont", "obj"}))

	// names get percent-encoded segment by segment
	encoded := buildPath("v1/acct", []string{"cont", "some object"})
	assert.Equal(t, "/v1/acct/cont/some%20object", encoded)
}

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "", buildQuery(nil))
	assert.Equal(t, "", buildQuery(map[string]string{}))
	assert.Equal(t, "?limit=3", buildQuery(map[string]string{"limit": "3"}))

	q := buildQuery(map[string]string{"prefix": "a b", "limit": "3"})
	assert.True(t, strings.HasPrefix(q, "?"))
	assert.Contains(t, q, "prefix=a+b")
	assert.Contains(t, q, "limit=3")
}

func TestCheckContainerName(t *testing.T) {
	assert.Nil(t, checkContainerName("container1"))
	assert.IsType(t, &InvalidNameError{}, checkContainerName(""))
	assert.IsType(t, &InvalidNameError{}, checkContainerName("with/slash"))
	assert.IsType(t, &InvalidNameError{}, checkContainerName(strings.Repeat("a", ContainerNameLimit+1)))
}

func TestCheckObjectName(t *testing.T) {
	assert.Nil(t, checkObjectName("a/b.txt"))
	assert.IsType(t, &InvalidNameError{}, checkObjectName(""))
	assert.IsType(t, &InvalidNameError{}, checkObjectName(strings.Repeat("a", ObjectNameLimit+1)))
}

func TestHeaderInt(t *testing.T) {
	assert.Equal(t, int64(42), headerInt("42"))
	assert.Equal(t, int64(0), headerInt("not-a-number"))
	assert.Equal(t, int64(0), headerInt(""))
}
