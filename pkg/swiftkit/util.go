// Utility functions shared by the client core: endpoint parsing, path and
// query encoding, and client-side name validation.
package swiftkit

import (
	"net/url"
	"strconv"
	"strings"
)

// endpoint is the parsed form of a storage or CDN base URL.
type endpoint struct {
	host   string
	port   int
	prefix string // path prefix without leading or trailing slash
	useTLS bool
}

func (e endpoint) addr() string {
	return e.host + ":" + strconv.Itoa(e.port)
}

// parseEndpoint splits a service URL into host, port, path prefix and TLS
// flag. Only http and https schemes are accepted.
func parseEndpoint(rawurl string) (endpoint, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return endpoint{}, &InvalidURLError{URL: rawurl}
	}

	var ep endpoint
	switch u.Scheme {
	case "http":
		ep.port = 80
	case "https":
		ep.port = 443
		ep.useTLS = true
	default:
		return endpoint{}, &InvalidURLError{URL: rawurl}
	}

	ep.host = u.Hostname()
	if ep.host == "" {
		return endpoint{}, &InvalidURLError{URL: rawurl}
	}
	if p := u.Port(); p != "" {
		ep.port, err = strconv.Atoi(p)
		if err != nil {
			return endpoint{}, &InvalidURLError{URL: rawurl}
		}
	}
	ep.prefix = strings.Trim(u.Path, "/")
	return ep, nil
}

// buildPath joins the percent-encoded segments onto the endpoint's path
// prefix. An empty segment list yields the account-level path.
func buildPath(prefix string, segments []string) string {
	quoted := make([]string, len(segments))
	for i, s := range segments {
		quoted[i] = url.PathEscape(s)
	}
	return "/" + prefix + "/" + strings.Join(quoted, "/")
}

// buildQuery renders query parameters with percent-encoding on both sides.
// Returns an empty string when there are no parameters.
func buildQuery(parms map[string]string) string {
	if len(parms) == 0 {
		return ""
	}
	v := url.Values{}
	for key, val := range parms {
		v.Set(key, val)
	}
	return "?" + v.Encode()
}

// checkContainerName rejects empty, slash-containing, and over-limit names
// before any request is made.
func checkContainerName(name string) error {
	if name == "" || strings.Contains(name, "/") || len(name) > ContainerNameLimit {
		return &InvalidNameError{Kind: "container", Name: name}
	}
	return nil
}

// checkObjectName rejects empty and over-limit names. Slashes are legal in
// object names (they form pseudo-directories).
func checkObjectName(name string) error {
	if name == "" || len(name) > ObjectNameLimit {
		return &InvalidNameError{Kind: "object", Name: name}
	}
	return nil
}

// headerInt parses a numeric response header, reading unparsable values as
// zero the way the service's clients always have.
func headerInt(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
