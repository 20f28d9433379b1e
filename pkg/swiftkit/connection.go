// Connection management and request execution.
//
// A Connection holds an authenticated session against the storage endpoint
// and serves as the factory for Container instances. It reissues requests
// transparently across transient connection failures and session expiry:
// a transport failure is retried exactly once after reconnecting, and a 401
// is retried exactly once after re-authenticating. A second transport
// failure propagates as an error; a second 401 comes back as a plain
// Response for the caller to interpret. That asymmetry is part of the
// contract, not an accident.
package swiftkit

import (
	"bytes"
	"io"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ConnectionOptions configures a Connection beyond its Authenticator.
// The zero value is usable.
type ConnectionOptions struct {
	// Timeout bounds connect and read operations on the transport.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger receives debug-level notes about reconnects and
	// re-authentication. Nil means the logrus standard logger.
	Logger logrus.FieldLogger
}

// Connection is an authenticated, connected handle through which storage
// and CDN requests are executed.
//
// A Connection owns one serial transport (two with CDN) and is NOT safe for
// overlapping requests from multiple goroutines: the response body of each
// request must be fully consumed before the next request is written.
// Callers needing concurrency should hold one Connection per worker,
// coordinated through a ConnectionPool.
type Connection struct {
	auth    Authenticator
	timeout time.Duration
	log     logrus.FieldLogger

	token      string
	storageEP  endpoint
	cdnEP      endpoint
	cdnEnabled bool
	storage    *transport
	cdn        *transport

	mu   sync.Mutex // guards busy
	busy bool
}

// NewConnection authenticates with the given Authenticator and opens the
// storage transport (and the CDN transport when the account advertises one).
func NewConnection(auth Authenticator, opts *ConnectionOptions) (*Connection, error) {
	c := &Connection{auth: auth, timeout: DefaultTimeout, log: logrus.StandardLogger()}
	if opts != nil {
		if opts.Timeout != 0 {
			c.timeout = opts.Timeout
		}
		if opts.Logger != nil {
			c.log = opts.Logger
		}
	}
	if err := c.authenticate(); err != nil {
		return nil, err
	}
	return c, nil
}

// authenticate (re)runs the Authenticator and rebuilds the transports
// against the returned endpoints. The session token and base URLs are only
// ever mutated here.
func (c *Connection) authenticate() error {
	result, err := c.auth.Authenticate()
	if err != nil {
		return err
	}

	storageEP, err := parseEndpoint(result.StorageURL)
	if err != nil {
		return errors.Wrap(err, "parsing storage url")
	}

	c.closeTransports()
	c.token = result.Token
	c.storageEP = storageEP
	c.storage = newTransport(storageEP, c.timeout)
	if err := c.storage.connect(); err != nil {
		return err
	}

	c.cdnEnabled = false
	c.cdn = nil
	if result.CDNURL != "" {
		cdnEP, err := parseEndpoint(result.CDNURL)
		if err != nil {
			return errors.Wrap(err, "parsing CDN management url")
		}
		c.cdnEP = cdnEP
		c.cdn = newTransport(cdnEP, c.timeout)
		if err := c.cdn.connect(); err != nil {
			return err
		}
		c.cdnEnabled = true
	}
	return nil
}

// CDNEnabled reports whether authentication advertised a CDN management URL.
func (c *Connection) CDNEnabled() bool {
	return c.cdnEnabled
}

// Close tears down the transports. The Connection may be reused afterwards;
// the next request will reconnect through the retry path.
func (c *Connection) Close() {
	c.closeTransports()
}

func (c *Connection) closeTransports() {
	if c.storage != nil {
		c.storage.close()
	}
	if c.cdn != nil {
		c.cdn.close()
	}
}

// Execute performs a storage request. Path segments are percent-encoded and
// joined onto the session's base path; parms become a percent-encoded query
// string. Caller-supplied headers override the defaults key by key. The
// returned Response's body must be closed before the next request.
func (c *Connection) Execute(method string, path []string, data []byte, hdrs http.Header, parms map[string]string) (*Response, error) {
	return c.request(false, method, path, data, hdrs, parms)
}

// CDNExecute is Execute against the CDN management endpoint. It fails fast
// with ErrCDNNotEnabled when authentication did not advertise one.
func (c *Connection) CDNExecute(method string, path []string, data []byte, hdrs http.Header) (*Response, error) {
	if !c.cdnEnabled {
		return nil, ErrCDNNotEnabled
	}
	return c.request(true, method, path, data, hdrs, nil)
}

func (c *Connection) request(cdn bool, method string, path []string, data []byte, hdrs http.Header, parms map[string]string) (*Response, error) {
	if err := c.setBusy(); err != nil {
		return nil, err
	}
	resp, err := c.do(cdn, method, path, data, hdrs, parms)
	if err != nil {
		c.setIdle()
		return nil, err
	}
	return resp, nil
}

// do runs the retry state machine for one logical request: issue; on
// transport failure reconnect and reissue once; then, whatever response
// came back, a 401 triggers one re-authentication and a final reissue with
// no further recovery of its own.
func (c *Connection) do(cdn bool, method string, path []string, data []byte, hdrs http.Header, parms map[string]string) (*Response, error) {
	tr, prefix := c.pick(cdn)
	fullPath := buildPath(prefix, path) + buildQuery(parms)

	resp, err := c.issue(tr, method, fullPath, data, hdrs)
	if err != nil {
		c.log.Debugf("transport failure on %s %s, reconnecting: %v", method, fullPath, err)
		if cerr := tr.connect(); cerr != nil {
			return nil, cerr
		}
		resp, err = c.issue(tr, method, fullPath, data, hdrs)
		if err != nil {
			tr.close()
			return nil, err
		}
	}

	if resp.Status == http.StatusUnauthorized {
		c.log.Debug("session token rejected, re-authenticating")
		resp.Discard()
		c.setBusyAgain()
		if err := c.authenticate(); err != nil {
			return nil, err
		}
		if cdn && !c.cdnEnabled {
			return nil, ErrCDNNotEnabled
		}
		tr, prefix = c.pick(cdn)
		fullPath = buildPath(prefix, path) + buildQuery(parms)
		resp, err = c.issue(tr, method, fullPath, data, hdrs)
		if err != nil {
			tr.close()
			return nil, err
		}
	}
	return resp, nil
}

func (c *Connection) pick(cdn bool) (*transport, string) {
	if cdn {
		return c.cdn, c.cdnEP.prefix
	}
	return c.storage, c.storageEP.prefix
}

// issue performs a single request attempt on the given transport.
func (c *Connection) issue(tr *transport, method, fullPath string, data []byte, hdrs http.Header) (*Response, error) {
	req, err := http.NewRequest(method, c.urlFor(tr.ep, fullPath), bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.ContentLength = int64(len(data))
	req.Header = c.headersFor(hdrs)

	hr, err := tr.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return newResponse(hr, tr, c.setIdle), nil
}

// PutStream uploads a body of known total size directly onto the storage
// transport without buffering it. This path performs no retries: the source
// cannot be replayed. The returned Response's body must be closed.
func (c *Connection) PutStream(path []string, hdrs http.Header, body io.Reader, size int64) (*Response, error) {
	if err := c.setBusy(); err != nil {
		return nil, err
	}
	tr := c.storage
	fullPath := buildPath(c.storageEP.prefix, path)

	req, err := http.NewRequest("PUT", c.urlFor(tr.ep, fullPath), ioutil.NopCloser(&deadlineReader{tr: tr, r: body}))
	if err != nil {
		c.setIdle()
		return nil, errors.Wrap(err, "building request")
	}
	req.ContentLength = size
	req.Header = c.headersFor(hdrs)

	hr, err := tr.roundTrip(req)
	if err != nil {
		tr.close()
		c.setIdle()
		return nil, err
	}
	return newResponse(hr, tr, c.setIdle), nil
}

func (c *Connection) urlFor(ep endpoint, fullPath string) string {
	scheme := "http"
	if ep.useTLS {
		scheme = "https"
	}
	return scheme + "://" + ep.addr() + fullPath
}

// headersFor merges the default headers with caller overrides.
func (c *Connection) headersFor(hdrs http.Header) http.Header {
	h := http.Header{}
	h.Set("User-Agent", UserAgent)
	h.Set("X-Auth-Token", c.token)
	for key, values := range hdrs {
		h[http.CanonicalHeaderKey(key)] = values
	}
	return h
}

func (c *Connection) setBusy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrResponsePending
	}
	c.busy = true
	return nil
}

// setBusyAgain re-asserts the in-flight flag after an internal Discard
// released it mid-retry.
func (c *Connection) setBusyAgain() {
	c.mu.Lock()
	c.busy = true
	c.mu.Unlock()
}

func (c *Connection) setIdle() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// deadlineReader pushes the transport deadline forward on every read so a
// long but progressing upload is not cut off by the socket timeout.
type deadlineReader struct {
	tr *transport
	r  io.Reader
}

func (d *deadlineReader) Read(p []byte) (int, error) {
	d.tr.extendDeadline()
	return d.r.Read(p)
}
