package swiftkit

import (
	"bufio"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// transport is one serial HTTP/1.1 request/response channel over a single
// TCP (or TLS) connection. It deliberately does not pool or multiplex: the
// service contract requires that each response body be fully consumed
// before the next request is written, and reconnect-and-reissue recovery
// needs ownership of the socket.
type transport struct {
	ep      endpoint
	timeout time.Duration
	conn    net.Conn
	br      *bufio.Reader
}

func newTransport(ep endpoint, timeout time.Duration) *transport {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &transport{ep: ep, timeout: timeout}
}

// connect dials the endpoint, replacing any previous socket.
func (t *transport) connect() error {
	t.close()

	conn, err := net.DialTimeout("tcp", t.ep.addr(), t.timeout)
	if err != nil {
		return errors.Wrap(err, "connecting to "+t.ep.addr())
	}
	if t.ep.useTLS {
		tc := tls.Client(conn, &tls.Config{ServerName: t.ep.host})
		tc.SetDeadline(time.Now().Add(t.timeout))
		if err := tc.Handshake(); err != nil {
			tc.Close()
			return errors.Wrap(err, "TLS handshake with "+t.ep.addr())
		}
		conn = tc
	}
	t.conn = conn
	t.br = bufio.NewReader(conn)
	return nil
}

func (t *transport) close() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
		t.br = nil
	}
}

func (t *transport) connected() bool {
	return t.conn != nil
}

// extendDeadline pushes the socket deadline out by the configured timeout.
// Called before each write and each body read so that slow-but-progressing
// transfers are not cut off mid-stream.
func (t *transport) extendDeadline() {
	if t.conn != nil {
		t.conn.SetDeadline(time.Now().Add(t.timeout))
	}
}

// roundTrip writes the request and reads the response head. The response
// body remains unread on the wire; the caller owns draining it. Any error
// here is a transport failure in the retry policy's classification.
func (t *transport) roundTrip(req *http.Request) (*http.Response, error) {
	if t.conn == nil {
		if err := t.connect(); err != nil {
			return nil, err
		}
	}
	t.extendDeadline()
	if err := req.Write(t.conn); err != nil {
		return nil, errors.Wrap(err, "writing request")
	}
	t.extendDeadline()
	resp, err := http.ReadResponse(t.br, req)
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	return resp, nil
}
