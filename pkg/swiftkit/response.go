package swiftkit

import (
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
)

// Response is the raw result of an executed request. The Connection performs
// no status interpretation beyond 401; callers own the domain mapping.
//
// Body is a single-pass, forward-only reader tied to the connection's
// transport. It MUST be closed (which drains any unread remainder) before
// the connection can issue another request; the transport is a strictly
// serial request/response channel.
type Response struct {
	Status int
	Reason string
	Header http.Header
	Body   io.ReadCloser
}

// ReadBody consumes the remaining body and closes it, releasing the
// transport for the next request.
func (r *Response) ReadBody() ([]byte, error) {
	defer r.Body.Close()
	return ioutil.ReadAll(r.Body)
}

// Discard throws away the remaining body and closes it. Used on error paths
// where the payload is irrelevant but the transport must stay valid.
func (r *Response) Discard() error {
	return r.Body.Close()
}

// Success reports whether the status is in the 2xx range.
func (r *Response) Success() bool {
	return r.Status >= 200 && r.Status <= 299
}

// Err maps a non-2xx response to a ResponseError. The body is discarded.
func (r *Response) Err() error {
	r.Discard()
	return &ResponseError{Status: r.Status, Reason: r.Reason}
}

// bodyReader wraps the transport-backed response body. Close drains the
// remainder so the next response on the same transport starts at a message
// boundary, then invokes the release hook exactly once.
type bodyReader struct {
	rc      io.ReadCloser
	tr      *transport
	release func()
	closed  bool
}

func (b *bodyReader) Read(p []byte) (int, error) {
	if b.closed {
		return 0, io.EOF
	}
	b.tr.extendDeadline()
	return b.rc.Read(p)
}

func (b *bodyReader) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.tr.extendDeadline()
	_, err := io.Copy(ioutil.Discard, b.rc)
	cerr := b.rc.Close()
	if b.release != nil {
		b.release()
	}
	if err != nil {
		return err
	}
	return cerr
}

// newResponse wraps an http.Response read off the given transport.
func newResponse(hr *http.Response, tr *transport, release func()) *Response {
	reason := strings.TrimPrefix(hr.Status, strconv.Itoa(hr.StatusCode)+" ")
	return &Response{
		Status: hr.StatusCode,
		Reason: reason,
		Header: hr.Header,
		Body:   &bodyReader{rc: hr.Body, tr: tr, release: release},
	}
}
