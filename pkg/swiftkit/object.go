// Object operations.
//
// An Object is analogous to a file on a conventional filesystem: data plus
// arbitrary metadata. Uploads can verify end to end with an md5 checksum,
// or trust the checksum the server reports back.
package swiftkit

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ProgressFunc reports transfer progress after each chunk as
// (bytes so far, total size).
type ProgressFunc func(transferred, total int64)

// etagState records where the object's checksum came from. A caller
// assigned checksum is never recomputed; a locally computed one is cleared
// when verification is off.
type etagState int

const (
	etagUnset etagState = iota
	etagComputed
	etagOverridden
)

// Object is a handle on one storage object: its data and metadata.
type Object struct {
	container *Container
	Name      string

	// ContentType is guessed from the source file name on upload when left
	// empty, falling back to application/octet-stream.
	ContentType string

	// Size is the object's byte length. It is cached from the server for
	// existing objects and must be assigned before Send.
	Size int64

	// LastModified is cached from the server, when known.
	LastModified string

	// Metadata is committed with the next Write or SyncMetadata. Names and
	// values are length-checked before any request is made.
	Metadata map[string]string

	etag      string
	etagState etagState
}

func newObject(c *Container, name string, mustExist bool) (*Object, error) {
	if err := checkObjectName(name); err != nil {
		return nil, err
	}
	o := &Object{container: c, Name: name, Metadata: map[string]string{}}
	found, err := o.initialize()
	if err != nil {
		return nil, err
	}
	if !found && mustExist {
		return nil, &NoSuchObject{Name: name}
	}
	return o, nil
}

// initialize loads the object's attributes from the server, reporting
// whether the object exists at all.
func (o *Object) initialize() (bool, error) {
	resp, err := o.conn().Execute("HEAD", o.path(), nil, nil, nil)
	if err != nil {
		return false, err
	}
	if resp.Status == http.StatusNotFound {
		resp.Discard()
		return false, nil
	}
	if !resp.Success() {
		return false, resp.Err()
	}
	o.ContentType = resp.Header.Get("Content-Type")
	o.Size = headerInt(resp.Header.Get("Content-Length"))
	o.LastModified = resp.Header.Get("Last-Modified")
	if etag := resp.Header.Get("Etag"); etag != "" {
		o.etag = etag
		o.etagState = etagComputed
	}
	for key, values := range resp.Header {
		if strings.HasPrefix(key, "X-Object-Meta-") {
			o.Metadata[strings.TrimPrefix(key, "X-Object-Meta-")] = values[0]
		}
	}
	resp.Discard()
	return true, nil
}

// ETag returns the object's checksum: caller-assigned, locally computed, or
// as reported by the server, whichever happened last.
func (o *Object) ETag() string {
	return o.etag
}

// SetETag assigns the checksum to attach to the next upload. A checksum set
// this way is trusted as-is and never recomputed.
func (o *Object) SetETag(etag string) {
	o.etag = etag
	o.etagState = etagOverridden
}

// Read returns the object's entire content.
func (o *Object) Read() ([]byte, error) {
	return o.readWith(nil)
}

// ReadRange returns size bytes of content starting at offset.
func (o *Object) ReadRange(offset, size int64) ([]byte, error) {
	hdrs := http.Header{}
	hdrs.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+size-1))
	return o.readWith(hdrs)
}

func (o *Object) readWith(hdrs http.Header) ([]byte, error) {
	resp, err := o.get(hdrs)
	if err != nil {
		return nil, err
	}
	return resp.ReadBody()
}

// Open returns a single-pass reader over the object's content. The reader
// must be closed before the owning connection can issue another request.
func (o *Object) Open() (io.ReadCloser, error) {
	resp, err := o.get(nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ReadTo copies the object's content to w in bounded chunks, invoking
// callback (when non-nil) after each chunk.
func (o *Object) ReadTo(w io.Writer, callback ProgressFunc) error {
	resp, err := o.get(nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var transferred int64
	buf := make([]byte, readChunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			transferred += int64(n)
			if callback != nil {
				callback(transferred, o.Size)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// SaveToFilename writes the object's content to the named file.
func (o *Object) SaveToFilename(filename string, callback ProgressFunc) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return o.ReadTo(f, callback)
}

func (o *Object) get(hdrs http.Header) (*Response, error) {
	resp, err := o.conn().Execute("GET", o.path(), nil, hdrs, nil)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusNotFound {
		resp.Discard()
		return nil, &NoSuchObject{Name: o.Name}
	}
	if !resp.Success() {
		return nil, resp.Err()
	}
	return resp, nil
}

// Write uploads data as the object's new content.
//
// With verify enabled an md5 checksum is computed locally (unless one was
// assigned with SetETag) and attached for end-to-end verification. With
// verify disabled any local checksum is cleared and the server-reported
// ETag is adopted afterwards; there is then no guarantee that what was
// stored matches what was sent.
func (o *Object) Write(data []byte, verify bool, callback ProgressFunc) error {
	o.Size = int64(len(data))
	if verify {
		if o.etagState != etagOverridden {
			sum := md5.Sum(data)
			o.etag = hex.EncodeToString(sum[:])
			o.etagState = etagComputed
		}
	} else {
		o.etag = ""
		o.etagState = etagUnset
	}
	return o.put(&progressReader{r: bytes.NewReader(data), total: o.Size, callback: callback}, verify)
}

// WriteFrom uploads the object's content from a seekable source of known
// size, streaming it in bounded chunks rather than buffering it. With
// verify enabled the source is read once to compute the checksum and then
// rewound.
func (o *Object) WriteFrom(src io.ReadSeeker, size int64, verify bool, callback ProgressFunc) error {
	o.Size = size
	if verify {
		if o.etagState != etagOverridden {
			etag, err := computeMD5(src)
			if err != nil {
				return err
			}
			o.etag = etag
			o.etagState = etagComputed
		}
	} else {
		o.etag = ""
		o.etagState = etagUnset
	}
	return o.put(&progressReader{r: src, total: size, callback: callback}, verify)
}

// Send uploads the object's content from an arbitrary reader. Size must be
// assigned beforehand; a source that ends short of it fails with
// ErrIncompleteSend. Verification is implicitly off unless a checksum was
// assigned with SetETag; the server-reported ETag is adopted afterwards.
func (o *Object) Send(src io.Reader) error {
	if o.Size <= 0 {
		return &InvalidObjectSizeError{Size: o.Size}
	}
	if o.etagState != etagOverridden {
		o.etag = ""
		o.etagState = etagUnset
	}
	return o.put(&strictReader{r: src, want: o.Size}, false)
}

// LoadFromFilename uploads the named file's contents, guessing the content
// type from its extension when none is set.
func (o *Object) LoadFromFilename(filename string, verify bool, callback ProgressFunc) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if o.ContentType == "" {
		o.ContentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	return o.WriteFrom(f, fi.Size(), verify, callback)
}

func (o *Object) put(body io.Reader, verify bool) error {
	hdrs, err := o.makeHeaders()
	if err != nil {
		return err
	}
	resp, err := o.conn().PutStream(o.path(), hdrs, body, o.Size)
	if err != nil {
		if errors.Cause(err) == ErrIncompleteSend {
			return ErrIncompleteSend
		}
		return err
	}
	if !resp.Success() {
		return resp.Err()
	}
	// Trust-server mode, and the generator path: adopt whatever checksum
	// the server computed.
	if !verify || o.etagState == etagUnset {
		if etag := resp.Header.Get("Etag"); etag != "" {
			o.etag = etag
			o.etagState = etagComputed
		}
	}
	return resp.Discard()
}

// SyncMetadata commits the metadata map to the server. The service
// acknowledges a metadata update with 202.
func (o *Object) SyncMetadata() error {
	if len(o.Metadata) == 0 {
		return nil
	}
	hdrs, err := o.makeHeaders()
	if err != nil {
		return err
	}
	resp, err := o.conn().Execute("POST", o.path(), nil, hdrs, nil)
	if err != nil {
		return err
	}
	if resp.Status != http.StatusAccepted {
		return resp.Err()
	}
	return resp.Discard()
}

// PublicURI returns the object's URI through the CDN, when its container is
// published.
func (o *Object) PublicURI() (string, error) {
	base, err := o.container.PublicURI()
	if err != nil {
		return "", err
	}
	return base + buildPath("", []string{o.Name}), nil
}

// makeHeaders renders the object's attributes as request headers, length
// checking the metadata first.
func (o *Object) makeHeaders() (http.Header, error) {
	hdrs := http.Header{}
	if o.etag != "" {
		hdrs.Set("ETag", o.etag)
	}
	if o.ContentType != "" {
		hdrs.Set("Content-Type", o.ContentType)
	} else {
		hdrs.Set("Content-Type", "application/octet-stream")
	}
	for name, value := range o.Metadata {
		if len(name) > MetaNameLimit {
			return nil, &InvalidMetadataError{Field: "name", Value: name}
		}
		if len(value) > MetaValueLimit {
			return nil, &InvalidMetadataError{Field: "value", Value: value}
		}
		hdrs.Set("X-Object-Meta-"+name, value)
	}
	hdrs.Set("Content-Length", strconv.FormatInt(o.Size, 10))
	return hdrs, nil
}

func (o *Object) conn() *Connection {
	return o.container.conn
}

func (o *Object) path() []string {
	return []string{o.container.Name, o.Name}
}

// computeMD5 hashes the source in bounded chunks and rewinds it.
func computeMD5(src io.ReadSeeker) (string, error) {
	h := md5.New()
	buf := make([]byte, writeChunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// progressReader caps each read at the upload chunk size and reports
// progress after every chunk.
type progressReader struct {
	r           io.Reader
	total       int64
	transferred int64
	callback    ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	if len(buf) > writeChunkSize {
		buf = buf[:writeChunkSize]
	}
	n, err := p.r.Read(buf)
	if n > 0 {
		p.transferred += int64(n)
		if p.callback != nil {
			p.callback(p.transferred, p.total)
		}
	}
	return n, err
}

// strictReader fails with ErrIncompleteSend when the source ends before the
// declared size, rather than silently sending a short body.
type strictReader struct {
	r    io.Reader
	want int64
	sent int64
}

func (s *strictReader) Read(buf []byte) (int, error) {
	if len(buf) > writeChunkSize {
		buf = buf[:writeChunkSize]
	}
	n, err := s.r.Read(buf)
	s.sent += int64(n)
	if err == io.EOF && s.sent < s.want {
		return n, ErrIncompleteSend
	}
	return n, err
}
