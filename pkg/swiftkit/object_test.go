package swiftkit_test

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swiftkit/swiftkit/pkg/swiftkit"
	"github.com/swiftkit/swiftkit/pkg/swiftlike"
)

func testContainer(t *testing.T, conn *swiftkit.Connection) *swiftkit.Container {
	cont, err := conn.CreateContainer("objects")
	if err != nil {
		t.Fatal("creating test container", err)
	}
	return cont
}

func TestObjectWriteRead(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	data := []byte("the rain in spain stays mainly on the plain")
	obj, err := cont.CreateObject("rain.txt")
	assert.Nil(t, err)
	obj.ContentType = "text/plain"
	assert.Nil(t, obj.Write(data, true, nil))

	sum := md5.Sum(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), obj.ETag())
	assert.Equal(t, int64(len(data)), obj.Size)

	got, err := cont.GetObject("rain.txt")
	assert.Nil(t, err)
	assert.Equal(t, "text/plain", got.ContentType)
	assert.Equal(t, obj.ETag(), got.ETag())
	assert.NotEmpty(t, got.LastModified)

	content, err := got.Read()
	assert.Nil(t, err)
	assert.Equal(t, data, content)
}

func TestObjectWriteChecksumMismatch(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	obj, err := cont.CreateObject("corrupt")
	assert.Nil(t, err)
	obj.SetETag("d41d8cd98f00b204e9800998ecf8427e") // not the content's checksum

	err = obj.Write([]byte("something else entirely"), true, nil)
	respErr, ok := err.(*swiftkit.ResponseError)
	assert.True(t, ok)
	assert.Equal(t, 422, respErr.Status)
}

func TestObjectWriteTrustServer(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	data := []byte("unverified payload")
	obj, err := cont.CreateObject("trusting")
	assert.Nil(t, err)
	assert.Nil(t, obj.Write(data, false, nil))

	// no local checksum; the server-reported one is adopted
	sum := md5.Sum(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), obj.ETag())
}

func TestObjectReadRange(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	obj, err := cont.CreateObject("ranged")
	assert.Nil(t, err)
	assert.Nil(t, obj.Write([]byte("0123456789"), true, nil))

	part, err := obj.ReadRange(3, 4)
	assert.Nil(t, err)
	assert.Equal(t, []byte("3456"), part)
}

func TestObjectNotFound(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	_, err := cont.GetObject("bogus")
	assert.IsType(t, &swiftkit.NoSuchObject{}, err)

	err = cont.DeleteObject("bogus")
	assert.IsType(t, &swiftkit.NoSuchObject{}, err)

	// CreateObject tolerates absence; reads on the handle do not
	obj, err := cont.CreateObject("bogus")
	assert.Nil(t, err)
	_, err = obj.Read()
	assert.IsType(t, &swiftkit.NoSuchObject{}, err)
}

func TestObjectSend(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	obj, err := cont.CreateObject("streamed")
	assert.Nil(t, err)

	// the size must be declared before streaming from a plain reader
	err = obj.Send(strings.NewReader("hello"))
	assert.IsType(t, &swiftkit.InvalidObjectSizeError{}, err)

	obj.Size = 5
	assert.Nil(t, obj.Send(strings.NewReader("hello")))
	sum := md5.Sum([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:]), obj.ETag())

	content, err := obj.Read()
	assert.Nil(t, err)
	assert.Equal(t, []byte("hello"), content)
}

func TestObjectSendIncomplete(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	obj, err := cont.CreateObject("short")
	assert.Nil(t, err)
	obj.Size = 100
	err = obj.Send(strings.NewReader("only a few bytes"))
	assert.Equal(t, swiftkit.ErrIncompleteSend, err)

	// the aborted upload stored nothing and the connection recovers
	_, err = cont.GetObject("short")
	assert.IsType(t, &swiftkit.NoSuchObject{}, err)
}

func TestObjectWriteFrom(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	data := bytes.Repeat([]byte("chunky"), 4096) // several write chunks
	obj, err := cont.CreateObject("large")
	assert.Nil(t, err)

	var lastTransferred, lastTotal int64
	progress := func(transferred, total int64) {
		lastTransferred = transferred
		lastTotal = total
	}
	assert.Nil(t, obj.WriteFrom(bytes.NewReader(data), int64(len(data)), true, progress))
	assert.Equal(t, int64(len(data)), lastTransferred)
	assert.Equal(t, int64(len(data)), lastTotal)

	content, err := obj.Read()
	assert.Nil(t, err)
	assert.Equal(t, data, content)
}

func TestObjectMetadata(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	obj, err := cont.CreateObject("annotated")
	assert.Nil(t, err)
	obj.Metadata["Genre"] = "documentary"
	assert.Nil(t, obj.Write([]byte("film"), true, nil))

	got, err := cont.GetObject("annotated")
	assert.Nil(t, err)
	assert.Equal(t, "documentary", got.Metadata["Genre"])

	got.Metadata["Rating"] = "unrated"
	assert.Nil(t, got.SyncMetadata())

	again, err := cont.GetObject("annotated")
	assert.Nil(t, err)
	assert.Equal(t, "unrated", again.Metadata["Rating"])
}

func TestObjectMetadataLimits(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	obj, err := cont.CreateObject("oversized")
	assert.Nil(t, err)

	obj.Metadata[strings.Repeat("n", swiftkit.MetaNameLimit+1)] = "v"
	err = obj.Write([]byte("x"), true, nil)
	assert.IsType(t, &swiftkit.InvalidMetadataError{}, err)

	obj.Metadata = map[string]string{"Name": strings.Repeat("v", swiftkit.MetaValueLimit+1)}
	err = obj.Write([]byte("x"), true, nil)
	assert.IsType(t, &swiftkit.InvalidMetadataError{}, err)
}

func TestObjectFileTransfer(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	dir, err := ioutil.TempDir("", "swiftkit-test")
	if err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "upload.txt")
	data := []byte("file bound for storage")
	if err := ioutil.WriteFile(src, data, 0644); err != nil {
		t.Fatal(err)
	}

	obj, err := cont.CreateObject("upload.txt")
	assert.Nil(t, err)
	assert.Nil(t, obj.LoadFromFilename(src, true, nil))
	assert.Contains(t, obj.ContentType, "text/plain")

	dst := filepath.Join(dir, "download.txt")
	got, err := cont.GetObject("upload.txt")
	assert.Nil(t, err)

	var lastTransferred int64
	assert.Nil(t, got.SaveToFilename(dst, func(transferred, total int64) {
		lastTransferred = transferred
	}))
	assert.Equal(t, int64(len(data)), lastTransferred)

	roundTripped, err := ioutil.ReadFile(dst)
	assert.Nil(t, err)
	assert.Equal(t, data, roundTripped)
}

func TestObjectOpen(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	obj, err := cont.CreateObject("stream-out")
	assert.Nil(t, err)
	assert.Nil(t, obj.Write([]byte("streamable content"), true, nil))

	r, err := obj.Open()
	assert.Nil(t, err)

	// the reader holds the transport until closed
	_, err = conn.Execute("HEAD", nil, nil, nil, nil)
	assert.Equal(t, swiftkit.ErrResponsePending, err)

	content, err := ioutil.ReadAll(r)
	assert.Nil(t, err)
	assert.Equal(t, []byte("streamable content"), content)
	assert.Nil(t, r.Close())

	resp, err := conn.Execute("HEAD", nil, nil, nil, nil)
	assert.Nil(t, err)
	resp.Discard()
}

func TestObjectNamesWithSlashes(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	obj, err := cont.CreateObject("photos/2026/august/spain.jpg")
	assert.Nil(t, err)
	assert.Nil(t, obj.Write([]byte("jpeg bytes"), true, nil))

	got, err := cont.GetObject("photos/2026/august/spain.jpg")
	assert.Nil(t, err)
	content, err := got.Read()
	assert.Nil(t, err)
	assert.Equal(t, []byte("jpeg bytes"), content)

	assert.Nil(t, cont.DeleteObject("photos/2026/august/spain.jpg"))
}

func TestInvalidObjectNames(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)
	before := len(svc.Operations())

	_, err := cont.CreateObject("")
	assert.IsType(t, &swiftkit.InvalidNameError{}, err)
	_, err = cont.GetObject(strings.Repeat("x", swiftkit.ObjectNameLimit+1))
	assert.IsType(t, &swiftkit.InvalidNameError{}, err)

	assert.Equal(t, before, len(svc.Operations()))
}

func TestObjectPublicURI(t *testing.T) {
	svc := startService(t, swiftlike.Options{})
	defer svc.Close()
	conn := newTestConnection(t, svc)
	defer conn.Close()
	cont := testContainer(t, conn)

	obj, err := cont.CreateObject("shared.txt")
	assert.Nil(t, err)
	assert.Nil(t, obj.Write([]byte("shared"), true, nil))

	_, err = obj.PublicURI()
	assert.Equal(t, swiftkit.ErrContainerNotPublic, err)

	assert.Nil(t, cont.MakePublic(0))
	uri, err := obj.PublicURI()
	assert.Nil(t, err)
	base, _ := cont.PublicURI()
	assert.Equal(t, base+"/shared.txt", uri)
}
