package s3mirror_test

import (
	"io/ioutil"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/swiftkit/swiftkit/pkg/s3mirror"
	"github.com/swiftkit/swiftkit/pkg/swiftkit"
	"github.com/swiftkit/swiftkit/pkg/swiftlike"
)

// fakeUploader captures uploads in memory in place of the real S3 service.
type fakeUploader struct {
	m       sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeUploader) Upload(input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	body, err := ioutil.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.m.Lock()
	f.objects[aws.StringValue(input.Key)] = body
	if input.ContentType != nil {
		f.types[aws.StringValue(input.Key)] = *input.ContentType
	}
	f.m.Unlock()
	return &s3manager.UploadOutput{Location: "s3://" + aws.StringValue(input.Bucket) + "/" + aws.StringValue(input.Key)}, nil
}

func (f *fakeUploader) UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.Upload(input, opts...)
}

func setup(t *testing.T) (*swiftlike.Service, *swiftkit.ConnectionPool) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	svc := swiftlike.NewService(swiftlike.Options{}, logger)
	if err := svc.Start(); err != nil {
		t.Fatal("starting fake service", err)
	}
	pool := swiftkit.NewConnectionPool(swiftkit.NewAuth("", "", svc.AuthURL()), 4, nil)
	return svc, pool
}

func seedObjects(t *testing.T, pool *swiftkit.ConnectionPool, container string, objects map[string]string) {
	conn, err := pool.Get()
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Put(conn)
	cont, err := conn.CreateContainer(container)
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range objects {
		obj, err := cont.CreateObject(name)
		if err != nil {
			t.Fatal(err)
		}
		obj.ContentType = "text/plain"
		if err := obj.Write([]byte(content), true, nil); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMirrorContainer(t *testing.T) {
	svc, pool := setup(t)
	defer svc.Close()
	defer pool.Close()

	seedObjects(t, pool, "media", map[string]string{
		"a.txt":     "alpha",
		"b.txt":     "bravo",
		"sub/c.txt": "charlie",
	})

	uploader := newFakeUploader()
	mirror := s3mirror.New(logrus.New(), pool, uploader, "backup-bucket", 2)

	copied, err := mirror.MirrorContainer("media", "")
	assert.Nil(t, err)
	assert.Equal(t, 3, copied)
	assert.Equal(t, []byte("alpha"), uploader.objects["media/a.txt"])
	assert.Equal(t, []byte("bravo"), uploader.objects["media/b.txt"])
	assert.Equal(t, []byte("charlie"), uploader.objects["media/sub/c.txt"])
	assert.Equal(t, "text/plain", uploader.types["media/a.txt"])
}

func TestMirrorContainerPrefix(t *testing.T) {
	svc, pool := setup(t)
	defer svc.Close()
	defer pool.Close()

	seedObjects(t, pool, "media", map[string]string{
		"logs/1": "one",
		"logs/2": "two",
		"other":  "three",
	})

	uploader := newFakeUploader()
	mirror := s3mirror.New(logrus.New(), pool, uploader, "backup-bucket", 2)

	copied, err := mirror.MirrorContainer("media", "logs/")
	assert.Nil(t, err)
	assert.Equal(t, 2, copied)
	assert.Equal(t, 2, len(uploader.objects))
}

func TestMirrorMissingContainer(t *testing.T) {
	svc, pool := setup(t)
	defer svc.Close()
	defer pool.Close()

	uploader := newFakeUploader()
	mirror := s3mirror.New(logrus.New(), pool, uploader, "backup-bucket", 2)

	_, err := mirror.MirrorContainer("nonexistent", "")
	assert.IsType(t, &swiftkit.NoSuchContainer{}, err)
}
