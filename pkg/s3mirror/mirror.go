// Package s3mirror copies the contents of a storage container into an
// Amazon S3 bucket, fanning object transfers out over a bounded set of
// workers that each hold their own pooled connection.
package s3mirror

import (
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/swiftkit/swiftkit/pkg/swiftkit"
)

// Mirror copies objects from one storage account into one S3 bucket.
type Mirror struct {
	log      logrus.FieldLogger
	pool     *swiftkit.ConnectionPool
	uploader s3manageriface.UploaderAPI
	bucket   string
	workers  int
}

// New returns a Mirror uploading into bucket with the given number of
// concurrent workers (minimum one). Each worker borrows its own connection
// from the pool; a connection carries at most one request at a time.
func New(logger logrus.FieldLogger, pool *swiftkit.ConnectionPool, uploader s3manageriface.UploaderAPI, bucket string, workers int) *Mirror {
	if workers < 1 {
		workers = 1
	}
	return &Mirror{
		log:      logger,
		pool:     pool,
		uploader: uploader,
		bucket:   bucket,
		workers:  workers,
	}
}

// NewUploader builds the real S3 uploader for the given region.
func NewUploader(region string) s3manageriface.UploaderAPI {
	sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))
	return s3manager.NewUploader(sess)
}

// MirrorContainer copies every object in the named container whose name
// starts with prefix (empty means all) into the bucket, keyed as
// "<container>/<object name>". Returns the number of objects copied.
func (m *Mirror) MirrorContainer(container, prefix string) (int, error) {
	conn, err := m.pool.Get()
	if err != nil {
		return 0, err
	}
	cont, err := conn.GetContainer(container)
	if err != nil {
		m.pool.Put(conn)
		return 0, err
	}
	names, err := cont.ListObjects(swiftkit.ListParams{Prefix: prefix})
	m.pool.Put(conn)
	if err != nil {
		return 0, errors.Wrap(err, "listing container "+container)
	}

	work := make(chan string, len(names))
	for _, name := range names {
		work <- name
	}
	close(work)

	var copied int64
	var g errgroup.Group
	for i := 0; i < m.workers; i++ {
		g.Go(func() error {
			conn, err := m.pool.Get()
			if err != nil {
				return err
			}
			defer m.pool.Put(conn)

			cont, err := conn.GetContainer(container)
			if err != nil {
				return err
			}
			for name := range work {
				if err := m.copyObject(cont, name); err != nil {
					return errors.Wrap(err, "mirroring "+name)
				}
				atomic.AddInt64(&copied, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(atomic.LoadInt64(&copied)), err
	}
	m.log.Infof("mirrored %d objects from %s to s3://%s", copied, container, m.bucket)
	return int(atomic.LoadInt64(&copied)), nil
}

func (m *Mirror) copyObject(cont *swiftkit.Container, name string) error {
	obj, err := cont.GetObject(name)
	if err != nil {
		return err
	}
	body, err := obj.Open()
	if err != nil {
		return err
	}
	defer body.Close()

	input := &s3manager.UploadInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(cont.Name + "/" + name),
		Body:   body,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if _, err := m.uploader.Upload(input); err != nil {
		return err
	}
	m.log.Debugf("uploaded %s/%s", cont.Name, name)
	return nil
}
