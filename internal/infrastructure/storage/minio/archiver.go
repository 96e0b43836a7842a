// Package minio archives raw source API pages to object storage so any
// transformation can be replayed against the exact payload the upstream
// returned at the time.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/patentflow/internal/config"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

// objectAPI abstracts the minio client operations the archiver needs.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader *bytes.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// minioAdapter narrows *minio.Client to objectAPI.
type minioAdapter struct {
	client *minio.Client
}

func (a *minioAdapter) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return a.client.BucketExists(ctx, bucket)
}

func (a *minioAdapter) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return a.client.MakeBucket(ctx, bucket, opts)
}

func (a *minioAdapter) PutObject(ctx context.Context, bucket, object string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return a.client.PutObject(ctx, bucket, object, reader, size, opts)
}

func (a *minioAdapter) GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (*minio.Object, error) {
	return a.client.GetObject(ctx, bucket, object, opts)
}

// Archiver writes raw pages into a single bucket, partitioned by source
// and capture date.
type Archiver struct {
	api    objectAPI
	bucket string
	logger logging.Logger
	now    func() time.Time
}

// NewArchiver creates an Archiver over a fresh minio connection.
func NewArchiver(cfg config.MinIOConfig, logger logging.Logger) (*Archiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create minio client")
	}
	return &Archiver{
		api:    &minioAdapter{client: client},
		bucket: cfg.Bucket,
		logger: logger.Named("archiver"),
		now:    time.Now,
	}, nil
}

// EnsureBucket creates the archive bucket when it does not exist yet.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.api.BucketExists(ctx, a.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to check archive bucket").
			WithDetail(a.bucket)
	}
	if exists {
		return nil
	}
	if err := a.api.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWriteFailed, "failed to create archive bucket").
			WithDetail(a.bucket)
	}
	a.logger.Info("created archive bucket", logging.String("bucket", a.bucket))
	return nil
}

// PutRawPage stores one raw API page.  Pages are grouped under the source
// name and the UTC capture date so a day's fetch can be listed as a unit.
func (a *Archiver) PutRawPage(ctx context.Context, source string, page int, raw []byte) error {
	objectName := rawPageObjectName(source, a.now().UTC(), page)

	_, err := a.api.PutObject(ctx, a.bucket, objectName,
		bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWriteFailed, "failed to archive raw page").
			WithDetail(objectName)
	}

	a.logger.Debug("archived raw page",
		logging.String("object", objectName),
		logging.Int("bytes", len(raw)))
	return nil
}

// GetRawPage reads back an archived page for replay.
func (a *Archiver) GetRawPage(ctx context.Context, source string, capturedAt time.Time, page int) ([]byte, error) {
	objectName := rawPageObjectName(source, capturedAt.UTC(), page)

	obj, err := a.api.GetObject(ctx, a.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreReadFailed, "failed to fetch archived page").
			WithDetail(objectName)
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreReadFailed, "failed to read archived page").
			WithDetail(objectName)
	}
	return raw, nil
}

// rawPageObjectName builds the deterministic archive key for a page.
func rawPageObjectName(source string, capturedAt time.Time, page int) string {
	return fmt.Sprintf("raw/%s/%s/page-%d.json", source, capturedAt.Format("2006-01-02"), page)
}
