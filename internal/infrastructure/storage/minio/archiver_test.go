package minio

import (
	"bytes"
	"context"
	"testing"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

type fakeObjectAPI struct {
	buckets map[string]bool
	puts    map[string][]byte
	putErr  error
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{buckets: map[string]bool{}, puts: map[string][]byte{}}
}

func (f *fakeObjectAPI) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeObjectAPI) MakeBucket(_ context.Context, bucket string, _ miniogo.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeObjectAPI) PutObject(_ context.Context, _ string, object string, reader *bytes.Reader, size int64, _ miniogo.PutObjectOptions) (miniogo.UploadInfo, error) {
	if f.putErr != nil {
		return miniogo.UploadInfo{}, f.putErr
	}
	data := make([]byte, size)
	if _, err := reader.Read(data); err != nil {
		return miniogo.UploadInfo{}, err
	}
	f.puts[object] = data
	return miniogo.UploadInfo{Key: object, Size: size}, nil
}

func (f *fakeObjectAPI) GetObject(_ context.Context, _ string, _ string, _ miniogo.GetObjectOptions) (*miniogo.Object, error) {
	return nil, assert.AnError
}

func newTestArchiver(api objectAPI) *Archiver {
	return &Archiver{
		api:    api,
		bucket: "patentflow-raw",
		logger: logging.NewNopLogger(),
		now:    func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) },
	}
}

func TestRawPageObjectName(t *testing.T) {
	capturedAt := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	name := rawPageObjectName("patentsview", capturedAt, 7)
	assert.Equal(t, "raw/patentsview/2024-03-15/page-7.json", name)
}

func TestPutRawPage_StoresUnderDatedKey(t *testing.T) {
	api := newFakeObjectAPI()
	archiver := newTestArchiver(api)

	payload := []byte(`{"patents":[]}`)
	require.NoError(t, archiver.PutRawPage(context.Background(), "patentsview", 1, payload))

	stored, ok := api.puts["raw/patentsview/2024-03-15/page-1.json"]
	require.True(t, ok)
	assert.Equal(t, payload, stored)
}

func TestPutRawPage_WriteFailure(t *testing.T) {
	api := newFakeObjectAPI()
	api.putErr = assert.AnError
	archiver := newTestArchiver(api)

	err := archiver.PutRawPage(context.Background(), "patentsview", 1, []byte("{}"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStoreWriteFailed))
}

func TestEnsureBucket_CreatesOnce(t *testing.T) {
	api := newFakeObjectAPI()
	archiver := newTestArchiver(api)

	require.NoError(t, archiver.EnsureBucket(context.Background()))
	assert.True(t, api.buckets["patentflow-raw"])

	// second call finds the bucket and does nothing
	require.NoError(t, archiver.EnsureBucket(context.Background()))
}
