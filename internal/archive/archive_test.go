package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/logistic/internal/config"
	"github.com/JonMunkholm/logistic/internal/core"
)

type fakeStore struct {
	exists  bool
	made    []string
	puts    map[string]string
	putErr  error
	headErr error
}

func (f *fakeStore) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.headErr
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeStore) FPutObject(_ context.Context, _, object, filePath string, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	if f.puts == nil {
		f.puts = map[string]string{}
	}
	f.puts[object] = filePath
	return minio.UploadInfo{Key: object}, nil
}

func fixedNow() time.Time { return time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC) }

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "stock/2024/03/stock_1.csv", ObjectKey("stock", "stock_1.csv", fixedNow()))
	assert.Equal(t, "stock/2024/03/x.csv", ObjectKey("stock", "../x.csv", fixedNow()))
}

func TestArchive(t *testing.T) {
	store := &fakeStore{}
	a := &MinioArchiver{client: store, bucket: "logistic", now: fixedNow}

	err := a.Archive(context.Background(), "stock", core.StagedFile{Name: "stock_1.csv", Path: "/var/logistic/stock/stock_1.csv"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"stock/2024/03/stock_1.csv": "/var/logistic/stock/stock_1.csv"}, store.puts)

	store.putErr = errors.New("access denied")
	err = a.Archive(context.Background(), "stock", core.StagedFile{Name: "stock_2.csv"})
	assert.ErrorContains(t, err, "access denied")
}

func TestEnsureBucket(t *testing.T) {
	store := &fakeStore{}
	a := &MinioArchiver{client: store, bucket: "logistic"}
	require.NoError(t, a.EnsureBucket(context.Background()))
	assert.Equal(t, []string{"logistic"}, store.made)

	store = &fakeStore{exists: true}
	a.client = store
	require.NoError(t, a.EnsureBucket(context.Background()))
	assert.Empty(t, store.made)

	a.client = &fakeStore{headErr: errors.New("unreachable")}
	assert.Error(t, a.EnsureBucket(context.Background()))
}

func TestNew(t *testing.T) {
	_, err := New(config.ArchiveConfig{Bucket: "b"})
	assert.Error(t, err, "endpoint required")

	_, err = New(config.ArchiveConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err, "bucket required")

	a, err := New(config.ArchiveConfig{Endpoint: "https://minio.example.com", Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "b", a.bucket)
}
