package kv

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "pocketstore/products")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "pocketstore/products", `[{"id":1}]`))
	require.NoError(t, s.Set(ctx, "pocketstore/orders", `[]`))

	blob, found, err := s.Get(ctx, "pocketstore/products")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":1}]`, blob)

	require.NoError(t, s.Set(ctx, "pocketstore/products", `[{"id":2}]`))
	blob, _, err = s.Get(ctx, "pocketstore/products")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":2}]`, blob)

	blob, found, err = s.Get(ctx, "pocketstore/orders")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, blob)

	require.NoError(t, s.Ping(ctx))
}

func TestMemStore(t *testing.T) {
	exerciseStore(t, NewMemStore())
}

func TestSQLStore_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pocketstore.db")

	s, err := OpenSQL(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	// reopening the same file sees the persisted rows
	s, err = OpenSQL(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	blob, found, err := s.Get(context.Background(), "pocketstore/products")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":2}]`, blob)
}

func TestOpen_MemoryAndSQLite(t *testing.T) {
	s, err := Open(context.Background(), Config{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemStore{}, s)

	s, err = Open(context.Background(), Config{Driver: "SQLite", DSN: filepath.Join(t.TempDir(), "kv.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Close())
}

func TestOpen_UnknownDriver(t *testing.T) {
	s, err := Open(context.Background(), Config{Driver: "etcd"})
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, ErrUnknownDriver))
}

func TestOpenSQL_RequiresDSN(t *testing.T) {
	_, err := OpenSQL(context.Background(), DriverPostgres, "")
	assert.Error(t, err)
}

func TestOpenS3_RequiresBucket(t *testing.T) {
	_, err := OpenS3(context.Background(), S3Config{})
	assert.Error(t, err)
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Store(t *testing.T) {
	objects := newFakeObjects()
	s := newS3Store(objects, "shop", "device-1/")

	exerciseStore(t, s)

	_, ok := objects.objects["shop/device-1/pocketstore/products"]
	assert.True(t, ok, "object key must carry the prefix")
}

func TestS3Store_PutError(t *testing.T) {
	objects := newFakeObjects()
	objects.putErr = errors.New("access denied")
	s := newS3Store(objects, "shop", "")

	err := s.Set(context.Background(), "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
