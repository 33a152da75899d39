package minio

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"

	"bucketfs/internal/storage"
)

// TestMinioBucket_Integration exercises a real MinIO endpoint. Set
// BUCKETFS_TEST_MINIO_ENDPOINT (host:port) to enable; skips otherwise.
func TestMinioBucket_Integration(t *testing.T) {
	endpoint := os.Getenv("BUCKETFS_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("BUCKETFS_TEST_MINIO_ENDPOINT not set")
	}
	accessKey := os.Getenv("BUCKETFS_TEST_MINIO_ACCESS_KEY")
	secretKey := os.Getenv("BUCKETFS_TEST_MINIO_SECRET_KEY")
	if accessKey == "" {
		accessKey = "minioadmin"
	}
	if secretKey == "" {
		secretKey = "minioadmin"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("minio client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("minio not reachable: %v", err)
	}

	b := New(client, "bucketfs-test", "")
	require.NoError(t, b.Ensure(ctx))

	// Scope everything under a unique prefix so parallel runs and
	// leftovers cannot collide.
	root := uuid.NewString()

	store, err := storage.New(ctx, storage.Options{
		Bucket:     b,
		BucketName: "bucketfs-test",
		Zone:       "us-east-1",
		Host:       "example.com",
		Location:   root,
	})
	require.NoError(t, err)

	name := "integration/hello.txt"
	content := []byte("Hello, bucketfs!")

	f, err := store.Open(ctx, name, storage.ModeWrite|storage.ModeBinary)
	require.NoError(t, err)
	_, err = f.Write(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	exists, err := store.Exists(ctx, name)
	require.NoError(t, err)
	require.True(t, exists)

	size, err := store.Size(ctx, name)
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), size)

	r, err := store.Open(ctx, name, storage.ModeRead|storage.ModeBinary)
	require.NoError(t, err)
	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Equal(t, content, got)
	require.NoError(t, r.Close())

	_, err = store.ModifiedTime(ctx, name)
	require.NoError(t, err)

	keys, err := store.Listdir(ctx, "integration")
	require.NoError(t, err)
	require.Len(t, keys, 1)

	require.NoError(t, store.Delete(ctx, name))
	exists, err = store.Exists(ctx, name)
	require.NoError(t, err)
	require.False(t, exists)
}
