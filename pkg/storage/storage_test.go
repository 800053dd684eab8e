package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickkiraana/kiraana/pkg/storage"
)

func TestLocalDiskStore(t *testing.T) {
	ctx := context.Background()
	disk := storage.NewLocalDisk(t.TempDir(), "http://localhost:8080/storage/")
	blobs := storage.DiskStore{Disk: disk}

	url, err := blobs.Store(ctx, "uploads/2024/05/list.jpg", "image/jpeg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/storage/uploads/2024/05/list.jpg", url)
	assert.True(t, disk.Exists(ctx, "uploads/2024/05/list.jpg"))

	require.NoError(t, disk.Delete(ctx, "uploads/2024/05/list.jpg"))
	assert.False(t, disk.Exists(ctx, "uploads/2024/05/list.jpg"))
	assert.NoError(t, disk.Delete(ctx, "uploads/2024/05/list.jpg"))
}

func TestLocalDiskRejectsEmptyAndEscapes(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	disk := storage.NewLocalDisk(root, "http://x")

	_, err := storage.DiskStore{Disk: disk}.Store(ctx, "a.jpg", "image/jpeg", nil)
	assert.Error(t, err)

	require.NoError(t, disk.Put(ctx, "../../etc/evil.jpg", "image/jpeg", []byte("x")))
	assert.True(t, disk.Exists(ctx, "etc/evil.jpg"), "path is clamped inside the root")
}

func TestLocalDiskHandler(t *testing.T) {
	ctx := context.Background()
	disk := storage.NewLocalDisk(t.TempDir(), "http://x/storage")
	require.NoError(t, disk.Put(ctx, "uploads/a.txt", "text/plain", []byte("hello")))

	srv := httptest.NewServer(disk.Handler("/storage"))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/storage/uploads/a.txt")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "nosniff", res.Header.Get("X-Content-Type-Options"))

	res, err = http.Get(srv.URL + "/storage/uploads/")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
