package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ediltrentini/site-backend/errs"
)

func TestDiskStore_SaveServeDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "a.jpg", strings.NewReader("jpeg-bytes"), 10, "image/jpeg"))

	data, err := os.ReadFile(filepath.Join(store.Dir(), "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	// names are generated, a collision must not overwrite
	assert.Error(t, store.Save(ctx, "a.jpg", strings.NewReader("other"), 5, "image/jpeg"))

	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg-bytes", rec.Body.String())

	require.NoError(t, store.Delete(ctx, "a.jpg"))
	_, err = os.Stat(filepath.Join(store.Dir(), "a.jpg"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.NoError(t, store.Delete(ctx, "a.jpg"), "deleting a missing file is a no-op")
}

func TestDiskStore_RejectsPathTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../evil.jpg", "sub/dir.jpg", "", "..", `..\x.jpg`} {
		err := store.Save(context.Background(), name, strings.NewReader("x"), 1, "image/jpeg")
		assert.True(t, errs.IsInvalidFieldError(err), name)
	}
}

type fakeS3 struct {
	puts    map[string]string
	deletes []string
	failPut bool
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut {
		return nil, errors.New("access denied")
	}
	body, _ := io.ReadAll(in.Body)
	f.puts[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = aws.ToString(in.ContentType) + ":" + string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_UsesPrefixedKeys(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{puts: map[string]string{}}
	store := newS3Store(fake, S3Config{Bucket: "site", Prefix: "/uploads/", PublicURL: "https://cdn.example.com/"})

	require.NoError(t, store.Save(ctx, "b.png", strings.NewReader("png"), 3, "image/png"))
	assert.Equal(t, "image/png:png", fake.puts["site/uploads/b.png"])

	require.NoError(t, store.Delete(ctx, "b.png"))
	assert.Equal(t, []string{"site/uploads/b.png"}, fake.deletes)

	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/b.png", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://cdn.example.com/uploads/b.png", rec.Header().Get("Location"))
}

func TestS3Store_PutFailure(t *testing.T) {
	store := newS3Store(&fakeS3{puts: map[string]string{}, failPut: true}, S3Config{Bucket: "site"})
	err := store.Save(context.Background(), "c.gif", strings.NewReader("gif"), 3, "image/gif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestFileServer_HidesDirectoryListings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("jpeg-bytes"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "site"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site", "index.html"), []byte("<h1>home</h1>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	h := FileServer(dir)
	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	rec := get("/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "a.jpg")

	assert.Equal(t, http.StatusNotFound, get("/empty/").Code)

	rec = get("/site/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "home")

	rec = get("/a.jpg")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg-bytes", rec.Body.String())
}
