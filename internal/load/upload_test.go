package load

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
}

type fakeBucketServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	exists   bool
}

func (f *fakeBucketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Path:        strings.TrimSuffix(r.URL.Path, "/"),
		ContentType: r.Header.Get("Content-Type"),
	})
	exists := f.exists
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodHead && !exists:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut:
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeBucketServer) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestUploader(t *testing.T, fake *fakeBucketServer, prefix string) *ObjectUploader {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	u, err := NewObjectUploader(UploadConfig{
		Endpoint:  srv.URL,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "artifacts",
		Region:    "us-east-1",
		Prefix:    prefix,
	})
	require.NoError(t, err)
	return u
}

func TestNewObjectUploader_Validation(t *testing.T) {
	_, err := NewObjectUploader(UploadConfig{Bucket: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint is required")

	_, err = NewObjectUploader(UploadConfig{Endpoint: "localhost:9000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")

	u, err := NewObjectUploader(UploadConfig{Endpoint: "localhost:9000", Bucket: "b"})
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestObjectUploader_Key(t *testing.T) {
	u := &ObjectUploader{}
	assert.Equal(t, DefaultObjectName, u.Key(""))
	assert.Equal(t, "x.csv", u.Key("x.csv"))

	u.prefix = "exports/daily"
	assert.Equal(t, "exports/daily/artistas_merge.csv", u.Key(""))
}

func TestObjectUploader_Upload(t *testing.T) {
	fake := &fakeBucketServer{exists: true}
	u := newTestUploader(t, fake, "exports")

	local := filepath.Join(t.TempDir(), "merged.csv")
	require.NoError(t, os.WriteFile(local, []byte("track_id,artist\nt1,adele\n"), 0o644))

	key, err := u.Upload(context.Background(), local, "")
	require.NoError(t, err)
	assert.Equal(t, "exports/artistas_merge.csv", key)

	reqs := fake.recorded()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "/artifacts/exports/artistas_merge.csv", last.Path)
	assert.Equal(t, "text/csv", last.ContentType)
}

func TestObjectUploader_UploadMissingFile(t *testing.T) {
	fake := &fakeBucketServer{exists: true}
	u := newTestUploader(t, fake, "")

	_, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), "x.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load: upload x.csv")
	assert.Empty(t, fake.recorded())
}

func TestObjectUploader_EnsureBucketCreates(t *testing.T) {
	fake := &fakeBucketServer{exists: false}
	u := newTestUploader(t, fake, "")

	require.NoError(t, u.EnsureBucket(context.Background()))

	reqs := fake.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodHead, reqs[0].Method)
	assert.Equal(t, "/artifacts", reqs[0].Path)
	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.Equal(t, "/artifacts", reqs[1].Path)
}

func TestObjectUploader_EnsureBucketExists(t *testing.T) {
	fake := &fakeBucketServer{exists: true}
	u := newTestUploader(t, fake, "")

	require.NoError(t, u.EnsureBucket(context.Background()))

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodHead, reqs[0].Method)
}
