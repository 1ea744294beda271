package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/fetch"
)

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("extra content\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "dir", "extra.txt")
	c := fetch.New(fetch.WithHTTPClient(srv.Client()), fetch.WithUserAgent("test-agent"))
	require.NoError(t, c.Download(context.Background(), srv.URL+"/extra.txt", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "extra content\n", string(got))
}

func TestClient_Download_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "extra.txt")
	err := fetch.New(fetch.WithHTTPClient(srv.Client())).Download(context.Background(), srv.URL+"/x?token=secret", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.NotContains(t, err.Error(), "secret")
	assert.NoFileExists(t, dest)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClient_Download_RejectsScheme(t *testing.T) {
	err := fetch.New().Download(context.Background(), "file:///etc/passwd", filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme")
}
