package pdftext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_DownloadsAndCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(dir)

	path, err := d.Fetch(context.Background(), srv.URL+"/bp-2025.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bp-2025.pdf"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(content))

	// Second fetch must hit the disk cache, not the server.
	_, err = d.Fetch(context.Background(), srv.URL+"/bp-2025.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir())
	_, err := d.Fetch(context.Background(), srv.URL+"/missing.pdf")
	assert.Error(t, err)
}
