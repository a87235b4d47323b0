package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"village/internal/config"
)

func TestLocalStoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/files/")
	require.NoError(t, err)

	ctx := context.Background()
	key := "portfolio/7/drawing.png"

	require.NoError(t, store.Put(ctx, key, strings.NewReader("png-bytes"), 9, "image/png"))

	data, err := os.ReadFile(filepath.Join(dir, "portfolio", "7", "drawing.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	url, err := store.URL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/files/portfolio/7/drawing.png", url)

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "portfolio", "7", "drawing.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, key), "deleting a missing file is not an error")
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../secret", "a/../../b"} {
		err := store.Put(context.Background(), key, strings.NewReader("x"), 1, "text/plain")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestNewKey(t *testing.T) {
	a := NewKey(3, "application/pdf")
	b := NewKey(3, "application/pdf")

	assert.True(t, strings.HasPrefix(a, "portfolio/3/"))
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	assert.NotEqual(t, a, b)

	assert.True(t, strings.HasSuffix(NewKey(3, "image/png"), ".png"))
	assert.True(t, strings.HasSuffix(NewKey(3, "text/html"), ".bin"))
}

func TestContentTypeRoundTrip(t *testing.T) {
	for ct := range extensions {
		assert.Equal(t, ct, ContentType(NewKey(1, ct)), ct)
	}
	assert.Equal(t, "application/octet-stream", ContentType("portfolio/1/page.html"))
	assert.Equal(t, "application/octet-stream", ContentType("portfolio/1/noext"))

	_, ok := Extension("text/html")
	assert.False(t, ok)
}

func TestLocalStoreHandler(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)
	files := http.StripPrefix("/files", store.Handler())
	ctx := context.Background()

	// HTML bytes declared as an image are still served as an image
	imageKey := NewKey(1, "image/png")
	require.NoError(t, store.Put(ctx, imageKey, strings.NewReader("<html><script>alert(1)</script></html>"), 38, "image/png"))

	rec := httptest.NewRecorder()
	files.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+imageKey, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))

	textKey := NewKey(1, "text/plain")
	require.NoError(t, store.Put(ctx, textKey, strings.NewReader("notes"), 5, "text/plain"))
	rec = httptest.NewRecorder()
	files.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+textKey, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment", rec.Header().Get("Content-Disposition"))

	// A file placed on disk with a dangerous extension is never served as HTML
	require.NoError(t, store.Put(ctx, "portfolio/1/page.html", strings.NewReader("<h1>hi</h1>"), 11, "text/html"))
	rec = httptest.NewRecorder()
	files.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/portfolio/1/page.html", nil))
	assert.NotContains(t, rec.Header().Get("Content-Type"), "html")

	for _, dir := range []string{"/files/portfolio/1/", "/files/portfolio/1"} {
		rec = httptest.NewRecorder()
		files.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, dir, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, dir)
		assert.NotContains(t, rec.Body.String(), imageKey, "directories are not listed")
	}
}

func TestNewFromConfig(t *testing.T) {
	store, err := NewFromConfig(context.Background(), &config.Config{StorageDriver: "local", StoragePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = NewFromConfig(context.Background(), &config.Config{StorageDriver: "s3"})
	assert.Error(t, err, "bucket is required")

	_, err = NewFromConfig(context.Background(), &config.Config{StorageDriver: "ftp"})
	assert.Error(t, err)
}
