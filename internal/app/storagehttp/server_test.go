package storagehttp

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sir_venger/video_registry/internal/blobstore"
	"github.com/sir_venger/video_registry/pkg/storageproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNode(t *testing.T) (*httptest.Server, *blobstore.FSStore) {
	t.Helper()
	store, err := blobstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	s := httptest.NewServer(New(store, nil))
	t.Cleanup(s.Close)
	return s, store
}

func put(t *testing.T, url string, body []byte, sha string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	require.NoError(t, err)
	if sha != "" {
		req.Header.Set(storageproto.HeaderChecksum, sha)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestStorageNode_PutGetHead(t *testing.T) {
	s, _ := newTestNode(t)

	payload := bytes.Repeat([]byte("video"), 4096)
	sum := sha256.Sum256(payload)
	sha := hex.EncodeToString(sum[:])

	resp := put(t, s.URL+"/blobs/5", payload, sha)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, sha, resp.Header.Get(storageproto.HeaderChecksum))

	resp, err := http.Get(s.URL + "/blobs/5")
	require.NoError(t, err)
	got, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, payload, got)

	resp, err = http.Head(s.URL + "/blobs/5")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sha, resp.Header.Get(storageproto.HeaderChecksum))
	assert.Equal(t, "20480", resp.Header.Get(storageproto.HeaderBlobSize))
}

func TestStorageNode_ChecksumMismatchKeepsPrevious(t *testing.T) {
	s, _ := newTestNode(t)

	require.Equal(t, http.StatusCreated, put(t, s.URL+"/blobs/1", []byte("good"), "").StatusCode)
	assert.Equal(t, http.StatusConflict, put(t, s.URL+"/blobs/1", []byte("evil"), "deadbeef").StatusCode)

	resp, err := http.Get(s.URL + "/blobs/1")
	require.NoError(t, err)
	got, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "good", string(got))
}

func TestStorageNode_SizeMismatch(t *testing.T) {
	store, err := blobstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	h := New(store, nil)

	req := httptest.NewRequest(http.MethodPut, "/blobs/2", bytes.NewReader([]byte("short")))
	req.ContentLength = 100
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, err = store.Stat(2)
	assert.Error(t, err)
}

func TestStorageNode_NotFoundAndInvalidID(t *testing.T) {
	s, _ := newTestNode(t)

	for _, path := range []string{"/blobs/9", "/blobs/abc", "/blobs/-1", "/blobs/0"} {
		resp, err := http.Get(s.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}

	resp, err := http.Head(s.URL + "/blobs/9")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStorageNode_Health(t *testing.T) {
	s, _ := newTestNode(t)
	require.Equal(t, http.StatusCreated, put(t, s.URL+"/blobs/1", []byte("12345"), "").StatusCode)

	resp, err := http.Get(s.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var h storageproto.Health
	require.NoError(t, json.Unmarshal(raw, &h))
	assert.True(t, h.OK)
	assert.GreaterOrEqual(t, h.TotalBytes, int64(5))

	// тело содержит ровно поля протокола, без незаполненных
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.ElementsMatch(t, []string{"ok", "total_bytes"}, keys(fields))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestStorageNode_ManualGC(t *testing.T) {
	s, store := newTestNode(t)

	dir := filepath.Join(store.Root(), "3")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := filepath.Join(dir, "data.abandoned.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	resp, err := http.Post(s.URL+"/admin/gc", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NoFileExists(t, stale)
}

func TestStartGC_StopIsIdempotent(t *testing.T) {
	store, err := blobstore.NewFSStore(t.TempDir())
	require.NoError(t, err)

	stop := StartGC(store, time.Hour, time.Millisecond, nil)
	time.Sleep(5 * time.Millisecond)
	stop()
	stop()

	StartGC(store, 0, 0, nil)()
}
