package adapters

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoop-go/internal/types"
)

type recordingProgress struct {
	mu       sync.Mutex
	started  map[string]int64
	advanced map[string]int64
	finished map[string]error
}

func newRecordingProgress() *recordingProgress {
	return &recordingProgress{
		started:  map[string]int64{},
		advanced: map[string]int64{},
		finished: map[string]error{},
	}
}

func (p *recordingProgress) Start(request types.FetchRequest, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started[request.Label] = total
}

func (p *recordingProgress) Advance(request types.FetchRequest, written int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanced[request.Label] = written
}

func (p *recordingProgress) Finish(request types.FetchRequest, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished[request.Label] = err
}

func fetchRequest(dir string, server *httptest.Server, name string) types.FetchRequest {
	return types.FetchRequest{
		AppKey:    "main/" + name,
		Label:     name + " 1.0",
		URL:       server.URL + "/" + name,
		FileName:  name,
		CachePath: filepath.Join(dir, name+"-1.0"),
	}
}

func TestDownloadCacheFetchesIntoCache(t *testing.T) {
	payload := []byte("artifact-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	progress := newRecordingProgress()
	adapter := NewDownloadCacheAdapter(2, progress)
	request := fetchRequest(dir, server, "tool")

	results := adapter.FetchAll(t.Context(), []types.FetchRequest{request})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, int64(len(payload)), results[0].Written)
	assert.Equal(t, int64(len(payload)), results[0].Total)
	assert.False(t, results[0].Reused)

	data, err := os.ReadFile(request.CachePath)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	assert.Equal(t, int64(len(payload)), progress.started["tool 1.0"])
	assert.Equal(t, int64(len(payload)), progress.advanced["tool 1.0"])
	assert.Contains(t, progress.finished, "tool 1.0")
	assert.NoError(t, progress.finished["tool 1.0"])
}

func TestDownloadCacheUnknownLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("part one "))
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("part two"))
	}))
	defer server.Close()

	progress := newRecordingProgress()
	adapter := NewDownloadCacheAdapter(1, progress)
	request := fetchRequest(t.TempDir(), server, "stream")

	results := adapter.FetchAll(t.Context(), []types.FetchRequest{request})
	require.NoError(t, results[0].Err)
	assert.Equal(t, int64(-1), results[0].Total)
	assert.Equal(t, int64(len("part one part two")), results[0].Written)
	assert.Equal(t, int64(-1), progress.started["stream 1.0"])
}

func TestDownloadCacheIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()

	dir := t.TempDir()
	adapter := NewDownloadCacheAdapter(4, nil)
	requests := []types.FetchRequest{
		fetchRequest(dir, server, "first"),
		fetchRequest(dir, server, "missing"),
		fetchRequest(dir, server, "third"),
	}
	results := adapter.FetchAll(t.Context(), requests)
	require.Len(t, results, 3)

	got := make([]string, 0, len(results))
	for _, result := range results {
		got = append(got, fmt.Sprintf("%s=%t", result.Request.Label, result.OK()))
	}
	if diff := cmp.Diff([]string{"first 1.0=true", "missing 1.0=false", "third 1.0=true"}, got); diff != "" {
		t.Fatalf("unexpected results (-want +got):\n%s", diff)
	}
	assert.NoFileExists(t, requests[1].CachePath)
	assert.FileExists(t, requests[0].CachePath)
	assert.FileExists(t, requests[2].CachePath)
}

func TestDownloadCacheHashVerification(t *testing.T) {
	payload := []byte("signed payload")
	sum := sha256.Sum256(payload)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	adapter := NewDownloadCacheAdapter(2, nil)

	good := fetchRequest(dir, server, "good")
	good.ExpectedHash = hex.EncodeToString(sum[:])
	bad := fetchRequest(dir, server, "bad")
	bad.ExpectedHash = "sha256:" + hex.EncodeToString(make([]byte, sha256.Size))

	results := adapter.FetchAll(t.Context(), []types.FetchRequest{good, bad})
	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.Contains(t, errorMsg(results[1].Err), "hash mismatch")
	assert.NoFileExists(t, bad.CachePath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "partial downloads must not be left behind")
}

func TestDownloadCacheRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	adapter := NewDownloadCacheAdapter(1, nil).WithRetry(time.Minute, 3, time.Millisecond)
	results := adapter.FetchAll(t.Context(), []types.FetchRequest{fetchRequest(t.TempDir(), server, "flaky")})
	require.NoError(t, results[0].Err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDownloadCacheReusesCachedFile(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer server.Close()

	dir := t.TempDir()
	request := fetchRequest(dir, server, "cached")
	require.NoError(t, os.WriteFile(request.CachePath, []byte("cached"), 0644))

	results := NewDownloadCacheAdapter(1, nil).FetchAll(t.Context(), []types.FetchRequest{request})
	require.NoError(t, results[0].Err)
	assert.True(t, results[0].Reused)
	assert.Equal(t, int32(0), hits.Load())

	sum := sha256.Sum256([]byte("fresh"))
	request.ExpectedHash = hex.EncodeToString(sum[:])
	results = NewDownloadCacheAdapter(1, nil).FetchAll(t.Context(), []types.FetchRequest{request})
	require.NoError(t, results[0].Err)
	assert.False(t, results[0].Reused)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDownloadCacheBoundsConcurrency(t *testing.T) {
	var inFlight atomic.Int32
	var peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			seen := peak.Load()
			if current <= seen || peak.CompareAndSwap(seen, current) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	dir := t.TempDir()
	var requests []types.FetchRequest
	for i := 0; i < 8; i++ {
		requests = append(requests, fetchRequest(dir, server, fmt.Sprintf("app%d", i)))
	}
	results := NewDownloadCacheAdapter(2, nil).FetchAll(t.Context(), requests)
	for _, result := range results {
		require.NoError(t, result.Err)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDownloadCacheFetchesConcurrently(t *testing.T) {
	var arrived atomic.Int32
	bothArrived := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if arrived.Add(1) == 2 {
			close(bothArrived)
		}
		select {
		case <-bothArrived:
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		w.Header().Set("Content-Length", "3")
		_, _ = w.Write([]byte("abc"))
	}))
	defer server.Close()

	dir := t.TempDir()
	requests := []types.FetchRequest{fetchRequest(dir, server, "a"), fetchRequest(dir, server, "b")}
	adapter := NewDownloadCacheAdapter(4, nil).WithRetry(time.Minute, 1, time.Millisecond)
	results := adapter.FetchAll(t.Context(), requests)
	require.Len(t, results, 2)
	for _, result := range results {
		require.NoError(t, result.Err, result.Request.Label)
		assert.Equal(t, int64(3), result.Written, result.Request.Label)
		assert.Equal(t, int64(3), result.Total, result.Request.Label)
	}
}

func TestDownloadCacheStopsRetryingWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		cancel()
	}))
	defer server.Close()

	adapter := NewDownloadCacheAdapter(1, nil).WithRetry(time.Minute, 3, 5*time.Second)
	started := time.Now()
	results := adapter.FetchAll(ctx, []types.FetchRequest{fetchRequest(t.TempDir(), server, "slow")})
	require.Error(t, results[0].Err)
	assert.Less(t, time.Since(started), time.Second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDownloadCacheSendsCookies(t *testing.T) {
	var cookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie = r.Header.Get("Cookie")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	request := fetchRequest(t.TempDir(), server, "licensed")
	request.Cookies = map[string]string{"oraclelicense": "accept-securebackup-cookie", "a": "1"}
	results := NewDownloadCacheAdapter(1, nil).FetchAll(t.Context(), []types.FetchRequest{request})
	require.NoError(t, results[0].Err)
	assert.Equal(t, "a=1; oraclelicense=accept-securebackup-cookie", cookie)
}
