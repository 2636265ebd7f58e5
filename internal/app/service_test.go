package app

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"

	"scoop-go/internal/adapters"
	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

var testNow = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, types.Layout) {
	t.Helper()
	layout := types.NewLayout(t.TempDir())
	service := NewService(layout)
	service.Clock = func() time.Time { return testNow }
	service.Fetchers = func(workers int) ports.FetcherPort {
		return adapters.NewDownloadCacheAdapter(workers, nil).WithRetry(time.Minute, 1, time.Millisecond)
	}
	return service, layout
}

func writeManifest(t *testing.T, layout types.Layout, bucket string, name string, content string) {
	t.Helper()
	path := filepath.Join(layout.BucketDir(bucket), "bucket", name+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// artifactServer serves fixed bodies by path and counts requests.
type artifactServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies map[string][]byte
	hits   map[string]int
}

func newArtifactServer(t *testing.T) *artifactServer {
	t.Helper()
	server := &artifactServer{bodies: map[string][]byte{}, hits: map[string]int{}}
	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.mu.Lock()
		body, ok := server.bodies[r.URL.Path]
		server.hits[r.URL.Path]++
		server.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func (s *artifactServer) serve(path string, body []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[path] = body
	return s.URL + path
}

func (s *artifactServer) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func errorMsg(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) {
		return builder.Msg
	}
	return err.Error()
}
