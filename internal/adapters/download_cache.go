package adapters

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"scoop-go/internal/core"
	"scoop-go/internal/ports"
	"scoop-go/internal/shared"
	"scoop-go/internal/types"
)

const defaultFetchWorkers = 4
const defaultHTTPTimeout = 30 * time.Minute
const defaultHTTPRetries = 3
const defaultHTTPRetryDelay = 200 * time.Millisecond
const maxHTTPRetryDelay = 2 * time.Second

type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

func normalizeHTTPConfig(timeout time.Duration, retries int, delay time.Duration) httpRetryConfig {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	if retries <= 0 {
		retries = defaultHTTPRetries
	}
	if delay <= 0 {
		delay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{
		timeout:   timeout,
		retries:   retries,
		baseDelay: delay,
	}
}

// DownloadCacheAdapter fetches artifacts into the cache directory with a
// bounded number of concurrent downloads.
type DownloadCacheAdapter struct {
	Workers   int
	UserAgent string
	Progress  ports.ProgressPort
	retry     httpRetryConfig
}

func NewDownloadCacheAdapter(workers int, progress ports.ProgressPort) DownloadCacheAdapter {
	return DownloadCacheAdapter{
		Workers:   workers,
		UserAgent: "scoop-go",
		Progress:  progress,
		retry:     normalizeHTTPConfig(0, 0, 0),
	}
}

// WithRetry returns a copy using the given retry policy. Zero values keep
// the defaults.
func (a DownloadCacheAdapter) WithRetry(timeout time.Duration, retries int, delay time.Duration) DownloadCacheAdapter {
	a.retry = normalizeHTTPConfig(timeout, retries, delay)
	return a
}

// FetchAll downloads every request and returns results in request order.
// A failed download never cancels the others.
func (a DownloadCacheAdapter) FetchAll(ctx context.Context, requests []types.FetchRequest) []types.FetchResult {
	workers := a.Workers
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	results := make([]types.FetchResult, len(requests))
	var group errgroup.Group
	group.SetLimit(workers)
	for i, request := range requests {
		i, request := i, request
		group.Go(func() error {
			results[i] = a.fetch(ctx, request)
			return nil
		})
	}
	_ = group.Wait()
	failed := 0
	for _, result := range results {
		if !result.OK() {
			failed++
		}
	}
	log.Ctx(ctx).Debug().Int("requests", len(requests)).Int("failed", failed).Int("workers", workers).Msg("fetch finished")
	return results
}

func (a DownloadCacheAdapter) fetch(ctx context.Context, request types.FetchRequest) types.FetchResult {
	progress := a.progress()
	result := types.FetchResult{Request: request, Path: request.CachePath, Total: -1}
	var expected *core.ExpectedHash
	if request.ExpectedHash != "" {
		parsed, err := core.ParseExpectedHash(request.ExpectedHash)
		if err != nil {
			result.Err = err
			progress.Finish(request, err)
			return result
		}
		expected = &parsed
	}
	if size, ok := a.reuse(ctx, request, expected); ok {
		result.Written = size
		result.Total = size
		result.Reused = true
		progress.Finish(request, nil)
		return result
	}
	written, total, err := a.download(ctx, request, expected)
	result.Written = written
	result.Total = total
	result.Err = err
	progress.Finish(request, err)
	return result
}

// reuse reports whether a cached file can stand in for a download. Files
// that fail hash verification are removed.
func (a DownloadCacheAdapter) reuse(ctx context.Context, request types.FetchRequest, expected *core.ExpectedHash) (int64, bool) {
	info, err := os.Stat(request.CachePath)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return 0, false
	}
	if expected != nil {
		if err := verifyFile(request.CachePath, *expected); err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("path", request.CachePath).Msg("discarding cached file")
			_ = os.Remove(request.CachePath)
			return 0, false
		}
	}
	return info.Size(), true
}

func (a DownloadCacheAdapter) download(ctx context.Context, request types.FetchRequest, expected *core.ExpectedHash) (int64, int64, error) {
	resp, err := a.doRequest(ctx, request)
	if err != nil {
		return 0, -1, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, -1, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("download failed: %s", request.Label)).
			WithCause(shared.HTTPStatusError(resp.StatusCode, request.URL))
	}
	total := resp.ContentLength
	if total < 0 {
		total = -1
	}
	progress := a.progress()
	progress.Start(request, total)

	dir := filepath.Dir(request.CachePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, total, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create cache directory").
			WithCause(err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(request.CachePath)+".part-*")
	if err != nil {
		return 0, total, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create cache file").
			WithCause(err)
	}
	tmpPath := tmp.Name()
	counter := &progressWriter{request: request, progress: progress}
	writers := []io.Writer{tmp, counter}
	var hasher hash.Hash
	if expected != nil {
		hasher = expected.New()
		writers = append(writers, hasher)
	}
	written, copyErr := io.Copy(io.MultiWriter(writers...), resp.Body)
	closeErr := tmp.Close()
	fail := func(err error) (int64, int64, error) {
		_ = os.Remove(tmpPath)
		return written, total, err
	}
	if copyErr != nil {
		return fail(errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("download interrupted: %s", request.Label)).
			WithCause(copyErr))
	}
	if closeErr != nil {
		return fail(errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write cache file").
			WithCause(closeErr))
	}
	if total >= 0 && written != total {
		return fail(errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("incomplete download: %s: got %d of %d bytes", request.Label, written, total)))
	}
	if hasher != nil {
		if err := expected.Verify(hasher.Sum(nil)); err != nil {
			return fail(err)
		}
	}
	if err := os.Rename(tmpPath, request.CachePath); err != nil {
		return fail(errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to move download into cache").
			WithCause(err))
	}
	return written, total, nil
}

func (a DownloadCacheAdapter) doRequest(ctx context.Context, request types.FetchRequest) (*http.Response, error) {
	cfg := a.retry
	if cfg.retries == 0 {
		cfg = normalizeHTTPConfig(0, 0, 0)
	}
	client := &http.Client{Timeout: cfg.timeout}
	var lastErr error
	for attempt := 0; attempt < cfg.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request canceled").
				WithCause(ctx.Err())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, request.URL, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid download url %s", request.URL)).
				WithCause(err)
		}
		if a.UserAgent != "" {
			req.Header.Set("User-Agent", a.UserAgent)
		}
		if cookie := cookieHeader(request.Cookies); cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("request canceled").
					WithCause(ctx.Err())
			}
			lastErr = err
			if attempt < cfg.retries-1 {
				if err := waitRetry(ctx, httpRetryDelay(attempt, cfg)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request failed").
				WithCause(err)
		}
		if (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) && attempt < cfg.retries-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = shared.HTTPStatusError(resp.StatusCode, request.URL)
			if err := waitRetry(ctx, httpRetryDelay(attempt, cfg)); err != nil {
				return nil, err
			}
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request failed").
		WithCause(lastErr)
}

func (a DownloadCacheAdapter) progress() ports.ProgressPort {
	if a.Progress == nil {
		return noopProgress{}
	}
	return a.Progress
}

// waitRetry sleeps for delay unless ctx is done first.
func waitRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("request canceled").
			WithCause(ctx.Err())
	case <-timer.C:
		return nil
	}
}

func httpRetryDelay(attempt int, cfg httpRetryConfig) time.Duration {
	delay := cfg.baseDelay * time.Duration(1<<attempt)
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

func cookieHeader(cookies map[string]string) string {
	if len(cookies) == 0 {
		return ""
	}
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+cookies[name])
	}
	return strings.Join(pairs, "; ")
}

func verifyFile(path string, expected core.ExpectedHash) error {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("cache file not found: %s", path)).
			WithCause(err)
	}
	if err != nil {
		return err
	}
	defer file.Close()
	hasher := expected.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return err
	}
	return expected.Verify(hasher.Sum(nil))
}

type progressWriter struct {
	request  types.FetchRequest
	progress ports.ProgressPort
	written  int64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	w.progress.Advance(w.request, w.written)
	return len(p), nil
}

type noopProgress struct{}

func (noopProgress) Start(_ types.FetchRequest, _ int64) {}

func (noopProgress) Advance(_ types.FetchRequest, _ int64) {}

func (noopProgress) Finish(_ types.FetchRequest, _ error) {}

var _ ports.FetcherPort = DownloadCacheAdapter{}
