package core

import (
	"fmt"
	"maps"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"scoop-go/internal/types"
)

// BuildFetchRequests expands every plan entry into one request per URL of its
// architecture view. Hashes are attached only when verify is set and the
// manifest is not a nightly build.
func BuildFetchRequests(plan []types.PlanEntry, arch types.Architecture, layout types.Layout, now time.Time, verify bool) []types.FetchRequest {
	var requests []types.FetchRequest
	for _, entry := range plan {
		view := ArchitectureView(entry.Manifest, arch)
		version := CacheVersion(entry.Manifest.Version, now)
		for i, download := range view.URL {
			label := fmt.Sprintf("%s %s", entry.App.Name, entry.Manifest.Version)
			if len(view.URL) > 1 {
				label = fmt.Sprintf("%s (%d)", label, i+1)
			}
			request := types.FetchRequest{
				AppKey:    entry.App.Key(),
				Label:     label,
				URL:       download.URL,
				FileName:  artifactFileName(download),
				CachePath: filepath.Join(layout.CacheDir(), CacheFileName(entry.App.Name, version, download.URL)),
				Cookies:   maps.Clone(entry.Manifest.Cookie),
			}
			if verify && !IsNightly(entry.Manifest.Version) && i < len(view.Hash) {
				request.ExpectedHash = view.Hash[i]
			}
			requests = append(requests, request)
		}
	}
	return requests
}

// GroupFetchResults indexes results by the app key of their request.
func GroupFetchResults(results []types.FetchResult) map[string][]types.FetchResult {
	grouped := map[string][]types.FetchResult{}
	for _, result := range results {
		key := result.Request.AppKey
		grouped[key] = append(grouped[key], result)
	}
	return grouped
}

func artifactFileName(download types.DownloadURL) string {
	if download.FileName != "" {
		return download.FileName
	}
	parsed, err := url.Parse(download.URL)
	if err != nil || parsed.Path == "" || parsed.Path == "/" {
		return "download"
	}
	return path.Base(parsed.Path)
}
