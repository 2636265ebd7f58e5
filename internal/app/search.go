package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	"scoop-go/internal/core"
	"scoop-go/internal/types"
)

const (
	searchWorkers  = 10
	unknownVersion = "unknown"
)

// Search matches app names across all buckets. Plain search is a
// case-insensitive substring match in bucket order; fuzzy search ranks by
// match score. Versions come from the manifests, "unknown" when unreadable.
func (s Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	snapshot, err := core.NewRepositorySnapshot(ctx, s.Repository)
	if err != nil {
		return SearchResult{}, err
	}
	apps := matchApps(snapshot.AllApps(), strings.TrimSpace(req.Query), req.Fuzzy)

	matches := make([]SearchMatch, len(apps))
	var group errgroup.Group
	group.SetLimit(searchWorkers)
	for i, app := range apps {
		i, app := i, app
		group.Go(func() error {
			version := unknownVersion
			manifest, err := s.Manifests.Load(app.MetadataPath)
			if err != nil {
				log.Ctx(ctx).Debug().Err(err).Str("app", app.Key()).Msg("manifest unreadable")
			} else {
				version = manifest.Version
			}
			matches[i] = SearchMatch{App: app, Version: version}
			return nil
		})
	}
	_ = group.Wait()
	return SearchResult{Matches: matches}, nil
}

func matchApps(apps []types.BucketApp, query string, useFuzzy bool) []types.BucketApp {
	if query == "" {
		return apps
	}
	if useFuzzy {
		names := make([]string, len(apps))
		for i, app := range apps {
			names[i] = app.Name
		}
		found := fuzzy.Find(query, names)
		out := make([]types.BucketApp, 0, len(found))
		for _, match := range found {
			out = append(out, apps[match.Index])
		}
		return out
	}
	needle := strings.ToLower(query)
	var out []types.BucketApp
	for _, app := range apps {
		if strings.Contains(strings.ToLower(app.Name), needle) {
			out = append(out, app)
		}
	}
	return out
}
