package core

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

// RepositorySnapshot is the result of scanning every bucket once. Buckets
// keep the order the repository listed them in, which decides unqualified
// lookups.
type RepositorySnapshot struct {
	buckets []types.Bucket
	apps    map[string][]types.BucketApp
}

func NewRepositorySnapshot(ctx context.Context, repo ports.RepositoryPort) (RepositorySnapshot, error) {
	buckets, err := repo.ListBuckets(ctx)
	if err != nil {
		return RepositorySnapshot{}, err
	}
	snapshot := RepositorySnapshot{
		buckets: buckets,
		apps:    make(map[string][]types.BucketApp, len(buckets)),
	}
	total := 0
	for _, bucket := range buckets {
		apps, err := repo.ListApps(ctx, bucket.Name)
		if err != nil {
			return RepositorySnapshot{}, err
		}
		snapshot.apps[bucket.Name] = apps
		total += len(apps)
	}
	log.Ctx(ctx).Debug().Int("buckets", len(buckets)).Int("apps", total).Msg("scanned buckets")
	return snapshot, nil
}

func (s RepositorySnapshot) Buckets() []types.Bucket {
	return append([]types.Bucket(nil), s.buckets...)
}

func (s RepositorySnapshot) HasBucket(name string) bool {
	_, ok := s.apps[name]
	return ok
}

func (s RepositorySnapshot) Apps(bucket string) []types.BucketApp {
	return append([]types.BucketApp(nil), s.apps[bucket]...)
}

// AllApps lists every app of every bucket in bucket order.
func (s RepositorySnapshot) AllApps() []types.BucketApp {
	var out []types.BucketApp
	for _, bucket := range s.buckets {
		out = append(out, s.apps[bucket.Name]...)
	}
	return out
}

// Candidates returns every bucket entry named name, in bucket order.
func (s RepositorySnapshot) Candidates(name string) []types.BucketApp {
	var out []types.BucketApp
	for _, bucket := range s.buckets {
		for _, app := range s.apps[bucket.Name] {
			if app.Name == name {
				out = append(out, app)
				break
			}
		}
	}
	return out
}

// Lookup resolves a reference. Qualified names must match their bucket;
// unqualified names take the first match in bucket order.
func (s RepositorySnapshot) Lookup(name types.BucketAppName) (types.BucketApp, error) {
	if name.Qualified() {
		apps, ok := s.apps[name.Bucket]
		if !ok {
			return types.BucketApp{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("bucket not found: %s", name.Bucket))
		}
		for _, app := range apps {
			if app.Name == name.Name {
				return app, nil
			}
		}
		return types.BucketApp{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("app not found: %s", name))
	}
	candidates := s.Candidates(name.Name)
	if len(candidates) == 0 {
		return types.BucketApp{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("app not found: %s", name))
	}
	return candidates[0], nil
}
