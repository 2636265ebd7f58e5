package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoop-go/internal/types"
)

type testRepository struct {
	buckets []string
	apps    map[string][]string
}

func (r testRepository) ListBuckets(_ context.Context) ([]types.Bucket, error) {
	out := make([]types.Bucket, 0, len(r.buckets))
	for _, name := range r.buckets {
		out = append(out, types.Bucket{Name: name})
	}
	return out, nil
}

func (r testRepository) ListApps(_ context.Context, bucket string) ([]types.BucketApp, error) {
	var out []types.BucketApp
	for _, name := range r.apps[bucket] {
		out = append(out, types.BucketApp{Name: name, Bucket: bucket, MetadataPath: bucket + "/" + name + ".json"})
	}
	return out, nil
}

type testManifests map[string]types.Manifest

func (m testManifests) Load(path string) (types.Manifest, error) {
	manifest, ok := m[path]
	if !ok {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("manifest not found: %s", path))
	}
	return manifest, nil
}

func (m testManifests) Read(path string) ([]byte, error) {
	if _, ok := m[path]; !ok {
		return nil, errors.New("missing")
	}
	return []byte(`{}`), nil
}

func manifestWithDeps(version string, deps ...string) types.Manifest {
	manifest := types.Manifest{Version: version}
	for _, dep := range deps {
		name, err := types.ParseBucketAppName(dep)
		if err != nil {
			panic(err)
		}
		manifest.Depends = append(manifest.Depends, name)
	}
	return manifest
}

func newTestResolver(t *testing.T, repo testRepository, manifests testManifests) DependencyResolver {
	t.Helper()
	snapshot, err := NewRepositorySnapshot(t.Context(), repo)
	require.NoError(t, err)
	return NewDependencyResolver(snapshot, manifests)
}

func planKeys(plan []types.PlanEntry) []string {
	keys := make([]string, 0, len(plan))
	for _, entry := range plan {
		keys = append(keys, entry.App.Key())
	}
	return keys
}

func errorMsg(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) {
		return builder.Msg
	}
	return err.Error()
}

func requireDependencyFirst(t *testing.T, plan []types.PlanEntry) {
	t.Helper()
	position := map[string]int{}
	for i, entry := range plan {
		_, dup := position[entry.App.Key()]
		require.False(t, dup, "duplicate plan entry %s", entry.App.Key())
		position[entry.App.Key()] = i
	}
	for i, entry := range plan {
		for _, dep := range entry.Dependencies {
			pos, ok := position[dep]
			require.True(t, ok, "dependency %s of %s missing from plan", dep, entry.App.Key())
			require.Less(t, pos, i, "dependency %s must precede %s", dep, entry.App.Key())
		}
	}
}

func TestResolverChain(t *testing.T) {
	repo := testRepository{
		buckets: []string{"main"},
		apps:    map[string][]string{"main": {"a", "b", "c"}},
	}
	manifests := testManifests{
		"main/a.json": manifestWithDeps("1.0", "b"),
		"main/b.json": manifestWithDeps("1.0", "main/c"),
		"main/c.json": manifestWithDeps("1.0"),
	}
	resolver := newTestResolver(t, repo, manifests)

	plan, err := resolver.Resolve(t.Context(), types.BucketAppName{Name: "a"})
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"main/c", "main/b", "main/a"}, planKeys(plan)); diff != "" {
		t.Fatalf("unexpected plan (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"main/b"}, plan[2].Dependencies); diff != "" {
		t.Fatalf("unexpected dependencies (-want +got):\n%s", diff)
	}
	requireDependencyFirst(t, plan)
}

func TestResolverDiamondAcrossBuckets(t *testing.T) {
	repo := testRepository{
		buckets: []string{"extras", "main"},
		apps: map[string][]string{
			"main":   {"app", "left", "shared"},
			"extras": {"right"},
		},
	}
	manifests := testManifests{
		"main/app.json":     manifestWithDeps("1.0", "main/left", "extras/right"),
		"main/left.json":    manifestWithDeps("1.0", "main/shared"),
		"extras/right.json": manifestWithDeps("1.0", "main/shared"),
		"main/shared.json":  manifestWithDeps("1.0"),
	}
	resolver := newTestResolver(t, repo, manifests)

	plan, err := resolver.Resolve(t.Context(), types.BucketAppName{Bucket: "main", Name: "app"})
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"main/shared", "main/left", "extras/right", "main/app"}, planKeys(plan)); diff != "" {
		t.Fatalf("unexpected plan (-want +got):\n%s", diff)
	}
	requireDependencyFirst(t, plan)
}

func TestResolverMissingDependency(t *testing.T) {
	repo := testRepository{
		buckets: []string{"main"},
		apps:    map[string][]string{"main": {"a"}},
	}
	manifests := testManifests{
		"main/a.json": manifestWithDeps("1.0", "extras/ghost"),
	}
	resolver := newTestResolver(t, repo, manifests)

	_, err := resolver.Resolve(t.Context(), types.BucketAppName{Name: "a"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	assert.Equal(t, "dependency not found: extras/ghost (required by main/a)", errorMsg(err))
}

func TestResolverMissingRoot(t *testing.T) {
	resolver := newTestResolver(t, testRepository{buckets: []string{"main"}}, testManifests{})
	_, err := resolver.Resolve(t.Context(), types.BucketAppName{Name: "nothing"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestResolverCycles(t *testing.T) {
	tests := []struct {
		name      string
		manifests testManifests
		want      string
	}{
		{
			name: "two app cycle",
			manifests: testManifests{
				"main/a.json": manifestWithDeps("1.0", "b"),
				"main/b.json": manifestWithDeps("1.0", "a"),
			},
			want: "circular dependency: main/a -> main/b -> main/a",
		},
		{
			name: "self dependency",
			manifests: testManifests{
				"main/a.json": manifestWithDeps("1.0", "a"),
			},
			want: "circular dependency: main/a -> main/a",
		},
		{
			name: "cycle below root",
			manifests: testManifests{
				"main/a.json": manifestWithDeps("1.0", "b"),
				"main/b.json": manifestWithDeps("1.0", "c"),
				"main/c.json": manifestWithDeps("1.0", "b"),
			},
			want: "circular dependency: main/b -> main/c -> main/b",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo := testRepository{
				buckets: []string{"main"},
				apps:    map[string][]string{"main": {"a", "b", "c"}},
			}
			resolver := newTestResolver(t, repo, tt.manifests)
			_, err := resolver.Resolve(t.Context(), types.BucketAppName{Name: "a"})
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
			assert.Equal(t, tt.want, errorMsg(err))
		})
	}
}

func TestResolverResolveAllDeduplicates(t *testing.T) {
	repo := testRepository{
		buckets: []string{"main"},
		apps:    map[string][]string{"main": {"a", "b", "lib"}},
	}
	manifests := testManifests{
		"main/a.json":   manifestWithDeps("1.0", "lib"),
		"main/b.json":   manifestWithDeps("1.0", "lib"),
		"main/lib.json": manifestWithDeps("1.0"),
	}
	resolver := newTestResolver(t, repo, manifests)

	plan, err := resolver.ResolveAll(t.Context(), []types.BucketAppName{{Name: "a"}, {Name: "b"}, {Name: "lib"}})
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"main/lib", "main/a", "main/b"}, planKeys(plan)); diff != "" {
		t.Fatalf("unexpected plan (-want +got):\n%s", diff)
	}
	requireDependencyFirst(t, plan)
}

func TestSnapshotLookup(t *testing.T) {
	repo := testRepository{
		buckets: []string{"extras", "main"},
		apps: map[string][]string{
			"extras": {"git"},
			"main":   {"git", "curl"},
		},
	}
	snapshot, err := NewRepositorySnapshot(t.Context(), repo)
	require.NoError(t, err)

	app, err := snapshot.Lookup(types.BucketAppName{Name: "git"})
	require.NoError(t, err)
	assert.Equal(t, "extras/git", app.Key())

	app, err = snapshot.Lookup(types.BucketAppName{Bucket: "main", Name: "git"})
	require.NoError(t, err)
	assert.Equal(t, "main/git", app.Key())

	_, err = snapshot.Lookup(types.BucketAppName{Bucket: "nonexistent", Name: "git"})
	require.Error(t, err)
	assert.Equal(t, "bucket not found: nonexistent", errorMsg(err))

	_, err = snapshot.Lookup(types.BucketAppName{Bucket: "extras", Name: "curl"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	assert.Len(t, snapshot.Candidates("git"), 2)
	assert.Len(t, snapshot.AllApps(), 3)
	assert.True(t, snapshot.HasBucket("main"))
	assert.False(t, snapshot.HasBucket("versions"))
}
