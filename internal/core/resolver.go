package core

import (
	"context"
	"fmt"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

// DependencyResolver expands apps into install plans using the manifests of
// a repository snapshot.
type DependencyResolver struct {
	snapshot RepositorySnapshot
	loader   ports.ManifestLoaderPort
}

func NewDependencyResolver(snapshot RepositorySnapshot, loader ports.ManifestLoaderPort) DependencyResolver {
	return DependencyResolver{snapshot: snapshot, loader: loader}
}

type resolveFrame struct {
	entry types.PlanEntry
	deps  []types.BucketApp
	next  int
}

func (r DependencyResolver) Resolve(ctx context.Context, root types.BucketAppName) ([]types.PlanEntry, error) {
	return r.ResolveAll(ctx, []types.BucketAppName{root})
}

// ResolveAll returns every root and its transitive dependencies exactly
// once, each dependency ahead of the apps that need it.
func (r DependencyResolver) ResolveAll(ctx context.Context, roots []types.BucketAppName) ([]types.PlanEntry, error) {
	var plan []types.PlanEntry
	done := map[string]struct{}{}
	for _, root := range roots {
		app, err := r.lookup(ctx, root)
		if err != nil {
			return nil, err
		}
		if _, ok := done[app.Key()]; ok {
			continue
		}
		entries, err := r.walk(ctx, app, done)
		if err != nil {
			return nil, err
		}
		plan = append(plan, entries...)
	}
	log.Ctx(ctx).Debug().Int("roots", len(roots)).Int("entries", len(plan)).Msg("resolved install plan")
	return plan, nil
}

// walk is an iterative post-order traversal. onPath holds the keys of the
// frames currently on the stack and detects cycles.
func (r DependencyResolver) walk(ctx context.Context, root types.BucketApp, done map[string]struct{}) ([]types.PlanEntry, error) {
	var plan []types.PlanEntry
	onPath := map[string]struct{}{}

	frame, err := r.frame(ctx, root)
	if err != nil {
		return nil, err
	}
	stack := []*resolveFrame{frame}
	onPath[root.Key()] = struct{}{}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.deps) {
			dep := top.deps[top.next]
			top.next++
			key := dep.Key()
			if _, ok := done[key]; ok {
				continue
			}
			if _, ok := onPath[key]; ok {
				return nil, cycleError(stack, key)
			}
			child, err := r.frame(ctx, dep)
			if err != nil {
				return nil, err
			}
			stack = append(stack, child)
			onPath[key] = struct{}{}
			continue
		}
		stack = stack[:len(stack)-1]
		key := top.entry.App.Key()
		delete(onPath, key)
		done[key] = struct{}{}
		plan = append(plan, top.entry)
	}
	return plan, nil
}

func (r DependencyResolver) frame(ctx context.Context, app types.BucketApp) (*resolveFrame, error) {
	assert.NotEmpty(ctx, app.MetadataPath, "bucket app metadata path must be set")
	manifest, err := r.loader.Load(app.MetadataPath)
	if err != nil {
		return nil, err
	}
	frame := &resolveFrame{entry: types.PlanEntry{App: app, Manifest: manifest}}
	seen := map[string]struct{}{}
	for _, ref := range manifest.Depends {
		dep, err := r.lookup(ctx, ref)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("dependency not found: %s (required by %s)", ref, app.Key())).
				WithCause(err)
		}
		if _, ok := seen[dep.Key()]; ok {
			continue
		}
		seen[dep.Key()] = struct{}{}
		frame.deps = append(frame.deps, dep)
		frame.entry.Dependencies = append(frame.entry.Dependencies, dep.Key())
	}
	return frame, nil
}

func (r DependencyResolver) lookup(ctx context.Context, ref types.BucketAppName) (types.BucketApp, error) {
	app, err := r.snapshot.Lookup(ref)
	if err != nil {
		return types.BucketApp{}, err
	}
	if !ref.Qualified() {
		if candidates := r.snapshot.Candidates(ref.Name); len(candidates) > 1 {
			keys := make([]string, 0, len(candidates))
			for _, candidate := range candidates {
				keys = append(keys, candidate.Key())
			}
			log.Ctx(ctx).Warn().
				Str("app", ref.Name).
				Strs("candidates", keys).
				Str("selected", app.Key()).
				Msg("app found in several buckets")
		}
	}
	return app, nil
}

func cycleError(stack []*resolveFrame, key string) error {
	start := 0
	for i, frame := range stack {
		if frame.entry.App.Key() == key {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, frame := range stack[start:] {
		path = append(path, frame.entry.App.Key())
	}
	path = append(path, key)
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("circular dependency: %s", strings.Join(path, " -> ")))
}
