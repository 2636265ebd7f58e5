package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"scoop-go/internal/core"
	"scoop-go/internal/types"
)

func (s Service) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	arch := requestArchitecture(req.Architecture)
	plan, err := s.resolvePlan(ctx, req.Apps)
	if err != nil {
		return InstallResult{}, err
	}

	result := InstallResult{}
	pending := make([]types.PlanEntry, 0, len(plan))
	for _, entry := range plan {
		if s.isCurrent(entry) {
			log.Ctx(ctx).Info().Str("app", entry.App.Key()).Str("version", entry.Manifest.Version).Msg("already installed")
			result.Skipped = append(result.Skipped, entry.App.Key())
			continue
		}
		pending = append(pending, entry)
	}
	if len(pending) == 0 {
		return result, nil
	}

	requests := core.BuildFetchRequests(pending, arch, s.Layout, s.now(), !req.NoHashCheck)
	result.Fetched = s.Fetchers(req.Workers).FetchAll(ctx, requests)

	pipeline := core.NewInstallPipeline(s.Steps, s.Installed, s.Manifests)
	result.Report = pipeline.Run(ctx, pending, core.GroupFetchResults(result.Fetched), arch)
	if failed := result.Report.Failed(); len(failed) > 0 {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("%d of %d apps failed to install", len(failed), len(pending))).
			WithCause(failed[0].Err)
	}
	return result, nil
}

// resolvePlan turns app references into a dependency-first plan against a
// fresh snapshot of the buckets.
func (s Service) resolvePlan(ctx context.Context, apps []string) ([]types.PlanEntry, error) {
	refs, err := parseAppRefs(apps)
	if err != nil {
		return nil, err
	}
	snapshot, err := core.NewRepositorySnapshot(ctx, s.Repository)
	if err != nil {
		return nil, err
	}
	return core.NewDependencyResolver(snapshot, s.Manifests).ResolveAll(ctx, refs)
}

// isCurrent reports whether the planned version is already the active one.
// Nightly builds are never current since each day names a new artifact.
func (s Service) isCurrent(entry types.PlanEntry) bool {
	if core.IsNightly(entry.Manifest.Version) {
		return false
	}
	current, err := s.Installed.CurrentVersion(entry.App.Name)
	if err != nil {
		return false
	}
	return current.Version == entry.Manifest.Version
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func parseAppRefs(apps []string) ([]types.BucketAppName, error) {
	if len(apps) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one app is required")
	}
	refs := make([]types.BucketAppName, 0, len(apps))
	for _, app := range apps {
		if strings.TrimSpace(app) == "" {
			continue
		}
		ref, err := types.ParseBucketAppName(app)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid app reference %q", app)).
				WithCause(err)
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one app is required")
	}
	return refs, nil
}

func requestArchitecture(arch types.Architecture) types.Architecture {
	if arch == "" {
		return types.HostArchitecture()
	}
	return arch
}
