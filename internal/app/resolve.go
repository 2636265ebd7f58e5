package app

import (
	"context"
	"strings"

	"scoop-go/internal/core"
	"scoop-go/internal/types"
)

// Resolve computes the install plan without touching the installation. When
// Output is set the plan is also written as YAML.
func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	arch := requestArchitecture(req.Architecture)
	plan, err := s.resolvePlan(ctx, req.Apps)
	if err != nil {
		return ResolveResult{}, err
	}
	file := planFile(plan, arch)
	if output := strings.TrimSpace(req.Output); output != "" {
		if err := s.PlanWriter.Write(output, file); err != nil {
			return ResolveResult{}, err
		}
	}
	return ResolveResult{Plan: plan, File: file}, nil
}

func planFile(plan []types.PlanEntry, arch types.Architecture) types.PlanFile {
	file := types.PlanFile{Architecture: arch, Entries: make([]types.PlanFileEntry, 0, len(plan))}
	for _, entry := range plan {
		view := core.ArchitectureView(entry.Manifest, arch)
		urls := make([]string, 0, len(view.URL))
		for _, url := range view.URL {
			urls = append(urls, url.String())
		}
		file.Entries = append(file.Entries, types.PlanFileEntry{
			Name:      entry.App.Name,
			Bucket:    entry.App.Bucket,
			Version:   entry.Manifest.Version,
			DependsOn: append([]string(nil), entry.Dependencies...),
			URLs:      urls,
		})
	}
	return file
}
