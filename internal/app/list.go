package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"scoop-go/internal/types"
)

// List summarizes installed apps. Apps without a current pointer are still
// listed, with an empty Current.
func (s Service) List(ctx context.Context) (ListResult, error) {
	apps, err := s.Installed.ListApps()
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Apps: make([]types.InstalledAppSummary, 0, len(apps))}
	for _, app := range apps {
		summary := types.InstalledAppSummary{Name: app.Name}
		versions, err := s.Installed.Versions(app.Name)
		if err != nil {
			return ListResult{}, err
		}
		for _, version := range versions {
			summary.Versions = append(summary.Versions, version.Version)
		}
		current, err := s.Installed.CurrentVersion(app.Name)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("app", app.Name).Msg("no current version")
			result.Apps = append(result.Apps, summary)
			continue
		}
		summary.Current = current.Version
		if info, err := s.Installed.ReadInstallInfo(app.Name, current.Version); err == nil {
			summary.Bucket = info.Bucket
			summary.Architecture = info.Architecture
		} else {
			log.Ctx(ctx).Debug().Err(err).Str("app", app.Name).Msg("install info unavailable")
		}
		result.Apps = append(result.Apps, summary)
	}
	return result, nil
}
