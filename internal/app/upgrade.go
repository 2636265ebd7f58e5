package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"scoop-go/internal/core"
	"scoop-go/internal/types"
)

// Upgrade reinstalls apps whose recorded bucket carries a newer version.
// With no names every installed app is checked and apps in a broken state
// are skipped with a warning; named apps must be installed.
func (s Service) Upgrade(ctx context.Context, req UpgradeRequest) (UpgradeResult, error) {
	names := req.Apps
	explicit := len(names) > 0
	if !explicit {
		apps, err := s.Installed.ListApps()
		if err != nil {
			return UpgradeResult{}, err
		}
		for _, app := range apps {
			names = append(names, app.Name)
		}
	}
	snapshot, err := core.NewRepositorySnapshot(ctx, s.Repository)
	if err != nil {
		return UpgradeResult{}, err
	}

	result := UpgradeResult{}
	var targets []string
	for _, name := range names {
		candidate, err := s.upgradeCandidate(snapshot, name)
		if err != nil {
			if explicit {
				return result, err
			}
			log.Ctx(ctx).Warn().Err(err).Str("app", name).Msg("skipping upgrade check")
			continue
		}
		if !core.IsNewerVersion(candidate.Available, candidate.Current) {
			result.UpToDate = append(result.UpToDate, name)
			continue
		}
		log.Ctx(ctx).Info().
			Str("app", name).
			Str("current", candidate.Current).
			Str("available", candidate.Available).
			Msg("upgrade available")
		result.Candidates = append(result.Candidates, candidate)
		targets = append(targets, candidate.Bucket+"/"+candidate.Name)
	}
	if len(targets) == 0 {
		return result, nil
	}
	install, err := s.Install(ctx, InstallRequest{
		Apps:         targets,
		Architecture: req.Architecture,
		NoHashCheck:  req.NoHashCheck,
		Workers:      req.Workers,
	})
	result.Install = install
	return result, err
}

func (s Service) upgradeCandidate(snapshot core.RepositorySnapshot, name string) (UpgradeCandidate, error) {
	current, err := s.Installed.CurrentVersion(name)
	if err != nil {
		return UpgradeCandidate{}, err
	}
	info, err := s.Installed.ReadInstallInfo(name, current.Version)
	if err != nil {
		return UpgradeCandidate{}, err
	}
	app, err := snapshot.Lookup(types.BucketAppName{Bucket: info.Bucket, Name: name})
	if err != nil {
		return UpgradeCandidate{}, err
	}
	manifest, err := s.Manifests.Load(app.MetadataPath)
	if err != nil {
		return UpgradeCandidate{}, err
	}
	return UpgradeCandidate{
		Name:      name,
		Bucket:    app.Bucket,
		Current:   current.Version,
		Available: manifest.Version,
	}, nil
}
