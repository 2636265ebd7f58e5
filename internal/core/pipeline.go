package core

import (
	"context"
	"fmt"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

// InstallPipeline applies a resolved plan one entry at a time. Steps of an
// entry run in a fixed order and stop at the first failure; the run then
// moves on to the next entry.
type InstallPipeline struct {
	steps     ports.InstallStepsPort
	store     ports.InstalledStorePort
	manifests ports.ManifestLoaderPort
}

type installStep struct {
	name types.InstallStep
	run  func(ctx context.Context, install types.InstallContext) error
}

func NewInstallPipeline(steps ports.InstallStepsPort, store ports.InstalledStorePort, manifests ports.ManifestLoaderPort) InstallPipeline {
	return InstallPipeline{steps: steps, store: store, manifests: manifests}
}

// sequence is the install order. LinkCurrent must stay behind Extract and
// RunInstaller so the current pointer only moves to a populated version.
func (p InstallPipeline) sequence() []installStep {
	return []installStep{
		{name: types.InstallStepPreInstallScript, run: p.steps.PreInstallScript},
		{name: types.InstallStepExtract, run: p.steps.Extract},
		{name: types.InstallStepRunInstaller, run: p.steps.RunInstaller},
		{name: types.InstallStepLinkCurrent, run: p.linkCurrent},
		{name: types.InstallStepCreateShims, run: p.steps.CreateShims},
		{name: types.InstallStepCreateShortcuts, run: p.steps.CreateShortcuts},
		{name: types.InstallStepInstallPsModule, run: p.steps.InstallPsModule},
		{name: types.InstallStepSetEnvPath, run: p.steps.SetEnvPath},
		{name: types.InstallStepSetEnvVars, run: p.steps.SetEnvVars},
		{name: types.InstallStepPersist, run: p.steps.Persist},
		{name: types.InstallStepPostInstallScript, run: p.steps.PostInstallScript},
		{name: types.InstallStepWriteInstallInfo, run: p.writeInstallInfo},
	}
}

// Run installs every plan entry and reports each outcome. Entries whose
// artifacts failed to fetch, or whose dependencies failed earlier in the run,
// are reported without running any step.
func (p InstallPipeline) Run(ctx context.Context, plan []types.PlanEntry, artifacts map[string][]types.FetchResult, arch types.Architecture) types.InstallReport {
	report := types.InstallReport{Entries: make([]types.EntryReport, 0, len(plan))}
	failed := map[string]struct{}{}
	for _, entry := range plan {
		result := p.install(ctx, entry, artifacts[entry.App.Key()], arch, failed)
		if result.OK() {
			log.Ctx(ctx).Info().Str("app", entry.App.Key()).Str("version", result.Version).Msg("installed")
		} else {
			failed[entry.App.Key()] = struct{}{}
			log.Ctx(ctx).Error().Err(result.Err).
				Str("app", entry.App.Key()).
				Str("step", string(result.FailedStep)).
				Msg("install failed")
		}
		report.Entries = append(report.Entries, result)
	}
	return report
}

func (p InstallPipeline) install(ctx context.Context, entry types.PlanEntry, artifacts []types.FetchResult, arch types.Architecture, failed map[string]struct{}) types.EntryReport {
	assert.NotEmpty(ctx, entry.Manifest.Version, "plan entry version must be set")
	key := entry.App.Key()
	report := types.EntryReport{App: entry.App, Version: entry.Manifest.Version}
	if err := ctx.Err(); err != nil {
		return failEntry(report, types.InstallStepPrepare, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("install canceled").
			WithCause(err))
	}
	for _, dep := range entry.Dependencies {
		if _, ok := failed[dep]; ok {
			return failEntry(report, types.InstallStepDependencies, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("dependency %s failed to install", dep)))
		}
	}
	for _, artifact := range artifacts {
		if artifact.Err != nil {
			return failEntry(report, types.InstallStepFetch, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to fetch %s", artifact.Request.Label)).
				WithCause(artifact.Err))
		}
	}
	versionDir, err := p.store.PrepareVersion(entry.App.Name, entry.Manifest.Version)
	if err != nil {
		return failEntry(report, types.InstallStepPrepare, err)
	}
	install := types.InstallContext{
		App:          entry.App,
		Manifest:     entry.Manifest,
		Arch:         ArchitectureView(entry.Manifest, arch),
		Architecture: arch,
		VersionDir:   versionDir,
		Artifacts:    artifacts,
	}
	for _, step := range p.sequence() {
		log.Ctx(ctx).Debug().Str("app", key).Str("step", string(step.name)).Msg("running install step")
		if err := step.run(ctx, install); err != nil {
			return failEntry(report, step.name, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("%s failed for %s", step.name, key)).
				WithCause(err))
		}
		report.Completed = append(report.Completed, step.name)
	}
	return report
}

func (p InstallPipeline) linkCurrent(_ context.Context, install types.InstallContext) error {
	return p.store.LinkCurrent(install.App.Name, install.Manifest.Version)
}

func (p InstallPipeline) writeInstallInfo(_ context.Context, install types.InstallContext) error {
	data, err := p.manifests.Read(install.App.MetadataPath)
	if err != nil {
		return err
	}
	if err := p.store.WriteManifest(install.App.Name, install.Manifest.Version, data); err != nil {
		return err
	}
	return p.store.WriteInstallInfo(install.App.Name, install.Manifest.Version, types.AppInstallInfo{
		Bucket:       install.App.Bucket,
		Architecture: install.Architecture,
	})
}

func failEntry(report types.EntryReport, step types.InstallStep, err error) types.EntryReport {
	report.FailedStep = step
	report.Err = err
	return report
}
