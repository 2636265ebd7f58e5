package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"scoop-go/internal/adapters"
	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

type Service struct {
	Layout     types.Layout
	Repository ports.RepositoryPort
	Manifests  ports.ManifestLoaderPort
	Installed  ports.InstalledStorePort
	Steps      ports.InstallStepsPort
	Remote     ports.BucketRemotePort
	PlanWriter ports.PlanWriterPort
	Fetchers   func(workers int) ports.FetcherPort
	Clock      func() time.Time
}

func NewService(layout types.Layout) Service {
	manifests := adapters.NewManifestFileAdapter()
	progress := adapters.NewLogProgressAdapter(log.Logger)
	return Service{
		Layout:     layout,
		Repository: adapters.NewBucketDirAdapter(layout),
		Manifests:  manifests,
		Installed:  adapters.NewInstalledStoreAdapter(layout, manifests),
		Steps:      adapters.NewLocalStepsAdapter(layout),
		Remote:     adapters.NewGitRemoteAdapter(),
		PlanWriter: adapters.NewPlanFileAdapter(nil),
		Fetchers: func(workers int) ports.FetcherPort {
			return adapters.NewDownloadCacheAdapter(workers, progress)
		},
		Clock: time.Now,
	}
}
