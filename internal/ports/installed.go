package ports

import "scoop-go/internal/types"

type InstalledStorePort interface {
	ListApps() ([]types.InstalledApp, error)
	Versions(app string) ([]types.AppVersion, error)
	CurrentVersion(app string) (types.AppVersion, error)
	PrepareVersion(app string, version string) (string, error)
	LinkCurrent(app string, version string) error
	WriteInstallInfo(app string, version string, info types.AppInstallInfo) error
	ReadInstallInfo(app string, version string) (types.AppInstallInfo, error)
	WriteManifest(app string, version string, data []byte) error
	Manifest(app string, version string) (types.Manifest, error)
	RemoveApp(app string) error
}
