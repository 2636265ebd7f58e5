package types

type InstalledApp struct {
	Name string
}

type AppVersion struct {
	App     string
	Version string
}

// AppInstallInfo is persisted as install.json inside a version directory.
type AppInstallInfo struct {
	Bucket       string       `json:"bucket"`
	Architecture Architecture `json:"architecture"`
}

type InstalledAppSummary struct {
	Name         string
	Current      string
	Bucket       string
	Architecture Architecture
	Versions     []string
}
