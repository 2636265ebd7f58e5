package app

import "scoop-go/internal/types"

type InstallRequest struct {
	Apps         []string
	Architecture types.Architecture
	NoHashCheck  bool
	Workers      int
}

type InstallResult struct {
	Report  types.InstallReport
	Fetched []types.FetchResult
	// Skipped lists plan entries whose exact version was already current.
	Skipped []string
}

type ResolveRequest struct {
	Apps         []string
	Architecture types.Architecture
	Output       string
}

type ResolveResult struct {
	Plan []types.PlanEntry
	File types.PlanFile
}

type UninstallRequest struct {
	Name string
}

type UninstallResult struct {
	Name     string
	Versions []string
}

type UpgradeRequest struct {
	Apps         []string
	Architecture types.Architecture
	NoHashCheck  bool
	Workers      int
}

type UpgradeCandidate struct {
	Name      string
	Bucket    string
	Current   string
	Available string
}

type UpgradeResult struct {
	Candidates []UpgradeCandidate
	UpToDate   []string
	Install    InstallResult
}

type SearchRequest struct {
	Query string
	Fuzzy bool
}

type SearchMatch struct {
	App     types.BucketApp
	Version string
}

type SearchResult struct {
	Matches []SearchMatch
}

type ListResult struct {
	Apps []types.InstalledAppSummary
}

type BucketAddRequest struct {
	Name string
	URL  string
}

type BucketRemoveRequest struct {
	Name string
}

type BucketUpdateRequest struct {
	Names []string
}

type BucketUpdateResult struct {
	Updated []string
	Skipped []string
}

type BucketSummary struct {
	Name string
	URL  string
	Apps int
}

type BucketListResult struct {
	Buckets []BucketSummary
}
