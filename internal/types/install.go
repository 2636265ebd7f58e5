package types

type InstallStep string

const (
	InstallStepDependencies      InstallStep = "Dependencies"
	InstallStepFetch             InstallStep = "Fetch"
	InstallStepPrepare           InstallStep = "Prepare"
	InstallStepPreInstallScript  InstallStep = "PreInstallScript"
	InstallStepExtract           InstallStep = "Extract"
	InstallStepRunInstaller      InstallStep = "RunInstaller"
	InstallStepLinkCurrent       InstallStep = "LinkCurrent"
	InstallStepCreateShims       InstallStep = "CreateShims"
	InstallStepCreateShortcuts   InstallStep = "CreateShortcuts"
	InstallStepInstallPsModule   InstallStep = "InstallPsModule"
	InstallStepSetEnvPath        InstallStep = "SetEnvPath"
	InstallStepSetEnvVars        InstallStep = "SetEnvVars"
	InstallStepPersist           InstallStep = "Persist"
	InstallStepPostInstallScript InstallStep = "PostInstallScript"
	InstallStepWriteInstallInfo  InstallStep = "WriteInstallInfo"
)

// InstallContext is what every install collaborator receives for one entry.
type InstallContext struct {
	App          BucketApp
	Manifest     Manifest
	Arch         ArchManifest
	Architecture Architecture
	VersionDir   string
	Artifacts    []FetchResult
}

type EntryReport struct {
	App        BucketApp
	Version    string
	Completed  []InstallStep
	FailedStep InstallStep
	Err        error
}

func (r EntryReport) OK() bool {
	return r.Err == nil
}

type InstallReport struct {
	Entries []EntryReport
}

func (r InstallReport) Failed() []EntryReport {
	var out []EntryReport
	for _, entry := range r.Entries {
		if !entry.OK() {
			out = append(out, entry)
		}
	}
	return out
}

func (r InstallReport) Succeeded() []EntryReport {
	var out []EntryReport
	for _, entry := range r.Entries {
		if entry.OK() {
			out = append(out, entry)
		}
	}
	return out
}
