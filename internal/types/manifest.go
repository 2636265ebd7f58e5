package types

// Manifest is the normalized form of a bucket manifest. Every polymorphic
// JSON shape has already been collapsed into one of these fields.
type Manifest struct {
	Schema       string
	Version      string
	Description  string
	Homepage     string
	License      License
	Comment      []string
	Depends      []BucketAppName
	ExtractTo    []string
	Notes        []string
	Persist      []Persist
	Psmodule     *Psmodule
	Suggest      []Suggestion
	Cookie       map[string]string
	InnoSetup    bool
	Autoupdate   *Autoupdate
	Architecture map[Architecture]ArchManifest

	ArchManifest
}

// ArchManifest holds the fields an architecture block may override. A nil
// slice, map or pointer means the field is unset; an empty non-nil value was
// declared explicitly.
type ArchManifest struct {
	Bin           []Bin
	Checkver      *Checkver
	EnvAddPath    []string
	EnvSet        map[string]string
	ExtractDir    []string
	Hash          []string
	Installer     *Installer
	Msi           []string
	PostInstall   []string
	PostUninstall []string
	PreInstall    []string
	PreUninstall  []string
	Shortcuts     []Shortcut
	Uninstaller   *Uninstaller
	URL           []DownloadURL
}

type Bin struct {
	Target string
	Name   string
	Args   []string
}

type Persist struct {
	Target string
	Name   string
}

type Shortcut struct {
	Target string
	Name   string
	Args   string
	Icon   string
}

type License struct {
	Identifier string
	URL        string
}

// DownloadURL is one entry of a manifest url list. A "#/name" suffix on the
// source URL renames the downloaded file.
type DownloadURL struct {
	URL      string
	FileName string
}

func (u DownloadURL) String() string {
	if u.FileName == "" {
		return u.URL
	}
	return u.URL + "#/" + u.FileName
}

type Installer struct {
	File   string
	Args   []string
	Keep   bool
	Script []string
}

type Uninstaller struct {
	File   string
	Args   []string
	Script []string
}

type Psmodule struct {
	Name string
}

// Suggestion groups alternative apps providing one feature. Manifests that
// list suggestions without a feature name produce an empty Feature.
type Suggestion struct {
	Feature string
	Apps    []string
}

type CheckverTemplate string

const (
	CheckverTemplateNone   CheckverTemplate = ""
	CheckverTemplateGitHub CheckverTemplate = "github"
)

type Checkver struct {
	Template    CheckverTemplate
	URL         string
	Regex       string
	JSONPath    string
	XPath       string
	Replace     string
	Reverse     bool
	UserAgent   string
	GitHub      string
	Script      []string
	Sourceforge *Sourceforge
}

type Sourceforge struct {
	Project string
	Path    string
}

type HashExtractionMode string

const (
	HashExtractionModeDownload    HashExtractionMode = "download"
	HashExtractionModeExtract     HashExtractionMode = "extract"
	HashExtractionModeJSON        HashExtractionMode = "json"
	HashExtractionModeXPath       HashExtractionMode = "xpath"
	HashExtractionModeRDF         HashExtractionMode = "rdf"
	HashExtractionModeMetalink    HashExtractionMode = "metalink"
	HashExtractionModeFosshub     HashExtractionMode = "fosshub"
	HashExtractionModeSourceforge HashExtractionMode = "sourceforge"
)

type HashExtraction struct {
	Regex    string
	JSONPath string
	XPath    string
	Mode     HashExtractionMode
	Type     string
	URL      string
}

type Autoupdate struct {
	AutoupdateFields
	Architecture map[Architecture]AutoupdateFields
}

type AutoupdateFields struct {
	Bin        []Bin
	EnvAddPath []string
	EnvSet     map[string]string
	ExtractDir []string
	Hash       []HashExtraction
	Installer  *Installer
	License    *License
	Notes      []string
	Persist    []Persist
	Psmodule   *Psmodule
	Shortcuts  []Shortcut
	URL        []DownloadURL
}
