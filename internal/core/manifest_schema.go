package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"scoop-go/internal/types"
)

type archDocument struct {
	Bin           shimList             `json:"bin"`
	Checkver      *checkverField       `json:"checkver"`
	EnvAddPath    stringList           `json:"env_add_path"`
	EnvSet        stringMap            `json:"env_set"`
	ExtractDir    stringList           `json:"extract_dir"`
	Hash          stringList           `json:"hash"`
	Installer     *installerDocument   `json:"installer"`
	Msi           stringList           `json:"msi"`
	PostInstall   stringList           `json:"post_install"`
	PostUninstall stringList           `json:"post_uninstall"`
	PreInstall    stringList           `json:"pre_install"`
	PreUninstall  stringList           `json:"pre_uninstall"`
	Shortcuts     shortcutList         `json:"shortcuts"`
	Uninstaller   *uninstallerDocument `json:"uninstaller"`
	URL           stringList           `json:"url"`
}

type autoupdateFieldsDocument struct {
	Bin        shimList           `json:"bin"`
	EnvAddPath stringList         `json:"env_add_path"`
	EnvSet     stringMap          `json:"env_set"`
	ExtractDir stringList         `json:"extract_dir"`
	Hash       hashExtractionList `json:"hash"`
	Installer  *installerDocument `json:"installer"`
	License    *licenseField      `json:"license"`
	Notes      stringList         `json:"notes"`
	Persist    persistList        `json:"persist"`
	Psmodule   *psmoduleDocument  `json:"psmodule"`
	Shortcuts  shortcutList       `json:"shortcuts"`
	URL        stringList         `json:"url"`
}

type autoupdateDocument struct {
	autoupdateFieldsDocument
	Architecture map[string]autoupdateFieldsDocument `json:"architecture"`
}

type manifestDocument struct {
	Schema        string                  `json:"$schema"`
	Comment       stringList              `json:"##"`
	LegacyComment stringList              `json:"_comment"`
	Version       scalarString            `json:"version"`
	Description   stringList              `json:"description"`
	Homepage      string                  `json:"homepage"`
	License       *licenseField           `json:"license"`
	Depends       stringList              `json:"depends"`
	ExtractTo     stringList              `json:"extract_to"`
	Notes         stringList              `json:"notes"`
	Persist       persistList             `json:"persist"`
	Psmodule      *psmoduleDocument       `json:"psmodule"`
	Suggest       suggestField            `json:"suggest"`
	Cookie        stringMap               `json:"cookie"`
	InnoSetup     bool                    `json:"innosetup"`
	Autoupdate    *autoupdateDocument     `json:"autoupdate"`
	Architecture  map[string]archDocument `json:"architecture"`

	archDocument
}

// ParseManifest decodes a bucket manifest into its normalized form. Unknown
// keys are ignored; a missing version is an error.
func ParseManifest(data []byte) (types.Manifest, error) {
	var doc manifestDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse manifest").
			WithCause(err)
	}
	manifest, err := doc.normalize()
	if err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid manifest").
			WithCause(err)
	}
	return manifest, nil
}

func (d manifestDocument) normalize() (types.Manifest, error) {
	version := strings.TrimSpace(string(d.Version))
	if version == "" {
		return types.Manifest{}, fmt.Errorf("missing version")
	}
	manifest := types.Manifest{
		Schema:       d.Schema,
		Version:      version,
		Description:  strings.Join(d.Description, " "),
		Homepage:     d.Homepage,
		ExtractTo:    []string(d.ExtractTo),
		Notes:        []string(d.Notes),
		Persist:      []types.Persist(d.Persist),
		Psmodule:     d.Psmodule.normalize(),
		Suggest:      []types.Suggestion(d.Suggest),
		Cookie:       map[string]string(d.Cookie),
		InnoSetup:    d.InnoSetup,
		ArchManifest: d.archDocument.normalize(),
	}
	if d.Comment != nil || d.LegacyComment != nil {
		manifest.Comment = append(append([]string{}, d.Comment...), d.LegacyComment...)
	}
	if d.License != nil {
		manifest.License = types.License(*d.License)
	}
	if d.Depends != nil {
		manifest.Depends = make([]types.BucketAppName, 0, len(d.Depends))
		for _, dep := range d.Depends {
			name, err := types.ParseBucketAppName(dep)
			if err != nil {
				return types.Manifest{}, fmt.Errorf("invalid depends entry: %w", err)
			}
			manifest.Depends = append(manifest.Depends, name)
		}
	}
	for key, arch := range d.Architecture {
		parsed, ok := architectureKey(key)
		if !ok {
			continue
		}
		if manifest.Architecture == nil {
			manifest.Architecture = map[types.Architecture]types.ArchManifest{}
		}
		manifest.Architecture[parsed] = arch.normalize()
	}
	if d.Autoupdate != nil {
		manifest.Autoupdate = d.Autoupdate.normalize()
	}
	return manifest, nil
}

func (d archDocument) normalize() types.ArchManifest {
	arch := types.ArchManifest{
		Bin:           []types.Bin(d.Bin),
		EnvAddPath:    []string(d.EnvAddPath),
		EnvSet:        map[string]string(d.EnvSet),
		ExtractDir:    []string(d.ExtractDir),
		Hash:          []string(d.Hash),
		Installer:     d.Installer.normalize(),
		Msi:           []string(d.Msi),
		PostInstall:   []string(d.PostInstall),
		PostUninstall: []string(d.PostUninstall),
		PreInstall:    []string(d.PreInstall),
		PreUninstall:  []string(d.PreUninstall),
		Shortcuts:     []types.Shortcut(d.Shortcuts),
		Uninstaller:   d.Uninstaller.normalize(),
		URL:           downloadURLs(d.URL),
	}
	if d.Checkver != nil {
		checkver := types.Checkver(*d.Checkver)
		arch.Checkver = &checkver
	}
	return arch
}

func (d autoupdateDocument) normalize() *types.Autoupdate {
	autoupdate := &types.Autoupdate{AutoupdateFields: d.autoupdateFieldsDocument.normalize()}
	for key, fields := range d.Architecture {
		parsed, ok := architectureKey(key)
		if !ok {
			continue
		}
		if autoupdate.Architecture == nil {
			autoupdate.Architecture = map[types.Architecture]types.AutoupdateFields{}
		}
		autoupdate.Architecture[parsed] = fields.normalize()
	}
	return autoupdate
}

func (d autoupdateFieldsDocument) normalize() types.AutoupdateFields {
	fields := types.AutoupdateFields{
		Bin:        []types.Bin(d.Bin),
		EnvAddPath: []string(d.EnvAddPath),
		EnvSet:     map[string]string(d.EnvSet),
		ExtractDir: []string(d.ExtractDir),
		Hash:       []types.HashExtraction(d.Hash),
		Installer:  d.Installer.normalize(),
		Notes:      []string(d.Notes),
		Persist:    []types.Persist(d.Persist),
		Psmodule:   d.Psmodule.normalize(),
		Shortcuts:  []types.Shortcut(d.Shortcuts),
		URL:        downloadURLs(d.URL),
	}
	if d.License != nil {
		license := types.License(*d.License)
		fields.License = &license
	}
	return fields
}

func architectureKey(key string) (types.Architecture, bool) {
	for _, arch := range types.Architectures {
		if string(arch) == key {
			return arch, true
		}
	}
	return "", false
}
