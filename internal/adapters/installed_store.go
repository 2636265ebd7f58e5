package adapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"scoop-go/internal/core"
	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

const (
	installInfoFile       = "install.json"
	installedManifestFile = "manifest.json"
)

// InstalledStoreAdapter keeps installed apps under <root>/apps. Each version
// lives in its own directory and the "current" symlink names the active one.
type InstalledStoreAdapter struct {
	Layout    types.Layout
	Manifests ports.ManifestLoaderPort
}

func NewInstalledStoreAdapter(layout types.Layout, manifests ports.ManifestLoaderPort) InstalledStoreAdapter {
	return InstalledStoreAdapter{Layout: layout, Manifests: manifests}
}

func (a InstalledStoreAdapter) ListApps() ([]types.InstalledApp, error) {
	entries, err := os.ReadDir(a.Layout.AppsDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read apps directory").
			WithCause(err)
	}
	var apps []types.InstalledApp
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		apps = append(apps, types.InstalledApp{Name: entry.Name()})
	}
	return apps, nil
}

// Versions lists the version directories of app in ascending order.
func (a InstalledStoreAdapter) Versions(app string) ([]types.AppVersion, error) {
	entries, err := os.ReadDir(a.Layout.AppDir(app))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notInstalled(app, err)
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read versions of %s", app)).
			WithCause(err)
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if name == types.CurrentLinkName || strings.HasPrefix(name, ".") || !entry.IsDir() {
			continue
		}
		names = append(names, name)
	}
	versions := make([]types.AppVersion, 0, len(names))
	for _, name := range core.SortVersions(names) {
		versions = append(versions, types.AppVersion{App: app, Version: name})
	}
	return versions, nil
}

func (a InstalledStoreAdapter) CurrentVersion(app string) (types.AppVersion, error) {
	if _, err := os.Stat(a.Layout.AppDir(app)); err != nil {
		return types.AppVersion{}, notInstalled(app, err)
	}
	target, err := os.Readlink(a.Layout.CurrentLink(app))
	if err != nil {
		return types.AppVersion{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("invalid state: no current version for %s", app)).
			WithCause(err)
	}
	return types.AppVersion{App: app, Version: filepath.Base(target)}, nil
}

func (a InstalledStoreAdapter) PrepareVersion(app string, version string) (string, error) {
	if err := validatePathElement("app", app); err != nil {
		return "", err
	}
	if err := validatePathElement("version", version); err != nil {
		return "", err
	}
	dir := a.Layout.VersionDir(app, version)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to create version directory for %s", app)).
			WithCause(err)
	}
	return dir, nil
}

// LinkCurrent points "current" at version. The new link is created under a
// temporary name and renamed over the old one, so readers see either the
// previous or the new target.
func (a InstalledStoreAdapter) LinkCurrent(app string, version string) error {
	if info, err := os.Stat(a.Layout.VersionDir(app, version)); err != nil || !info.IsDir() {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("version directory missing for %s %s", app, version)).
			WithCause(err)
	}
	tmp := filepath.Join(a.Layout.AppDir(app), fmt.Sprintf(".%s-%d", types.CurrentLinkName, time.Now().UnixNano()))
	if err := os.Symlink(version, tmp); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to create current link for %s", app)).
			WithCause(err)
	}
	if err := os.Rename(tmp, a.Layout.CurrentLink(app)); err != nil {
		_ = os.Remove(tmp)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to switch current link for %s", app)).
			WithCause(err)
	}
	return nil
}

func (a InstalledStoreAdapter) WriteInstallInfo(app string, version string, info types.AppInstallInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal install info").
			WithCause(err)
	}
	return writeFileAtomic(filepath.Join(a.Layout.VersionDir(app, version), installInfoFile), append(data, '\n'))
}

func (a InstalledStoreAdapter) ReadInstallInfo(app string, version string) (types.AppInstallInfo, error) {
	path := filepath.Join(a.Layout.VersionDir(app, version), installInfoFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.AppInstallInfo{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("install info not found for %s %s", app, version)).
			WithCause(err)
	}
	if err != nil {
		return types.AppInstallInfo{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read %s", path)).
			WithCause(err)
	}
	var info types.AppInstallInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return types.AppInstallInfo{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to parse %s", path)).
			WithCause(err)
	}
	return info, nil
}

func (a InstalledStoreAdapter) WriteManifest(app string, version string, data []byte) error {
	return writeFileAtomic(filepath.Join(a.Layout.VersionDir(app, version), installedManifestFile), data)
}

func (a InstalledStoreAdapter) Manifest(app string, version string) (types.Manifest, error) {
	return a.Manifests.Load(filepath.Join(a.Layout.VersionDir(app, version), installedManifestFile))
}

func (a InstalledStoreAdapter) RemoveApp(app string) error {
	if err := validatePathElement("app", app); err != nil {
		return err
	}
	dir := a.Layout.AppDir(app)
	if _, err := os.Lstat(dir); err != nil {
		return notInstalled(app, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to remove %s", app)).
			WithCause(err)
	}
	return nil
}

func notInstalled(app string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("app not installed: %s", app)).
		WithCause(err)
}

func validatePathElement(kind string, value string) error {
	if strings.TrimSpace(value) == "" || value == "." || value == ".." ||
		value == types.CurrentLinkName || strings.ContainsAny(value, `/\`) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid %s name %q", kind, value))
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to create directory %s", dir)).
			WithCause(err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to create temp file for %s", path)).
			WithCause(err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write %s", path)).
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write %s", path)).
			WithCause(err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to set permissions on %s", path)).
			WithCause(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to replace %s", path)).
			WithCause(err)
	}
	return nil
}

var _ ports.InstalledStorePort = InstalledStoreAdapter{}
