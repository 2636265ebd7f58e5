package adapters

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

const shimMarker = "# scoop-go shim for "

// LocalStepsAdapter performs the install steps that make sense on a POSIX
// host. Script, installer, shortcut and environment steps are Windows-only
// and are logged and skipped.
type LocalStepsAdapter struct {
	Layout types.Layout
}

func NewLocalStepsAdapter(layout types.Layout) LocalStepsAdapter {
	return LocalStepsAdapter{Layout: layout}
}

func (a LocalStepsAdapter) PreInstallScript(ctx context.Context, install types.InstallContext) error {
	skipStep(ctx, install, types.InstallStepPreInstallScript, len(install.Arch.PreInstall) > 0)
	return nil
}

func (a LocalStepsAdapter) RunInstaller(ctx context.Context, install types.InstallContext) error {
	skipStep(ctx, install, types.InstallStepRunInstaller, install.Arch.Installer != nil || len(install.Arch.Msi) > 0)
	return nil
}

func (a LocalStepsAdapter) CreateShortcuts(ctx context.Context, install types.InstallContext) error {
	skipStep(ctx, install, types.InstallStepCreateShortcuts, len(install.Arch.Shortcuts) > 0)
	return nil
}

func (a LocalStepsAdapter) InstallPsModule(ctx context.Context, install types.InstallContext) error {
	skipStep(ctx, install, types.InstallStepInstallPsModule, install.Manifest.Psmodule != nil)
	return nil
}

func (a LocalStepsAdapter) SetEnvPath(ctx context.Context, install types.InstallContext) error {
	skipStep(ctx, install, types.InstallStepSetEnvPath, len(install.Arch.EnvAddPath) > 0)
	return nil
}

func (a LocalStepsAdapter) SetEnvVars(ctx context.Context, install types.InstallContext) error {
	skipStep(ctx, install, types.InstallStepSetEnvVars, len(install.Arch.EnvSet) > 0)
	return nil
}

func (a LocalStepsAdapter) PostInstallScript(ctx context.Context, install types.InstallContext) error {
	skipStep(ctx, install, types.InstallStepPostInstallScript, len(install.Arch.PostInstall) > 0)
	return nil
}

func skipStep(ctx context.Context, install types.InstallContext, step types.InstallStep, declared bool) {
	if !declared {
		return
	}
	log.Ctx(ctx).Debug().
		Str("app", install.App.Key()).
		Str("step", string(step)).
		Msg("step not supported on this platform, skipping")
}

// Extract places every fetched artifact in the version directory. Zip
// archives are unpacked; extract_dir and extract_to pair up with the
// artifact at the same index.
func (a LocalStepsAdapter) Extract(ctx context.Context, install types.InstallContext) error {
	for i, artifact := range install.Artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := artifact.Request.FileName
		if name == "" {
			name = filepath.Base(artifact.Path)
		}
		if !strings.EqualFold(filepath.Ext(name), ".zip") {
			target := filepath.Join(install.VersionDir, filepath.FromSlash(strings.ReplaceAll(name, `\`, "/")))
			if !withinDir(install.VersionDir, target) || target == filepath.Clean(install.VersionDir) {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("artifact name escapes version directory: %s", name))
			}
			if err := copyFile(artifact.Path, target); err != nil {
				return err
			}
			continue
		}
		dest := install.VersionDir
		if to := indexOrEmpty(install.Manifest.ExtractTo, i); to != "" {
			dest = filepath.Join(dest, filepath.FromSlash(strings.ReplaceAll(to, `\`, "/")))
			if !withinDir(install.VersionDir, dest) {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("extract_to escapes version directory: %s", to))
			}
		}
		prefix := strings.Trim(strings.ReplaceAll(indexOrEmpty(install.Arch.ExtractDir, i), `\`, "/"), "/")
		log.Ctx(ctx).Debug().Str("archive", name).Str("dest", dest).Str("extract_dir", prefix).Msg("extracting")
		if err := unzip(artifact.Path, dest, prefix); err != nil {
			return err
		}
	}
	return nil
}

func indexOrEmpty(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func unzip(archive string, dest string, prefix string) error {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to open archive %s", archive)).
			WithCause(err)
	}
	defer reader.Close()
	matched := prefix == ""
	for _, file := range reader.File {
		name := strings.TrimPrefix(strings.ReplaceAll(file.Name, `\`, "/"), "/")
		if prefix != "" {
			if name != prefix && !strings.HasPrefix(name, prefix+"/") {
				continue
			}
			matched = true
			name = strings.TrimPrefix(strings.TrimPrefix(name, prefix), "/")
			if name == "" {
				continue
			}
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if !withinDir(dest, target) {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("archive entry escapes destination: %s", file.Name))
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := extractZipFile(file, target); err != nil {
			return err
		}
	}
	if !matched {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("extract_dir %s not found in %s", prefix, filepath.Base(archive)))
	}
	return nil
}

func extractZipFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

func withinDir(dir string, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("artifact not found: %s", src)).
			WithCause(err)
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// CreateShims writes one sh launcher per bin entry. Shims go through the
// current link so they survive upgrades.
func (a LocalStepsAdapter) CreateShims(ctx context.Context, install types.InstallContext) error {
	if len(install.Arch.Bin) == 0 {
		return nil
	}
	if err := os.MkdirAll(a.Layout.ShimsDir(), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create shims directory").
			WithCause(err)
	}
	for _, bin := range install.Arch.Bin {
		if err := validatePathElement("shim", bin.Name); err != nil {
			return err
		}
		target := filepath.Join(a.Layout.CurrentLink(install.App.Name), filepath.FromSlash(strings.ReplaceAll(bin.Target, `\`, "/")))
		path := filepath.Join(a.Layout.ShimsDir(), bin.Name)
		if err := writeFileAtomic(path, []byte(shimScript(install.App.Name, target, bin.Args))); err != nil {
			return err
		}
		if err := os.Chmod(path, 0755); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to mark shim %s executable", bin.Name)).
				WithCause(err)
		}
		log.Ctx(ctx).Debug().Str("shim", bin.Name).Str("target", target).Msg("shim created")
	}
	return nil
}

func shimScript(app string, target string, args []string) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString(shimMarker + app + "\n")
	b.WriteString("exec " + shellQuote(target))
	for _, arg := range args {
		b.WriteString(" " + shellQuote(arg))
	}
	b.WriteString(" \"$@\"\n")
	return b.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

// RemoveShims deletes every shim that was written for app.
func (a LocalStepsAdapter) RemoveShims(ctx context.Context, app string) error {
	entries, err := os.ReadDir(a.Layout.ShimsDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read shims directory").
			WithCause(err)
	}
	marker := shimMarker + app + "\n"
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(a.Layout.ShimsDir(), entry.Name())
		data, err := os.ReadFile(path)
		if err != nil || !strings.Contains(string(data), marker) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to remove shim %s", entry.Name())).
				WithCause(err)
		}
		log.Ctx(ctx).Debug().Str("shim", entry.Name()).Str("app", app).Msg("shim removed")
	}
	return nil
}

// Persist links each persisted path of the version directory to
// <root>/persist/<app>/<name>. Data shipped with the app seeds the persist
// directory the first time.
func (a LocalStepsAdapter) Persist(ctx context.Context, install types.InstallContext) error {
	root := a.Layout.PersistDir(install.App.Name)
	for _, entry := range install.Manifest.Persist {
		if err := validatePathElement("persist", entry.Name); err != nil {
			return err
		}
		src := filepath.Join(root, entry.Name)
		dst := filepath.Join(install.VersionDir, filepath.FromSlash(strings.ReplaceAll(entry.Target, `\`, "/")))
		if !withinDir(install.VersionDir, dst) {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("persist target escapes version directory: %s", entry.Target))
		}
		if err := seedPersist(src, dst); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to prepare persist %s", entry.Name)).
				WithCause(err)
		}
		if err := os.RemoveAll(dst); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := os.Symlink(src, dst); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to link persist %s", entry.Name)).
				WithCause(err)
		}
		log.Ctx(ctx).Debug().Str("app", install.App.Key()).Str("persist", src).Str("target", dst).Msg("persist linked")
	}
	return nil
}

func seedPersist(src string, dst string) error {
	if _, err := os.Lstat(src); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(src), 0755); err != nil {
		return err
	}
	if _, err := os.Lstat(dst); err == nil {
		return os.Rename(dst, src)
	}
	return os.MkdirAll(src, 0755)
}

var _ ports.InstallStepsPort = LocalStepsAdapter{}
