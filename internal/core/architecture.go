package core

import (
	"maps"
	"slices"

	"scoop-go/internal/types"
)

// ArchitectureView projects a manifest onto one architecture. Fields the
// architecture block declares win; unset fields fall back to the top-level
// value. The returned value shares no memory with manifest.
func ArchitectureView(manifest types.Manifest, arch types.Architecture) types.ArchManifest {
	view := cloneArchManifest(manifest.Architecture[arch])
	base := manifest.ArchManifest
	if view.Bin == nil {
		view.Bin = cloneBins(base.Bin)
	}
	if view.Checkver == nil {
		view.Checkver = cloneCheckver(base.Checkver)
	}
	if view.EnvAddPath == nil {
		view.EnvAddPath = slices.Clone(base.EnvAddPath)
	}
	if view.EnvSet == nil {
		view.EnvSet = maps.Clone(base.EnvSet)
	}
	if view.ExtractDir == nil {
		view.ExtractDir = slices.Clone(base.ExtractDir)
	}
	if view.Hash == nil {
		view.Hash = slices.Clone(base.Hash)
	}
	if view.Installer == nil {
		view.Installer = cloneInstaller(base.Installer)
	}
	if view.Msi == nil {
		view.Msi = slices.Clone(base.Msi)
	}
	if view.PostInstall == nil {
		view.PostInstall = slices.Clone(base.PostInstall)
	}
	if view.PostUninstall == nil {
		view.PostUninstall = slices.Clone(base.PostUninstall)
	}
	if view.PreInstall == nil {
		view.PreInstall = slices.Clone(base.PreInstall)
	}
	if view.PreUninstall == nil {
		view.PreUninstall = slices.Clone(base.PreUninstall)
	}
	if view.Shortcuts == nil {
		view.Shortcuts = slices.Clone(base.Shortcuts)
	}
	if view.Uninstaller == nil {
		view.Uninstaller = cloneUninstaller(base.Uninstaller)
	}
	if view.URL == nil {
		view.URL = slices.Clone(base.URL)
	}
	return view
}

func cloneArchManifest(in types.ArchManifest) types.ArchManifest {
	return types.ArchManifest{
		Bin:           cloneBins(in.Bin),
		Checkver:      cloneCheckver(in.Checkver),
		EnvAddPath:    slices.Clone(in.EnvAddPath),
		EnvSet:        maps.Clone(in.EnvSet),
		ExtractDir:    slices.Clone(in.ExtractDir),
		Hash:          slices.Clone(in.Hash),
		Installer:     cloneInstaller(in.Installer),
		Msi:           slices.Clone(in.Msi),
		PostInstall:   slices.Clone(in.PostInstall),
		PostUninstall: slices.Clone(in.PostUninstall),
		PreInstall:    slices.Clone(in.PreInstall),
		PreUninstall:  slices.Clone(in.PreUninstall),
		Shortcuts:     slices.Clone(in.Shortcuts),
		Uninstaller:   cloneUninstaller(in.Uninstaller),
		URL:           slices.Clone(in.URL),
	}
}

func cloneBins(in []types.Bin) []types.Bin {
	if in == nil {
		return nil
	}
	out := make([]types.Bin, len(in))
	for i, bin := range in {
		out[i] = types.Bin{Target: bin.Target, Name: bin.Name, Args: slices.Clone(bin.Args)}
	}
	return out
}

func cloneCheckver(in *types.Checkver) *types.Checkver {
	if in == nil {
		return nil
	}
	out := *in
	out.Script = slices.Clone(in.Script)
	if in.Sourceforge != nil {
		sf := *in.Sourceforge
		out.Sourceforge = &sf
	}
	return &out
}

func cloneInstaller(in *types.Installer) *types.Installer {
	if in == nil {
		return nil
	}
	out := *in
	out.Args = slices.Clone(in.Args)
	out.Script = slices.Clone(in.Script)
	return &out
}

func cloneUninstaller(in *types.Uninstaller) *types.Uninstaller {
	if in == nil {
		return nil
	}
	out := *in
	out.Args = slices.Clone(in.Args)
	out.Script = slices.Clone(in.Script)
	return &out
}
