package types

import "path/filepath"

const CurrentLinkName = "current"

// Layout is the on-disk shape of an installation root. It is built once at
// startup and handed to every component that touches the filesystem.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

func (l Layout) BucketsDir() string {
	return filepath.Join(l.Root, "buckets")
}

func (l Layout) BucketDir(name string) string {
	return filepath.Join(l.BucketsDir(), name)
}

func (l Layout) AppsDir() string {
	return filepath.Join(l.Root, "apps")
}

func (l Layout) AppDir(name string) string {
	return filepath.Join(l.AppsDir(), name)
}

func (l Layout) VersionDir(app string, version string) string {
	return filepath.Join(l.AppDir(app), version)
}

func (l Layout) CurrentLink(app string) string {
	return filepath.Join(l.AppDir(app), CurrentLinkName)
}

func (l Layout) CacheDir() string {
	return filepath.Join(l.Root, "cache")
}

func (l Layout) ShimsDir() string {
	return filepath.Join(l.Root, "shims")
}

func (l Layout) PersistDir(app string) string {
	return filepath.Join(l.Root, "persist", app)
}
