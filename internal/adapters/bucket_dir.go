package adapters

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

const manifestExt = ".json"

type BucketDirAdapter struct {
	Layout types.Layout
}

func NewBucketDirAdapter(layout types.Layout) BucketDirAdapter {
	return BucketDirAdapter{Layout: layout}
}

func (a BucketDirAdapter) ListBuckets(ctx context.Context) ([]types.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(a.Layout.BucketsDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read buckets directory").
			WithCause(err)
	}
	var buckets []types.Bucket
	for _, entry := range entries {
		if shouldSkipBucketDir(entry.Name()) {
			continue
		}
		if !entry.IsDir() {
			info, err := os.Stat(filepath.Join(a.Layout.BucketsDir(), entry.Name()))
			if err != nil || !info.IsDir() {
				continue
			}
		}
		buckets = append(buckets, types.Bucket{Name: entry.Name()})
	}
	return buckets, nil
}

// ListApps walks a bucket and returns one app per manifest file. Hidden
// directories are skipped; when two files share a stem the later one wins.
func (a BucketDirAdapter) ListApps(ctx context.Context, bucket string) ([]types.BucketApp, error) {
	root := a.Layout.BucketDir(bucket)
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	byName := map[string]types.BucketApp{}
	var order []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldSkipBucketDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || filepath.Ext(d.Name()) != manifestExt {
			return nil
		}
		name := strings.TrimSuffix(d.Name(), manifestExt)
		if _, seen := byName[name]; !seen {
			order = append(order, name)
		}
		byName[name] = types.BucketApp{Name: name, Bucket: bucket, MetadataPath: path}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("bucket not found: " + bucket).
			WithCause(err)
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan bucket " + bucket).
			WithCause(err)
	}
	apps := make([]types.BucketApp, 0, len(order))
	for _, name := range order {
		apps = append(apps, byName[name])
	}
	return apps, nil
}

func shouldSkipBucketDir(name string) bool {
	return strings.HasPrefix(name, ".")
}

var _ ports.RepositoryPort = BucketDirAdapter{}
