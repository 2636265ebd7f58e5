package ports

import (
	"context"

	"scoop-go/internal/types"
)

type RepositoryPort interface {
	ListBuckets(ctx context.Context) ([]types.Bucket, error)
	ListApps(ctx context.Context, bucket string) ([]types.BucketApp, error)
}

type BucketRemotePort interface {
	Clone(ctx context.Context, url string, dest string) error
	Pull(ctx context.Context, dir string) error
	RemoteURL(ctx context.Context, dir string) (string, error)
}
