package ports

import "scoop-go/internal/types"

type ManifestLoaderPort interface {
	Load(path string) (types.Manifest, error)
	Read(path string) ([]byte, error)
}
