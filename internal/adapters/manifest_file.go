package adapters

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"scoop-go/internal/core"
	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

type ManifestFileAdapter struct{}

func NewManifestFileAdapter() ManifestFileAdapter {
	return ManifestFileAdapter{}
}

func (a ManifestFileAdapter) Load(path string) (types.Manifest, error) {
	data, err := a.Read(path)
	if err != nil {
		return types.Manifest{}, err
	}
	manifest, err := core.ParseManifest(data)
	if err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to parse manifest %s", path)).
			WithCause(err)
	}
	return manifest, nil
}

func (a ManifestFileAdapter) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("manifest file not found: %s", path)).
			WithCause(err)
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read manifest %s", path)).
			WithCause(err)
	}
	return data, nil
}

var _ ports.ManifestLoaderPort = ManifestFileAdapter{}
