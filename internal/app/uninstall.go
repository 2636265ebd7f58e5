package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// Uninstall removes every installed version of an app together with its
// shims. Persisted data is left in place.
func (s Service) Uninstall(ctx context.Context, req UninstallRequest) (UninstallResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return UninstallResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("app name is required")
	}
	versions, err := s.Installed.Versions(name)
	if err != nil {
		return UninstallResult{}, err
	}
	if err := s.Steps.RemoveShims(ctx, name); err != nil {
		return UninstallResult{}, err
	}
	if err := s.Installed.RemoveApp(name); err != nil {
		return UninstallResult{}, err
	}
	result := UninstallResult{Name: name}
	for _, version := range versions {
		result.Versions = append(result.Versions, version.Version)
	}
	log.Ctx(ctx).Info().Str("app", name).Strs("versions", result.Versions).Msg("uninstalled")
	return result, nil
}
