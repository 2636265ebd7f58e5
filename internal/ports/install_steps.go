package ports

import (
	"context"

	"scoop-go/internal/types"
)

type InstallStepsPort interface {
	PreInstallScript(ctx context.Context, install types.InstallContext) error
	Extract(ctx context.Context, install types.InstallContext) error
	RunInstaller(ctx context.Context, install types.InstallContext) error
	CreateShims(ctx context.Context, install types.InstallContext) error
	CreateShortcuts(ctx context.Context, install types.InstallContext) error
	InstallPsModule(ctx context.Context, install types.InstallContext) error
	SetEnvPath(ctx context.Context, install types.InstallContext) error
	SetEnvVars(ctx context.Context, install types.InstallContext) error
	Persist(ctx context.Context, install types.InstallContext) error
	PostInstallScript(ctx context.Context, install types.InstallContext) error
	RemoveShims(ctx context.Context, app string) error
}
