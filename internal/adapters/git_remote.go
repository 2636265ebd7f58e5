package adapters

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"scoop-go/internal/ports"
	"scoop-go/internal/shared"
)

// GitRemoteAdapter manages bucket checkouts with the git binary.
type GitRemoteAdapter struct {
	Binary string
}

func NewGitRemoteAdapter() GitRemoteAdapter {
	return GitRemoteAdapter{Binary: "git"}
}

func (a GitRemoteAdapter) Clone(ctx context.Context, url string, dest string) error {
	if strings.TrimSpace(url) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("bucket url is required")
	}
	log.Ctx(ctx).Debug().Str("url", url).Str("dest", dest).Msg("cloning bucket")
	if _, err := a.run(ctx, "clone", "--depth", "1", url, dest); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("git clone %s failed", url)).
			WithCause(err)
	}
	return nil
}

func (a GitRemoteAdapter) Pull(ctx context.Context, dir string) error {
	log.Ctx(ctx).Debug().Str("dir", dir).Msg("pulling bucket")
	if _, err := a.run(ctx, "-C", dir, "pull", "--ff-only"); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("git pull failed in %s", dir)).
			WithCause(err)
	}
	return nil
}

func (a GitRemoteAdapter) RemoteURL(ctx context.Context, dir string) (string, error) {
	out, err := a.run(ctx, "-C", dir, "remote", "get-url", "origin")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("no origin remote in %s", dir)).
			WithCause(err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (a GitRemoteAdapter) run(ctx context.Context, args ...string) ([]byte, error) {
	binary := a.Binary
	if binary == "" {
		binary = "git"
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, shared.CommandError(out, err)
	}
	return out, nil
}

var _ ports.BucketRemotePort = GitRemoteAdapter{}
