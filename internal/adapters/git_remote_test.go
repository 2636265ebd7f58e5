package adapters

import (
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	base := []string{"-C", dir, "-c", "user.email=ci@example.invalid", "-c", "user.name=ci", "-c", "commit.gpgsign=false"}
	out, err := exec.Command("git", append(base, args...)...).CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestGitRemoteCloneAndPull(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	origin := t.TempDir()
	runGit(t, origin, "init", "-q")
	writeFile(t, filepath.Join(origin, "bucket", "tool.json"), `{"version": "1.0"}`)
	runGit(t, origin, "add", ".")
	runGit(t, origin, "commit", "-q", "-m", "add tool")

	dest := filepath.Join(t.TempDir(), "main")
	remote := NewGitRemoteAdapter()
	require.NoError(t, remote.Clone(t.Context(), origin, dest))
	assert.FileExists(t, filepath.Join(dest, "bucket", "tool.json"))

	url, err := remote.RemoteURL(t.Context(), dest)
	require.NoError(t, err)
	assert.Equal(t, origin, url)

	writeFile(t, filepath.Join(origin, "bucket", "other.json"), `{"version": "2.0"}`)
	runGit(t, origin, "add", ".")
	runGit(t, origin, "commit", "-q", "-m", "add other")
	require.NoError(t, remote.Pull(t.Context(), dest))
	assert.FileExists(t, filepath.Join(dest, "bucket", "other.json"))
}

func TestGitRemoteErrors(t *testing.T) {
	remote := NewGitRemoteAdapter()

	err := remote.Clone(t.Context(), " ", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	err = remote.Clone(t.Context(), filepath.Join(t.TempDir(), "absent"), filepath.Join(t.TempDir(), "dest"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))

	_, err = remote.RemoteURL(t.Context(), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
}
