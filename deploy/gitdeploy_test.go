package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pria-cloud/previewctl/daytona"
)

// mockRunner implements CommandRunner for testing
type mockRunner struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
	calls    [][]string
}

func (m *mockRunner) RunCommand(_ context.Context, args []string) (string, string, int, error) {
	m.calls = append(m.calls, args)
	return m.stdout, m.stderr, m.exitCode, m.err
}

func TestDeployFromGit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := &mockClient{sandbox: &daytona.Sandbox{ID: "sb-deploy"}}
		factory := &recordingFactory{clients: map[bool]daytona.Client{false: client}}
		deployer, out, _ := newTestDeployer(t, factory)

		result, err := deployer.DeployFromGit(context.Background(), "https://github.com/pria-cloud/agents.git", "")
		require.NoError(t, err)
		assert.Equal(t, "sb-deploy", result.SandboxID)
		assert.Equal(t, 0, result.InstallExit)
		assert.Equal(t, 0, result.BuildExit)

		// Creation carries the git source, sizing and labels
		require.Len(t, client.createCalls, 1)
		params := client.createCalls[0]
		assert.Equal(t, "https://github.com/pria-cloud/agents.git", params.Repository)
		assert.Equal(t, "main", params.Branch)
		assert.Equal(t, 0, params.AutoStopInterval)
		require.NotNil(t, params.Resources)
		assert.Equal(t, 2, params.Resources.CPU)
		assert.Equal(t, 4, params.Resources.MemoryGB)
		assert.Equal(t, 8, params.Resources.DiskGB)
		assert.Equal(t, "nextjs-development", params.Labels["type"])

		// install, build, then background start
		require.Len(t, client.execCalls, 3)
		assert.Equal(t, "npm install", client.execCalls[0].Command)
		assert.Equal(t, "npm run build", client.execCalls[1].Command)
		assert.Equal(t, "npm run dev", client.execCalls[2].Command)
		assert.True(t, client.execCalls[2].Background)

		assert.Contains(t, out.String(), "deployed to Daytona")
	})

	t.Run("BranchOverride", func(t *testing.T) {
		client := &mockClient{sandbox: &daytona.Sandbox{ID: "sb-branch"}}
		factory := &recordingFactory{clients: map[bool]daytona.Client{false: client}}
		deployer, _, _ := newTestDeployer(t, factory)

		_, err := deployer.DeployFromGit(context.Background(), "https://github.com/pria-cloud/agents.git", "release/v2")
		require.NoError(t, err)

		require.Len(t, client.createCalls, 1)
		assert.Equal(t, "release/v2", client.createCalls[0].Branch)
	})

	t.Run("InstallFailureDoesNotAbort", func(t *testing.T) {
		client := &mockClient{
			execResults: map[string]daytona.ExecResult{
				"npm install": {ExitCode: 1, Stderr: "npm ERR! ERESOLVE"},
			},
		}
		factory := &recordingFactory{clients: map[bool]daytona.Client{false: client}}
		deployer, out, _ := newTestDeployer(t, factory)

		result, err := deployer.DeployFromGit(context.Background(), "https://github.com/pria-cloud/agents.git", "")
		require.NoError(t, err)
		assert.Equal(t, 1, result.InstallExit)

		// Build and start are still attempted
		require.Len(t, client.execCalls, 3)
		assert.Equal(t, "npm run build", client.execCalls[1].Command)
		assert.Equal(t, "npm run dev", client.execCalls[2].Command)
		assert.Contains(t, out.String(), "Failed to install dependencies")
	})

	t.Run("BuildFailureDoesNotAbort", func(t *testing.T) {
		client := &mockClient{
			execResults: map[string]daytona.ExecResult{
				"npm run build": {ExitCode: 2, Stderr: "Type error: missing prop"},
			},
		}
		factory := &recordingFactory{clients: map[bool]daytona.Client{false: client}}
		deployer, out, _ := newTestDeployer(t, factory)

		result, err := deployer.DeployFromGit(context.Background(), "https://github.com/pria-cloud/agents.git", "")
		require.NoError(t, err)
		assert.Equal(t, 0, result.InstallExit)
		assert.Equal(t, 2, result.BuildExit)

		require.Len(t, client.execCalls, 3)
		assert.Equal(t, "npm run dev", client.execCalls[2].Command)
		assert.Contains(t, out.String(), "Build failed")
	})

	t.Run("CreateError", func(t *testing.T) {
		client := &mockClient{createErr: errors.New("quota exceeded")}
		factory := &recordingFactory{clients: map[bool]daytona.Client{false: client}}
		deployer, out, _ := newTestDeployer(t, factory)

		result, err := deployer.DeployFromGit(context.Background(), "https://github.com/pria-cloud/agents.git", "")
		require.Error(t, err)
		assert.Nil(t, result)
		// No retry, no steps attempted
		assert.Equal(t, []bool{false}, factory.calls)
		assert.Empty(t, client.execCalls)
		assert.Contains(t, out.String(), "Error deploying to Daytona")
	})
}

func TestDeployFromDir(t *testing.T) {
	t.Run("RepoMarkerInDir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

		client := &mockClient{sandbox: &daytona.Sandbox{ID: "sb-dir"}}
		factory := &recordingFactory{clients: map[bool]daytona.Client{false: client}}
		runner := &mockRunner{stdout: "git@github.com:pria-cloud/agents.git\n"}
		deployer, _, _ := newTestDeployer(t, factory, WithCommandRunner(runner))

		result, err := deployer.DeployFromDir(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, "sb-dir", result.SandboxID)

		require.Len(t, runner.calls, 1)
		assert.Equal(t, []string{"git", "-C", dir, "remote", "get-url", "origin"}, runner.calls[0])

		require.Len(t, client.createCalls, 1)
		assert.Equal(t, "git@github.com:pria-cloud/agents.git", client.createCalls[0].Repository)
	})

	t.Run("RepoMarkerInAncestor", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
		nested := filepath.Join(root, "a", "b", "c")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		client := &mockClient{}
		factory := &recordingFactory{clients: map[bool]daytona.Client{false: client}}
		runner := &mockRunner{stdout: "https://github.com/pria-cloud/agents.git\n"}
		deployer, _, _ := newTestDeployer(t, factory, WithCommandRunner(runner))

		_, err := deployer.DeployFromDir(context.Background(), nested)
		require.NoError(t, err)

		// The remote is read from the directory holding the marker
		require.Len(t, runner.calls, 1)
		assert.Equal(t, root, runner.calls[0][2])
	})

	t.Run("NoRepoMarkerWithinFiveLevels", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
		// Marker sits six levels above the starting directory
		nested := filepath.Join(root, "1", "2", "3", "4", "5", "6")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		factory := &recordingFactory{}
		runner := &mockRunner{}
		deployer, out, _ := newTestDeployer(t, factory, WithCommandRunner(runner))

		result, err := deployer.DeployFromDir(context.Background(), nested)
		require.Error(t, err)
		assert.Nil(t, result)

		// Failure reported without any provider call or git invocation
		assert.Empty(t, factory.calls)
		assert.Empty(t, runner.calls)
		assert.Contains(t, out.String(), "not a git repository")
	})

	t.Run("GitRemoteFails", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

		factory := &recordingFactory{}
		runner := &mockRunner{exitCode: 128, stderr: "fatal: no such remote"}
		deployer, out, _ := newTestDeployer(t, factory, WithCommandRunner(runner))

		_, err := deployer.DeployFromDir(context.Background(), dir)
		require.Error(t, err)
		assert.Empty(t, factory.calls)
		assert.Contains(t, out.String(), "Could not get git remote URL")
	})
}

func TestFindRepoRoot(t *testing.T) {
	t.Run("MarkerAtExactlyFiveLevelsUp", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
		nested := filepath.Join(root, "1", "2", "3", "4", "5")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		found, ok := findRepoRoot(nested)
		assert.True(t, ok)
		assert.Equal(t, root, found)
	})

	t.Run("NoMarkerAnywhere", func(t *testing.T) {
		_, ok := findRepoRoot(t.TempDir())
		assert.False(t, ok)
	})
}
