package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pria-cloud/previewctl/daytona"
)

// maxRepoSearchDepth bounds how many parent directories are inspected
// when discovering a local git repository.
const maxRepoSearchDepth = 5

// DeployFromGit creates a sandbox directly from a git source with the
// configured resource sizing and labels, then runs install, build and a
// background start command inside it. An empty branch falls back to the
// configured branch.
//
// A non-zero exit code from the install or build step is reported as a
// failure but does not abort the remaining steps.
func (d *Deployer) DeployFromGit(ctx context.Context, repoURL, branch string) (*DeployResult, error) {
	client, err := d.factory(false)
	if err != nil {
		return nil, err
	}

	if branch == "" {
		branch = d.cfg.Deploy.Branch
	}

	d.printf("🚀 Creating Daytona sandbox for scaffold application...")
	params := daytona.CreateParams{
		Repository:       repoURL,
		Branch:           branch,
		AutoStopInterval: d.cfg.Deploy.AutoStopInterval,
		Resources: &daytona.Resources{
			CPU:      d.cfg.Deploy.Resources.CPU,
			MemoryGB: d.cfg.Deploy.Resources.MemoryGB,
			DiskGB:   d.cfg.Deploy.Resources.DiskGB,
		},
		Labels: d.cfg.Deploy.Labels,
	}

	sandbox, err := client.CreateSandbox(ctx, params)
	if err != nil {
		d.failf("Error deploying to Daytona: %v", err)
		return nil, err
	}
	d.successf("Sandbox created successfully!")
	d.printf("📋 Sandbox ID: %s", sandbox.ID)

	rootDir, err := client.UserRootDir(ctx, sandbox.ID)
	if err != nil {
		d.warnf("Could not resolve root directory: %v", err)
		rootDir = ""
	} else {
		d.printf("📁 Root directory: %s", rootDir)
	}

	result := &DeployResult{SandboxID: sandbox.ID}

	d.printf("🔧 Installing dependencies...")
	install, err := client.ExecCommand(ctx, sandbox.ID, daytona.ExecRequest{
		Command: "npm install",
		Cwd:     rootDir,
	})
	if err != nil {
		return nil, fmt.Errorf("installing dependencies: %w", err)
	}
	result.InstallExit = install.ExitCode
	if install.ExitCode == 0 {
		d.successf("Dependencies installed successfully")
	} else {
		d.failf("Failed to install dependencies: %s", install.Stderr)
	}

	d.printf("🏗️ Building application...")
	build, err := client.ExecCommand(ctx, sandbox.ID, daytona.ExecRequest{
		Command: "npm run build",
		Cwd:     rootDir,
	})
	if err != nil {
		return nil, fmt.Errorf("building application: %w", err)
	}
	result.BuildExit = build.ExitCode
	if build.ExitCode == 0 {
		d.successf("Application built successfully")
	} else {
		// Keep going: the dev server may still run from source
		d.failf("Build failed: %s", build.Stderr)
	}

	d.printf("🚀 Starting development server...")
	if _, err := client.ExecCommand(ctx, sandbox.ID, daytona.ExecRequest{
		Command:    "npm run dev",
		Cwd:        rootDir,
		Background: true,
	}); err != nil {
		return nil, fmt.Errorf("starting dev server: %w", err)
	}

	d.printf("")
	d.printf("%s", green("🎉 Scaffold application deployed to Daytona!"))
	d.printf("🔗 Access your application through Daytona's preview URL")
	d.printf("🛠️ Sandbox ID: %s", sandbox.ID)

	d.logger.Info("git deployment finished",
		zap.String("sandbox_id", sandbox.ID),
		zap.String("repository", repoURL),
		zap.Int("install_exit", result.InstallExit),
		zap.Int("build_exit", result.BuildExit))

	return result, nil
}

// DeployFromDir discovers the git repository covering dir and deploys
// from its origin remote. The search walks up to five parent directories
// looking for a .git marker; when none is found, no provider call is made.
func (d *Deployer) DeployFromDir(ctx context.Context, dir string) (*DeployResult, error) {
	repoRoot, ok := findRepoRoot(dir)
	if !ok {
		d.failf("Current directory is not a git repository")
		d.printf("💡 Please run this from your scaffold repository root, or provide a git URL")
		return nil, fmt.Errorf("no git repository found within %d parent directories of %s", maxRepoSearchDepth, dir)
	}

	stdout, _, exitCode, err := d.runner.RunCommand(ctx, []string{"git", "-C", repoRoot, "remote", "get-url", "origin"})
	if err != nil {
		d.failf("Error getting git remote: %v", err)
		return nil, fmt.Errorf("reading git remote: %w", err)
	}
	if exitCode != 0 {
		d.failf("Could not get git remote URL")
		return nil, fmt.Errorf("git remote get-url exited with code %d", exitCode)
	}

	repoURL := strings.TrimSpace(stdout)
	d.statusf("📁 Detected repository: %s", repoURL)
	return d.DeployFromGit(ctx, repoURL, "")
}

// findRepoRoot returns the closest ancestor of dir (including dir itself,
// up to maxRepoSearchDepth levels up) containing a .git marker.
func findRepoRoot(dir string) (string, bool) {
	current := dir
	for i := 0; i <= maxRepoSearchDepth; i++ {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return "", false
}
