package deploy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/pria-cloud/previewctl/config"
	"github.com/pria-cloud/previewctl/daytona"
)

// CommandRunner defines an interface for executing local system commands
type CommandRunner interface {
	RunCommand(ctx context.Context, args []string) (stdout, stderr string, exitCode int, err error)
}

// RealCommandRunner implements CommandRunner using actual exec commands
type RealCommandRunner struct{}

// RunCommand executes the given command with arguments
func (RealCommandRunner) RunCommand(ctx context.Context, args []string) (stdout, stderr string, exitCode int, err error) {
	if len(args) < 1 {
		return "", "", 0, fmt.Errorf("no command provided")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // Safe as this is controlled input

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()

	exitCode = 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		} else {
			return "", "", 0, err
		}
	}

	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// Console styling for status output
var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// PreviewResult is the flat record returned by the preview workflows
type PreviewResult struct {
	SandboxID string `yaml:"sandbox_id"`
	URL       string `yaml:"url"`
	Token     string `yaml:"token"`
}

// DeployResult is the flat record returned by the git deployment workflow
type DeployResult struct {
	SandboxID   string `yaml:"sandbox_id"`
	InstallExit int    `yaml:"install_exit"`
	BuildExit   int    `yaml:"build_exit"`
}

// Deployer runs the provisioning workflows against the sandbox provider
type Deployer struct {
	cfg     *config.Config
	logger  *zap.Logger
	factory daytona.Factory
	out     io.Writer
	runner  CommandRunner
	sleep   func(time.Duration)
}

// Option defines a functional option for Deployer
type Option func(*Deployer)

// WithOutput sets the writer for human-readable status output
func WithOutput(w io.Writer) Option {
	return func(d *Deployer) {
		d.out = w
	}
}

// WithCommandRunner sets the CommandRunner used for local git invocations
func WithCommandRunner(runner CommandRunner) Option {
	return func(d *Deployer) {
		d.runner = runner
	}
}

// WithSleep replaces the readiness delay implementation
func WithSleep(sleep func(time.Duration)) Option {
	return func(d *Deployer) {
		d.sleep = sleep
	}
}

// New creates a Deployer with default implementations and optional overrides
func New(cfg *config.Config, logger *zap.Logger, factory daytona.Factory, opts ...Option) *Deployer {
	deployer := &Deployer{
		cfg:     cfg,
		logger:  logger,
		factory: factory,
		out:     os.Stdout,
		runner:  &RealCommandRunner{},
		sleep:   time.Sleep,
	}

	// Apply options
	for _, opt := range opts {
		opt(deployer)
	}

	return deployer
}

func (d *Deployer) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format+"\n", args...)
}

func (d *Deployer) statusf(format string, args ...any) {
	d.printf("%s", blue(fmt.Sprintf(format, args...)))
}

func (d *Deployer) successf(format string, args ...any) {
	d.printf("%s", green("✅ "+fmt.Sprintf(format, args...)))
}

func (d *Deployer) warnf(format string, args ...any) {
	d.printf("%s", yellow("⚠️ "+fmt.Sprintf(format, args...)))
}

func (d *Deployer) failf(format string, args ...any) {
	d.printf("%s", red("❌ "+fmt.Sprintf(format, args...)))
}
