// Package daytona provides a client for the Daytona sandbox provider API.
//
// The daytona package defines the integration surface the deployment
// workflows rely on: sandbox creation (from defaults or from explicit
// git-source parameters), sandbox lookup by identifier, remote command
// execution with an optional background flag, preview-link retrieval for
// a given port, and the user root directory accessor. The APIClient
// implements this surface over the Daytona REST API.
package daytona

import (
	"context"
)

// Sandbox is the provider-side record for a sandbox. This toolkit only
// holds the identifier; connection state is owned entirely by Daytona.
type Sandbox struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Target string `json:"target"`
}

// Resources requests sandbox sizing. Values are provider-accepted units:
// CPU cores, memory in GB, disk in GB.
type Resources struct {
	CPU      int `json:"cpu"`
	MemoryGB int `json:"memory"`
	DiskGB   int `json:"disk"`
}

// CreateParams holds the parameters for sandbox creation. When Repository
// is empty the provider creates a sandbox from its defaults; when set, the
// sandbox is created directly from the git source.
type CreateParams struct {
	Repository       string            `json:"repository,omitempty"`
	Branch           string            `json:"branch,omitempty"`
	Target           string            `json:"target,omitempty"`
	AutoStopInterval int               `json:"autoStopInterval"`
	Resources        *Resources        `json:"resources,omitempty"`
	Labels           map[string]string `json:"labels,omitempty"`
}

// ExecRequest is the request body for running a shell command inside a
// sandbox. Background commands return immediately; their output is not
// collected.
type ExecRequest struct {
	Command    string `json:"cmd"`
	Cwd        string `json:"cwd,omitempty"`
	Background bool   `json:"runAsync,omitempty"`
	TimeoutSec int    `json:"timeout,omitempty"`
}

// ExecResult is the result of a completed command execution.
type ExecResult struct {
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// PreviewLink is a provider-issued URL plus bearer token granting access
// to a port exposed inside a sandbox.
type PreviewLink struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// Client defines the interface to the sandbox provider
type Client interface {
	// CreateSandbox provisions a new sandbox and returns its record.
	CreateSandbox(ctx context.Context, params CreateParams) (*Sandbox, error)

	// GetSandbox resolves an existing sandbox by identifier.
	GetSandbox(ctx context.Context, id string) (*Sandbox, error)

	// ExecCommand runs a shell command inside the sandbox and returns its
	// exit code and captured output. With Background set, the call returns
	// without waiting for the command to finish.
	ExecCommand(ctx context.Context, sandboxID string, req ExecRequest) (ExecResult, error)

	// PreviewLink returns the preview URL and access token for a port.
	PreviewLink(ctx context.Context, sandboxID string, port int) (PreviewLink, error)

	// UserRootDir returns the sandbox user's root directory path.
	UserRootDir(ctx context.Context, sandboxID string) (string, error)
}

// Factory constructs a provider client. The insecure flag disables TLS
// certificate verification, used as the one-shot fallback when sandbox
// creation fails behind a self-signed certificate.
type Factory func(insecure bool) (Client, error)
