// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes the sandbox provisioning workflows as MCP
// tools so that agents can create preview sandboxes, look up preview links
// and deploy git repositories through the protocol. It uses the
// mark3labs/mcp-go library to handle the protocol details over stdio or
// streamable HTTP transports.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/pria-cloud/previewctl/config"
	"github.com/pria-cloud/previewctl/deploy"
)

// Service is the slice of the deploy package the server depends on
type Service interface {
	CreateAndPreview(ctx context.Context) (*deploy.PreviewResult, error)
	FetchPreview(ctx context.Context, sandboxID string, port int) (*deploy.PreviewResult, error)
	DeployFromGit(ctx context.Context, repoURL, branch string) (*deploy.DeployResult, error)
}

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	service   Service
	mcpServer *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, service Service) (*MCPServer, error) {
	s := &MCPServer{
		config:  cfg,
		logger:  logger,
		service: service,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", s.config.Server.Transport),
		zap.Int("server.http_port", s.config.Server.HTTPPort),
		zap.String("daytona.api_url", s.config.Daytona.APIURL),
		zap.String("daytona.target", s.config.Daytona.Target),
		zap.String("deploy.repository", s.config.Deploy.Repository),
		zap.String("deploy.branch", s.config.Deploy.Branch),
		zap.Int("deploy.preview_port", s.config.Deploy.PreviewPort),
		zap.Int("deploy.ready_wait_sec", s.config.Deploy.ReadyWaitSec),
	)

	// Create the MCP server
	s.mcpServer = server.NewMCPServer("previewctl", "A Daytona sandbox provisioning server")

	// Register the provisioning tools
	s.registerCreatePreviewSandboxTool()
	s.registerGetPreviewLinkTool()
	s.registerDeployFromGitTool()

	return s, nil
}

// registerCreatePreviewSandboxTool registers the create_preview_sandbox tool
func (s *MCPServer) registerCreatePreviewSandboxTool() {
	tool := mcp.Tool{
		Name:        "create_preview_sandbox",
		Description: "Create a Daytona sandbox with the scaffold application running and return its preview link",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}

	s.mcpServer.AddTool(tool, s.handleCreatePreviewSandbox)
}

// registerGetPreviewLinkTool registers the get_preview_link tool
func (s *MCPServer) registerGetPreviewLinkTool() {
	tool := mcp.Tool{
		Name:        "get_preview_link",
		Description: "Fetch the preview URL and access token of an existing Daytona sandbox",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"sandbox_id": map[string]any{
					"type":        "string",
					"description": "Identifier of the sandbox to resolve",
				},
				"port": map[string]any{
					"type":        "integer",
					"description": "Sandbox port to expose (defaults to the configured preview port)",
				},
			},
			Required: []string{"sandbox_id"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleGetPreviewLink)
}

// registerDeployFromGitTool registers the deploy_from_git tool
func (s *MCPServer) registerDeployFromGitTool() {
	tool := mcp.Tool{
		Name:        "deploy_from_git",
		Description: "Create a Daytona sandbox directly from a git repository and start its dev server",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"repository": map[string]any{
					"type":        "string",
					"description": "Git repository URL to deploy",
				},
				"branch": map[string]any{
					"type":        "string",
					"description": "Branch to deploy (defaults to the configured branch)",
				},
			},
			Required: []string{"repository"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleDeployFromGit)
}

// handleCreatePreviewSandbox handles the create_preview_sandbox tool
func (s *MCPServer) handleCreatePreviewSandbox(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.Info("preview sandbox creation requested")

	result, err := s.service.CreateAndPreview(ctx)
	if err != nil {
		s.logger.Error("preview sandbox creation failed", zap.Error(err))
		return toolError(fmt.Sprintf("Sandbox creation failed: %v", err)), nil
	}

	s.logger.Info("preview sandbox created",
		zap.String("sandbox_id", result.SandboxID),
		zap.String("url", result.URL))

	return toolJSON(previewPayload{
		SandboxID: result.SandboxID,
		URL:       result.URL,
		Token:     result.Token,
	}), nil
}

// handleGetPreviewLink handles the get_preview_link tool
func (s *MCPServer) handleGetPreviewLink(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sandboxID, err := request.RequireString("sandbox_id")
	if err != nil {
		return nil, fmt.Errorf("sandbox_id parameter is required: %w", err)
	}
	port := request.GetInt("port", 0)

	s.logger.Info("preview link requested",
		zap.String("sandbox_id", sandboxID),
		zap.Int("port", port))

	result, err := s.service.FetchPreview(ctx, sandboxID, port)
	if err != nil {
		s.logger.Error("preview link lookup failed",
			zap.Error(err),
			zap.String("sandbox_id", sandboxID))
		return toolError(fmt.Sprintf("Preview lookup failed: %v", err)), nil
	}

	return toolJSON(previewPayload{
		SandboxID: result.SandboxID,
		URL:       result.URL,
		Token:     result.Token,
	}), nil
}

// handleDeployFromGit handles the deploy_from_git tool
func (s *MCPServer) handleDeployFromGit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository, err := request.RequireString("repository")
	if err != nil {
		return nil, fmt.Errorf("repository parameter is required: %w", err)
	}
	branch := request.GetString("branch", "")

	s.logger.Info("git deployment requested",
		zap.String("repository", repository),
		zap.String("branch", branch))

	result, err := s.service.DeployFromGit(ctx, repository, branch)
	if err != nil {
		s.logger.Error("git deployment failed",
			zap.Error(err),
			zap.String("repository", repository))
		return toolError(fmt.Sprintf("Deployment failed: %v", err)), nil
	}

	s.logger.Info("git deployment completed",
		zap.String("sandbox_id", result.SandboxID),
		zap.Int("install_exit", result.InstallExit),
		zap.Int("build_exit", result.BuildExit))

	return toolJSON(deployPayload{
		SandboxID:   result.SandboxID,
		InstallExit: result.InstallExit,
		BuildExit:   result.BuildExit,
	}), nil
}

type previewPayload struct {
	SandboxID string `json:"sandbox_id"`
	URL       string `json:"url"`
	Token     string `json:"token"`
}

type deployPayload struct {
	SandboxID   string `json:"sandbox_id"`
	InstallExit int    `json:"install_exit"`
	BuildExit   int    `json:"build_exit"`
}

func toolJSON(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("encoding result: %v", err))
	}
	return toolResult(string(data))
}

func toolResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
		IsError: true,
	}
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
