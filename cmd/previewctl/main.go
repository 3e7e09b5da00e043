package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pria-cloud/previewctl/config"
	"github.com/pria-cloud/previewctl/daytona"
	"github.com/pria-cloud/previewctl/deploy"
	"github.com/pria-cloud/previewctl/logger"
	"github.com/pria-cloud/previewctl/mcpserver"
)

func main() {
	root := &cobra.Command{
		Use:           "previewctl",
		Short:         "Provision Daytona sandboxes running the scaffold application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(createCmd())
	root.AddCommand(previewCmd())
	root.AddCommand(deployCmd())
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// clientFactory builds Daytona clients from the loaded configuration. The
// insecure flag is only raised by the create workflow's scripted fallback.
func clientFactory(cfg *config.Config, log *zap.Logger) daytona.Factory {
	return func(insecure bool) (daytona.Client, error) {
		clientCfg := &daytona.Config{
			APIKey:         cfg.Daytona.APIKey,
			APIURL:         cfg.Daytona.APIURL,
			Target:         cfg.Daytona.Target,
			OrganizationID: cfg.Daytona.OrganizationID,
			Timeout:        cfg.HTTPTimeout(),
		}
		if insecure {
			return daytona.NewClient(log, clientCfg, daytona.WithInsecureTLS())
		}
		return daytona.NewClient(log, clientCfg)
	}
}

// newDeployer loads configuration and wires up a Deployer. An API key
// given on the command line overrides the environment and config file;
// with no key from any source the command fails before any provider call.
func newDeployer(apiKeyArg string) (*deploy.Deployer, *zap.Logger, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}
	if apiKeyArg != "" {
		cfg.Daytona.APIKey = apiKeyArg
	}
	if cfg.Daytona.APIKey == "" {
		return nil, nil, fmt.Errorf("DAYTONA_API_KEY environment variable or command line argument required")
	}

	log, err := logger.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	return deploy.New(cfg, log, clientFactory(cfg, log)), log, nil
}

// writeResult emits the flat result record in the requested format. Text
// output is already produced by the workflow itself.
func writeResult(w io.Writer, format string, record any) error {
	switch format {
	case "text":
		return nil
	case "yaml":
		data, err := yaml.Marshal(record)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s, must be 'text' or 'yaml'", format)
	}
}

func createCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "create [api-key]",
		Short: "Create a sandbox with the scaffold app running and print its preview link",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey := ""
			if len(args) > 0 {
				apiKey = args[0]
			}

			deployer, log, err := newDeployer(apiKey)
			if err != nil {
				return err
			}
			defer log.Sync()

			result, err := deployer.CreateAndPreview(cmd.Context())
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), output, result)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "result record format (text|yaml)")
	return cmd
}

func previewCmd() *cobra.Command {
	var output string
	var port int

	cmd := &cobra.Command{
		Use:   "preview <sandbox-id>",
		Short: "Fetch the preview link of an existing sandbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deployer, log, err := newDeployer("")
			if err != nil {
				return err
			}
			defer log.Sync()

			result, err := deployer.FetchPreview(cmd.Context(), args[0], port)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), output, result)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "result record format (text|yaml)")
	cmd.Flags().IntVar(&port, "port", 0, "sandbox port to expose (defaults to the configured preview port)")
	return cmd
}

func deployCmd() *cobra.Command {
	var apiKey string
	var branch string
	var output string

	cmd := &cobra.Command{
		Use:   "deploy [repo-url]",
		Short: "Create a sandbox directly from a git repository and start its dev server",
		Long: "Create a sandbox directly from a git repository with resource sizing and labels,\n" +
			"then install, build and start the application inside it. With no repository URL,\n" +
			"the current directory's git remote is used.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deployer, log, err := newDeployer(apiKey)
			if err != nil {
				return err
			}
			defer log.Sync()

			var result *deploy.DeployResult
			if len(args) > 0 {
				result, err = deployer.DeployFromGit(cmd.Context(), args[0], branch)
			} else {
				wd, wdErr := os.Getwd()
				if wdErr != nil {
					return wdErr
				}
				result, err = deployer.DeployFromDir(cmd.Context(), wd)
			}
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), output, result)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Daytona API key (defaults to DAYTONA_API_KEY)")
	cmd.Flags().StringVar(&branch, "branch", "", "branch to deploy (defaults to the configured branch)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "result record format (text|yaml)")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server exposing the provisioning tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				// Provide dependencies
				fx.Provide(
					// Config
					config.New,

					// Logger with configuration
					logger.NewFromConfig,

					// Daytona client factory
					clientFactory,

					// Provisioning workflows behind the server's interface
					func(cfg *config.Config, log *zap.Logger, factory daytona.Factory) mcpserver.Service {
						return deploy.New(cfg, log, factory)
					},

					// MCP Server
					mcpserver.New,
				),

				// Start the appropriate transport based on config
				fx.Invoke(
					func(cfg *config.Config, server *mcpserver.MCPServer) {
						switch cfg.Server.Transport {
						case "stdio":
							go func() {
								if err := server.ServeStdio(); err != nil {
									panic(err)
								}
							}()
						case "http":
							go func() {
								if err := server.ServeHTTP(); err != nil {
									panic(err)
								}
							}()
						default:
							panic("unsupported transport: " + cfg.Server.Transport)
						}
					},
				),

				// Use the application logger for fx logs
				fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: log}
				}),
			)

			// Run until shutdown
			app.Run()
			return nil
		},
	}
}
