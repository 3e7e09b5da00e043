// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files and environment variables. It supports
// configuration for Daytona API credentials and endpoints, deployment
// parameters for the scaffold application, MCP server settings, and
// logging.
//
// The DAYTONA_API_KEY, DAYTONA_API_URL, DAYTONA_TARGET and
// DAYTONA_ORGANIZATION_ID environment variables override their config
// file counterparts. The API key is deliberately never given a default:
// it must come from the environment, the config file, or the command
// line.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("API endpoint: %s\n", cfg.Daytona.APIURL)
package config
