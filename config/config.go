package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Daytona DaytonaConfig `mapstructure:"daytona"`
	Deploy  DeployConfig  `mapstructure:"deploy"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DaytonaConfig holds credentials and endpoint settings for the Daytona API
type DaytonaConfig struct {
	APIKey         string `mapstructure:"api_key"`
	APIURL         string `mapstructure:"api_url"`
	Target         string `mapstructure:"target"`
	OrganizationID string `mapstructure:"organization_id"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec"`
}

// DeployConfig holds the deployment parameters for the scaffold application
type DeployConfig struct {
	Repository       string            `mapstructure:"repository"`
	AppDir           string            `mapstructure:"app_dir"`
	Branch           string            `mapstructure:"branch"`
	PreviewPort      int               `mapstructure:"preview_port"`
	ReadyWaitSec     int               `mapstructure:"ready_wait_sec"`
	AutoStopInterval int               `mapstructure:"auto_stop_interval"`
	Resources        ResourcesConfig   `mapstructure:"resources"`
	Labels           map[string]string `mapstructure:"labels"`
}

// ResourcesConfig holds sandbox sizing for git deployments
type ResourcesConfig struct {
	CPU      int `mapstructure:"cpu"`
	MemoryGB int `mapstructure:"memory_gb"`
	DiskGB   int `mapstructure:"disk_gb"`
}

// ServerConfig holds MCP server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// The environment variables understood by the official Daytona SDKs
	// take precedence over the config file.
	_ = viper.BindEnv("daytona.api_key", "DAYTONA_API_KEY")
	_ = viper.BindEnv("daytona.api_url", "DAYTONA_API_URL")
	_ = viper.BindEnv("daytona.target", "DAYTONA_TARGET")
	_ = viper.BindEnv("daytona.organization_id", "DAYTONA_ORGANIZATION_ID")

	// Set default values
	viper.SetDefault("daytona.api_url", "https://api.daytona.io")
	viper.SetDefault("daytona.target", "us")
	viper.SetDefault("daytona.http_timeout_sec", 300)

	viper.SetDefault("deploy.repository", "https://github.com/pria-cloud/agents.git")
	viper.SetDefault("deploy.app_dir", "agents/scaffold-files")
	viper.SetDefault("deploy.branch", "main")
	viper.SetDefault("deploy.preview_port", 3000)
	viper.SetDefault("deploy.ready_wait_sec", 10)
	viper.SetDefault("deploy.auto_stop_interval", 0)
	viper.SetDefault("deploy.resources.cpu", 2)
	viper.SetDefault("deploy.resources.memory_gb", 4)
	viper.SetDefault("deploy.resources.disk_gb", 8)
	viper.SetDefault("deploy.labels", map[string]string{
		"project":     "scaffold-app",
		"type":        "nextjs-development",
		"api-enabled": "true",
	})

	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.http_port", 8080)

	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Daytona.APIURL == "" {
		return fmt.Errorf("daytona.api_url must not be empty")
	}

	if c.Daytona.HTTPTimeoutSec <= 0 {
		return fmt.Errorf("daytona.http_timeout_sec must be positive, got: %d", c.Daytona.HTTPTimeoutSec)
	}

	if c.Deploy.PreviewPort <= 0 || c.Deploy.PreviewPort > 65535 {
		return fmt.Errorf("deploy.preview_port must be a valid port, got: %d", c.Deploy.PreviewPort)
	}

	if c.Deploy.ReadyWaitSec < 0 {
		return fmt.Errorf("deploy.ready_wait_sec must not be negative, got: %d", c.Deploy.ReadyWaitSec)
	}

	if c.Deploy.AutoStopInterval < 0 {
		return fmt.Errorf("deploy.auto_stop_interval must not be negative, got: %d", c.Deploy.AutoStopInterval)
	}

	if c.Deploy.Resources.CPU <= 0 {
		return fmt.Errorf("deploy.resources.cpu must be positive, got: %d", c.Deploy.Resources.CPU)
	}

	if c.Deploy.Resources.MemoryGB <= 0 {
		return fmt.Errorf("deploy.resources.memory_gb must be positive, got: %d", c.Deploy.Resources.MemoryGB)
	}

	if c.Deploy.Resources.DiskGB <= 0 {
		return fmt.Errorf("deploy.resources.disk_gb must be positive, got: %d", c.Deploy.Resources.DiskGB)
	}

	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
		"dpanic": true, "panic": true, "fatal": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	return nil
}

// HTTPTimeout returns the Daytona API request timeout as a duration
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Daytona.HTTPTimeoutSec) * time.Second
}

// ReadyWait returns the fixed delay granted to the dev server before the
// preview link is requested
func (c *Config) ReadyWait() time.Duration {
	return time.Duration(c.Deploy.ReadyWaitSec) * time.Second
}
