package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Daytona: DaytonaConfig{
			APIKey:         "dtn_test",
			APIURL:         "https://api.daytona.io",
			Target:         "us",
			HTTPTimeoutSec: 300,
		},
		Deploy: DeployConfig{
			Repository:       "https://github.com/pria-cloud/agents.git",
			AppDir:           "agents/scaffold-files",
			Branch:           "main",
			PreviewPort:      3000,
			ReadyWaitSec:     10,
			AutoStopInterval: 0,
			Resources: ResourcesConfig{
				CPU:      2,
				MemoryGB: 4,
				DiskGB:   8,
			},
			Labels: map[string]string{"project": "scaffold-app"},
		},
		Server: ServerConfig{
			Transport: "stdio",
			HTTPPort:  8080,
		},
		Logging: LoggingConfig{
			Mode:  "production",
			Level: "info",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := validConfig()
		err := cfg.validate()
		require.NoError(t, err)
	})

	t.Run("EmptyAPIURL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Daytona.APIURL = ""

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "daytona.api_url")
	})

	t.Run("InvalidHTTPTimeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Daytona.HTTPTimeoutSec = 0

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "daytona.http_timeout_sec must be positive")
	})

	t.Run("InvalidPreviewPort", func(t *testing.T) {
		cfg := validConfig()
		cfg.Deploy.PreviewPort = 70000

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deploy.preview_port")
	})

	t.Run("NegativeReadyWait", func(t *testing.T) {
		cfg := validConfig()
		cfg.Deploy.ReadyWaitSec = -1

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deploy.ready_wait_sec")
	})

	t.Run("InvalidResources", func(t *testing.T) {
		cfg := validConfig()
		cfg.Deploy.Resources.CPU = 0

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deploy.resources.cpu must be positive")

		cfg = validConfig()
		cfg.Deploy.Resources.MemoryGB = -4
		err = cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deploy.resources.memory_gb must be positive")

		cfg = validConfig()
		cfg.Deploy.Resources.DiskGB = 0
		err = cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deploy.resources.disk_gb must be positive")
	})

	t.Run("InvalidServerTransport", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Transport = "invalid"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server.transport")
	})

	t.Run("InvalidLoggingMode", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Mode = "invalid_mode"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging.mode")
	})

	t.Run("InvalidLogLevel", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "invalid_level"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging.level")
	})
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Run("EnvBindings", func(t *testing.T) {
		t.Setenv("DAYTONA_API_KEY", "dtn_from_env")
		t.Setenv("DAYTONA_API_URL", "https://daytona.example.test")
		t.Setenv("DAYTONA_TARGET", "eu")

		cfg, err := New()
		require.NoError(t, err)
		assert.Equal(t, "dtn_from_env", cfg.Daytona.APIKey)
		assert.Equal(t, "https://daytona.example.test", cfg.Daytona.APIURL)
		assert.Equal(t, "eu", cfg.Daytona.Target)
	})

	t.Run("DefaultsWithoutFile", func(t *testing.T) {
		cfg, err := New()
		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.Deploy.PreviewPort)
		assert.Equal(t, 10, cfg.Deploy.ReadyWaitSec)
		assert.Equal(t, 0, cfg.Deploy.AutoStopInterval)
		assert.Equal(t, 2, cfg.Deploy.Resources.CPU)
		assert.Equal(t, 4, cfg.Deploy.Resources.MemoryGB)
		assert.Equal(t, 8, cfg.Deploy.Resources.DiskGB)
		assert.Equal(t, "main", cfg.Deploy.Branch)
		assert.Equal(t, "stdio", cfg.Server.Transport)
	})
}

func TestConfigDurations(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "5m0s", cfg.HTTPTimeout().String())
	assert.Equal(t, "10s", cfg.ReadyWait().String())
}
