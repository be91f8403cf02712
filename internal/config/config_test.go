// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/torrentdash/internal/domain"
)

func TestConfigDirResolution(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		setupFile      bool
		fileIsDir      bool
		expectedSuffix string
	}{
		{
			name:           "toml_file_extension",
			input:          "/path/to/custom.toml",
			expectedSuffix: "custom.toml",
		},
		{
			name:           "TOML_file_extension_uppercase",
			input:          "/path/to/CONFIG.TOML",
			expectedSuffix: "CONFIG.TOML",
		},
		{
			name:           "directory_path",
			input:          "/path/to/config",
			expectedSuffix: "config.toml",
		},
		{
			name:           "existing_file_without_toml",
			input:          "/path/to/configfile",
			setupFile:      true,
			fileIsDir:      false,
			expectedSuffix: "configfile",
		},
		{
			name:           "existing_directory",
			input:          "/path/to/configdir",
			setupFile:      true,
			fileIsDir:      true,
			expectedSuffix: "config.toml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			inputPath := filepath.Join(tmpDir, filepath.Base(tt.input))

			if tt.setupFile {
				if tt.fileIsDir {
					require.NoError(t, os.MkdirAll(inputPath, 0o755))
				} else {
					require.NoError(t, os.WriteFile(inputPath, []byte("test"), 0o644))
				}
			}

			c := &AppConfig{}
			result := c.resolveConfigPath(inputPath)
			assert.True(t, strings.HasSuffix(result, tt.expectedSuffix),
				"Expected result %s to end with %s", result, tt.expectedSuffix)
		})
	}
}

func TestNewLoadsConfigFromFileOrDirectory(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, tmpDir string) (inputPath string, expectedHost string, expectedPort int)
	}{
		{
			name: "config_file_path",
			prepare: func(t *testing.T, tmpDir string) (string, string, int) {
				configPath := filepath.Join(tmpDir, "myconfig.toml")
				content := "host = \"localhost\"\nport = 8080\n"
				require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
				return configPath, "localhost", 8080
			},
		},
		{
			name: "config_directory_path",
			prepare: func(t *testing.T, tmpDir string) (string, string, int) {
				configDir := filepath.Join(tmpDir, "configdir")
				require.NoError(t, os.MkdirAll(configDir, 0o755))
				content := "host = \"seedbox.lan\"\nport = 9090\n"
				require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))
				return configDir, "seedbox.lan", 9090
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			inputPath, expectedHost, expectedPort := tt.prepare(t, tmpDir)

			cfg, err := New(inputPath)
			require.NoError(t, err)

			assert.Equal(t, expectedHost, cfg.Config.Host)
			assert.Equal(t, expectedPort, cfg.Config.Port)
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("host = \"localhost\"\n"), 0o644))

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Config.Port)
	assert.Equal(t, "/ws", cfg.Config.Path)
	assert.True(t, cfg.Config.IsTorrentView())
	assert.Equal(t, time.Second, cfg.Config.PollInterval())
	assert.Equal(t, 5*time.Second, cfg.Config.AlertLifetime())
	assert.Equal(t, 60, cfg.Config.GraphWindowSize)
	assert.Equal(t, 240, cfg.Config.GraphQueueSize)
	assert.Equal(t, uint(10), cfg.Config.ReconnectAttempts)
}

func TestNewCreatesMissingConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := New(configPath)
	require.NoError(t, err)

	_, err = os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Config.Host)
	assert.Equal(t, filepath.Dir(configPath), cfg.GetConfigDir())
}

func TestEnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("host = \"localhost\"\nupdateInterval = 1000\n"), 0o644))

	t.Setenv(envPrefix+"HOST", "10.0.0.2")
	t.Setenv(envPrefix+"UPDATE_INTERVAL", "250")

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2", cfg.Config.Host)
	assert.Equal(t, 250*time.Millisecond, cfg.Config.PollInterval())
}

func TestBuildEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		port   int
		path   string
		secure bool
		want   string
	}{
		{name: "default_path", host: "localhost", port: 5000, path: "", want: "ws://localhost:5000/ws"},
		{name: "custom_path_without_slash", host: "seedbox", port: 80, path: "socket", want: "ws://seedbox:80/socket"},
		{name: "secure", host: "example.com", port: 443, path: "/ws", secure: true, want: "wss://example.com:443/ws"},
		{name: "ipv6", host: "::1", port: 5000, path: "/ws", want: "ws://[::1]:5000/ws"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildEndpoint(tt.host, tt.port, tt.path, tt.secure))
		})
	}
}

func TestWriteDefaultConfigDoesNotOverwrite(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("port = 1234\n"), 0o644))

	require.NoError(t, WriteDefaultConfig(configPath))

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "port = 1234\n", string(content))
}

func TestIsDevBuild(t *testing.T) {
	assert.True(t, isDevBuild(""))
	assert.True(t, isDevBuild("dev"))
	assert.True(t, isDevBuild("v1.2.0-dev"))
	assert.False(t, isDevBuild("v1.2.0"))
}

func TestOverridesSurviveReload(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("host = \"localhost\"\nview = \"torrents\"\n"), 0o644))

	cfg, err := New(configPath)
	require.NoError(t, err)

	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	logPath := filepath.Join(dir, "logs", "torrentdash.log")
	require.NoError(t, cfg.Override("logPath", logPath))
	require.NoError(t, cfg.Override("view", "settings"))
	cfg.ApplyLogConfig(io.Discard)

	var reloaded *domain.Config
	cfg.RegisterReloadListener(func(c *domain.Config) { reloaded = c })

	require.NoError(t, os.WriteFile(configPath, []byte("host = \"seedbox\"\nview = \"torrents\"\nupdateInterval = 500\n"), 0o644))
	require.NoError(t, cfg.viper.ReadInConfig())
	require.NoError(t, cfg.reload())

	require.NotNil(t, reloaded)
	assert.Equal(t, "seedbox", reloaded.Host)
	assert.Equal(t, 500*time.Millisecond, reloaded.PollInterval())
	assert.Equal(t, logPath, reloaded.LogPath, "flag override kept")
	assert.Equal(t, "settings", reloaded.View, "flag override kept")
	assert.Equal(t, io.Discard, cfg.console, "reload keeps the console writer")
}
