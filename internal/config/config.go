// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/autobrr/torrentdash/internal/domain"
)

var envPrefix = "TORRENTDASH__"

type AppConfig struct {
	Config  *domain.Config
	viper   *viper.Viper
	version string

	// console is the log writer passed to the last ApplyLogConfig, reused on reload.
	console io.Writer

	listenersMu sync.RWMutex
	listeners   []func(*domain.Config)
}

func New(configDirOrPath string, versions ...string) (*AppConfig, error) {
	version := "dev"
	if len(versions) > 0 && strings.TrimSpace(versions[0]) != "" {
		version = versions[0]
	}

	c := &AppConfig{
		viper:   viper.New(),
		Config:  &domain.Config{},
		version: version,
	}

	c.defaults()

	if err := c.load(configDirOrPath); err != nil {
		return nil, err
	}

	c.loadFromEnv()

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.Config.Version = c.version

	c.watchConfig()

	return c, nil
}

func (c *AppConfig) defaults() {
	c.viper.SetDefault("host", "localhost")
	c.viper.SetDefault("port", 5000)
	c.viper.SetDefault("path", "/ws")
	c.viper.SetDefault("tls", false)
	c.viper.SetDefault("view", domain.ViewTorrents)
	c.viper.SetDefault("updateInterval", 1000)
	c.viper.SetDefault("graphWindowSize", 60)
	c.viper.SetDefault("graphQueueSize", 240)
	c.viper.SetDefault("alertTTL", 5)
	c.viper.SetDefault("reconnectAttempts", 10)
	c.viper.SetDefault("reconnectDelay", 1000)
	c.viper.SetDefault("rowFilter", "")
	c.viper.SetDefault("logLevel", "INFO")
	c.viper.SetDefault("logPath", "")
	c.viper.SetDefault("logMaxSize", 50)
	c.viper.SetDefault("logMaxBackups", 3)
	c.viper.SetDefault("metricsEnabled", false)
	c.viper.SetDefault("metricsHost", "127.0.0.1")
	c.viper.SetDefault("metricsPort", 9075)
}

func (c *AppConfig) load(configDirOrPath string) error {
	c.viper.SetConfigType("toml")

	if configDirOrPath != "" {
		configPath := c.resolveConfigPath(configDirOrPath)
		c.viper.SetConfigFile(configPath)

		if err := c.viper.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
				if err := c.writeDefaultConfig(configPath); err != nil {
					return err
				}
				if err := c.viper.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read newly created config: %w", err)
				}
				return nil
			}
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	c.viper.SetConfigName("config")
	c.viper.AddConfigPath(".")
	c.viper.AddConfigPath(GetDefaultConfigDir())

	if err := c.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultConfigPath := filepath.Join(GetDefaultConfigDir(), "config.toml")
			if err := c.writeDefaultConfig(defaultConfigPath); err != nil {
				return err
			}
			c.viper.SetConfigFile(defaultConfigPath)
			if err := c.viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read newly created config: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	return nil
}

func (c *AppConfig) loadFromEnv() {
	// Explicit binds only, AutomaticEnv picks up unrelated variables.
	c.viper.BindEnv("host", envPrefix+"HOST")
	c.viper.BindEnv("port", envPrefix+"PORT")
	c.viper.BindEnv("path", envPrefix+"PATH")
	c.viper.BindEnv("tls", envPrefix+"TLS")
	c.viper.BindEnv("view", envPrefix+"VIEW")
	c.viper.BindEnv("updateInterval", envPrefix+"UPDATE_INTERVAL")
	c.viper.BindEnv("alertTTL", envPrefix+"ALERT_TTL")
	c.viper.BindEnv("reconnectAttempts", envPrefix+"RECONNECT_ATTEMPTS")
	c.viper.BindEnv("reconnectDelay", envPrefix+"RECONNECT_DELAY")
	c.viper.BindEnv("rowFilter", envPrefix+"ROW_FILTER")
	c.viper.BindEnv("logLevel", envPrefix+"LOG_LEVEL")
	c.viper.BindEnv("logPath", envPrefix+"LOG_PATH")
	c.viper.BindEnv("logMaxSize", envPrefix+"LOG_MAX_SIZE")
	c.viper.BindEnv("logMaxBackups", envPrefix+"LOG_MAX_BACKUPS")
	c.viper.BindEnv("metricsEnabled", envPrefix+"METRICS_ENABLED")
	c.viper.BindEnv("metricsHost", envPrefix+"METRICS_HOST")
	c.viper.BindEnv("metricsPort", envPrefix+"METRICS_PORT")
}

func (c *AppConfig) watchConfig() {
	if c.viper.ConfigFileUsed() == "" {
		return
	}
	c.viper.WatchConfig()
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Msgf("Config file changed: %s", e.Name)

		if err := c.reload(); err != nil {
			log.Error().Err(err).Msg("Failed to reload configuration")
		}
	})
}

// reload unmarshals the re-read file on top of the defaults, env and overrides.
func (c *AppConfig) reload() error {
	if err := c.viper.Unmarshal(c.Config); err != nil {
		return err
	}
	c.applyDynamicChanges()
	return nil
}

func (c *AppConfig) applyDynamicChanges() {
	c.Config.Version = c.version
	c.ApplyLogConfig(c.console)
	c.notifyListeners()
}

// Override pins key to value, taking precedence over the file and env on
// every later reload. Used for command line flags.
func (c *AppConfig) Override(key string, value any) error {
	c.viper.Set(key, value)
	if err := c.viper.Unmarshal(c.Config); err != nil {
		return fmt.Errorf("failed to apply override %s: %w", key, err)
	}
	c.Config.Version = c.version
	return nil
}

// RegisterReloadListener registers a callback that's invoked when the configuration file is reloaded.
func (c *AppConfig) RegisterReloadListener(fn func(*domain.Config)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *AppConfig) notifyListeners() {
	c.listenersMu.RLock()
	listeners := append([]func(*domain.Config){}, c.listeners...)
	c.listenersMu.RUnlock()

	if len(listeners) == 0 {
		return
	}

	copied := *c.Config
	for _, listener := range listeners {
		listener(&copied)
	}
}

// Endpoint builds the websocket URL of the backend from host, port and path.
func (c *AppConfig) Endpoint() string {
	return BuildEndpoint(c.Config.Host, c.Config.Port, c.Config.Path, c.Config.TLS)
}

// BuildEndpoint derives the channel endpoint from the backend domain and port
// plus a fixed path suffix.
func BuildEndpoint(host string, port int, path string, secure bool) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	if path == "" {
		path = "/ws"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   path,
	}
	return u.String()
}

func (c *AppConfig) writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		log.Debug().Msgf("Config file already exists at: %s", path)
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	log.Debug().Msgf("Created config directory: %s", dir)

	configTemplate := `# config.toml - Auto-generated on first run

# Backend hostname / IP
# Default: "localhost"
host = "{{ .host }}"

# Backend port
# Default: 5000
port = {{ .port }}

# Websocket path on the backend
# Default: "/ws"
#path = "/ws"

# Connect with wss:// instead of ws://
# Default: false
#tls = false

# Dashboard view. Only "torrents" subscribes to the torrent list, detail, speed and peer events.
# Default: "torrents"
#view = "torrents"

# Poll interval in milliseconds for overall speed, torrent speed and peers.
# Torrent details are polled at twice this interval.
# Default: {{ .updateInterval }}
updateInterval = {{ .updateInterval }}

# Traffic graph samples shown / retained
#graphWindowSize = 60
#graphQueueSize = 240

# Seconds an alert stays visible, 0 keeps it until dismissed
# Default: 5
#alertTTL = 5

# Reconnect attempts and base delay in milliseconds
#reconnectAttempts = 10
#reconnectDelay = 1000

# Optional expression used to filter the torrent list
# Example: "Progress < 100 && IsActive"
#rowFilter = ""

# Log file path
# If not defined, logs to stderr (discarded while the dashboard owns the terminal)
# Optional
#logPath = "log/torrentdash.log"

# Log rotation
#logMaxSize = {{ .logMaxSize }}
#logMaxBackups = {{ .logMaxBackups }}

# Log level
# Default: "INFO"
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
logLevel = "{{ .logLevel }}"

# Prometheus Metrics
# Default: false
#metricsEnabled = false
#metricsHost = "127.0.0.1"
#metricsPort = 9075
`

	data := map[string]any{
		"host":           c.viper.GetString("host"),
		"port":           c.viper.GetInt("port"),
		"updateInterval": c.viper.GetInt("updateInterval"),
		"logLevel":       c.viper.GetString("logLevel"),
		"logMaxSize":     c.viper.GetInt("logMaxSize"),
		"logMaxBackups":  c.viper.GetInt("logMaxBackups"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse config template: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info().Msgf("Created default config file: %s", path)
	return nil
}

// GetDefaultConfigDir returns the OS-specific config directory
func GetDefaultConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "torrentdash")
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "torrentdash")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Roaming", "torrentdash")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "torrentdash")
	}
}

// ApplyLogConfig configures the global logger. A non-nil console writer
// replaces stderr, the dashboard passes io.Discard while it owns the terminal.
// Reloads keep using the same console writer.
func (c *AppConfig) ApplyLogConfig(console io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339
	c.console = console

	setLogLevel(c.Config.LogLevel)

	writer := console
	if writer == nil {
		writer = c.baseLogWriter()
	}

	if c.Config.LogPath != "" {
		multiWriter, err := setupLogFile(c.Config.LogPath, writer, c.Config.LogMaxSize, c.Config.LogMaxBackups)
		if err != nil {
			log.Error().Err(err).Msg("Failed to setup log file")
		} else {
			writer = multiWriter
		}
	}

	log.Logger = log.Logger.Output(writer)
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Logger.Level(lvl)
}

func setupLogFile(path string, base io.Writer, maxSize, maxBackups int) (io.Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if maxSize <= 0 {
		maxSize = 50
	}

	if maxBackups < 0 {
		maxBackups = 0
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}

	return io.MultiWriter(base, rotator), nil
}

func baseLogWriter(version string) io.Writer {
	if isDevBuild(version) {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		writer.PartsOrder = []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName}
		return writer
	}
	return os.Stderr
}

func (c *AppConfig) baseLogWriter() io.Writer {
	return baseLogWriter(c.version)
}

// InitDefaultLogger configures zerolog with the default writer for this version.
// This is used by CLI entry points before a configuration file is loaded.
func InitDefaultLogger(version string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Logger.Output(baseLogWriter(version))
}

func isDevBuild(version string) bool {
	v := strings.ToLower(strings.TrimSpace(version))
	return v == "" || v == "dev" || strings.HasSuffix(v, "-dev")
}

// resolveConfigPath determines the actual config file path from the provided directory or file path
func (c *AppConfig) resolveConfigPath(configDirOrPath string) string {
	if strings.HasSuffix(strings.ToLower(configDirOrPath), ".toml") {
		return configDirOrPath
	}

	if info, err := os.Stat(configDirOrPath); err == nil && !info.IsDir() {
		return configDirOrPath
	}

	return filepath.Join(configDirOrPath, "config.toml")
}

// GetConfigDir returns the directory containing the config file
func (c *AppConfig) GetConfigDir() string {
	if c.viper.ConfigFileUsed() != "" {
		return filepath.Dir(c.viper.ConfigFileUsed())
	}
	return GetDefaultConfigDir()
}

func WriteDefaultConfig(path string) error {
	c := &AppConfig{
		viper: viper.New(),
	}

	c.defaults()

	return c.writeDefaultConfig(path)
}
