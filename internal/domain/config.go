// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "time"

// ViewTorrents is the torrent list view. Only this view registers the
// torrent-scoped message handlers and refreshes the list on connect.
const ViewTorrents = "torrents"

type Config struct {
	Version string `mapstructure:"-"`

	Host string `toml:"host" mapstructure:"host"`
	Port int    `toml:"port" mapstructure:"port"`
	Path string `toml:"path" mapstructure:"path"`
	TLS  bool   `toml:"tls" mapstructure:"tls"`
	View string `toml:"view" mapstructure:"view"`

	UpdateInterval    int    `toml:"updateInterval" mapstructure:"updateInterval"`
	GraphWindowSize   int    `toml:"graphWindowSize" mapstructure:"graphWindowSize"`
	GraphQueueSize    int    `toml:"graphQueueSize" mapstructure:"graphQueueSize"`
	AlertTTL          int    `toml:"alertTTL" mapstructure:"alertTTL"`
	ReconnectAttempts uint   `toml:"reconnectAttempts" mapstructure:"reconnectAttempts"`
	ReconnectDelay    int    `toml:"reconnectDelay" mapstructure:"reconnectDelay"`
	RowFilter         string `toml:"rowFilter" mapstructure:"rowFilter"`

	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`

	MetricsEnabled bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost    string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort    int    `toml:"metricsPort" mapstructure:"metricsPort"`
}

// PollInterval is the base tick interval T shared by the speed and peer polls.
func (c *Config) PollInterval() time.Duration {
	if c.UpdateInterval <= 0 {
		return time.Second
	}
	return time.Duration(c.UpdateInterval) * time.Millisecond
}

// AlertLifetime returns the default alert ttl. Zero means persistent.
func (c *Config) AlertLifetime() time.Duration {
	if c.AlertTTL <= 0 {
		return 0
	}
	return time.Duration(c.AlertTTL) * time.Second
}

func (c *Config) ReconnectBackoff() time.Duration {
	if c.ReconnectDelay <= 0 {
		return time.Second
	}
	return time.Duration(c.ReconnectDelay) * time.Millisecond
}

// IsTorrentView reports whether the configured view is the torrent list.
func (c *Config) IsTorrentView() bool {
	return c.View == "" || c.View == ViewTorrents
}
