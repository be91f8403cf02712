// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/autobrr/torrentdash/internal/api"
	"github.com/autobrr/torrentdash/internal/buildinfo"
	"github.com/autobrr/torrentdash/internal/channel"
	"github.com/autobrr/torrentdash/internal/config"
	"github.com/autobrr/torrentdash/internal/metrics"
	"github.com/autobrr/torrentdash/internal/poll"
	"github.com/autobrr/torrentdash/internal/protocol"
	"github.com/autobrr/torrentdash/internal/session"
	"github.com/autobrr/torrentdash/internal/store"
	"github.com/autobrr/torrentdash/internal/tui"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	var rootCmd = &cobra.Command{
		Use:   "torrentdash",
		Short: "A terminal dashboard for a remote torrent daemon",
		Long: `torrentdash - a live dashboard for a torrent backend reachable over a
websocket channel. Shows the torrent list, the focused torrent's details,
traffic and peers, and sends stop, start, recheck, reannounce and remove
commands for the selected torrents.`,
	}

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunCommand())
	rootCmd.AddCommand(RunVersionCommand())
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunCommand() *cobra.Command {
	var (
		configDir string
		logPath   string
		view      string
		headless  bool
		pprofFlag bool
	)

	var command = &cobra.Command{
		Use:   "run",
		Short: "Connect to the backend and start the dashboard",
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/torrentdash/ or %APPDATA%\\torrentdash\\). Can also be a direct path to a .toml file")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout in headless mode, discarded otherwise)")
	command.Flags().StringVar(&view, "view", "", "page view, the torrent handlers are only registered for \"torrents\"")
	command.Flags().BoolVar(&headless, "headless", false, "run without the terminal dashboard")
	command.Flags().BoolVar(&pprofFlag, "pprof", false, "enable pprof server on :6060")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		app := NewApplication(configDir, logPath, view, headless, pprofFlag)
		return app.run(cmd.Context())
	}

	return command
}

func RunVersionCommand() *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of torrentdash",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildinfo.String())
		},
	}

	return command
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without connecting to a backend.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/torrentdash/config.toml
- Windows: %APPDATA%\torrentdash\config.toml

You can specify either a directory path or a direct file path:
- Directory: torrentdash generate-config --config-dir /path/to/config/
- File: torrentdash generate-config --config-dir /path/to/myconfig.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if configDir != "" {
				if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
					configPath = configDir
				} else if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
					configPath = configDir
				} else {
					configPath = filepath.Join(configDir, "config.toml")
				}
			} else {
				configPath = filepath.Join(config.GetDefaultConfigDir(), "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

type Application struct {
	configDir string
	logPath   string
	view      string
	headless  bool
	pprofFlag bool
}

func NewApplication(configDir, logPath, view string, headless, pprofFlag bool) *Application {
	return &Application{
		configDir: configDir,
		logPath:   logPath,
		view:      view,
		headless:  headless,
		pprofFlag: pprofFlag,
	}
}

func (app *Application) run(parent context.Context) error {
	cfg, err := config.New(app.configDir, buildinfo.Version)
	if err != nil {
		return errors.Wrap(err, "failed to initialize configuration")
	}

	// flags are pinned so a config file reload keeps them
	if app.logPath != "" {
		if err := cfg.Override("logPath", app.logPath); err != nil {
			return err
		}
	}
	if app.view != "" {
		if err := cfg.Override("view", app.view); err != nil {
			return err
		}
	}

	interactive := !app.headless && term.IsTerminal(int(os.Stdout.Fd()))

	// the dashboard owns the terminal, logs only go to the log file
	var console io.Writer
	if interactive {
		console = io.Discard
	}
	cfg.ApplyLogConfig(console)

	endpoint := cfg.Endpoint()
	log.Info().Str("version", buildinfo.Version).Str("endpoint", endpoint).Str("view", cfg.Config.View).Msg("Starting torrentdash")

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	dash := store.NewDashboard(cfg.Config)
	m := metrics.New()
	loop := session.NewLoop()
	registry := channel.NewRegistry()

	var sess *session.Session
	adapter := channel.New(registry, loop, channel.Options{
		Endpoint: endpoint,
		Header:   http.Header{"User-Agent": []string{buildinfo.UserAgent}},
		Attempts: cfg.Config.ReconnectAttempts,
		Delay:    cfg.Config.ReconnectBackoff(),
		OnLifecycle: func(l channel.Lifecycle) {
			sess.OnLifecycle(l)
		},
		OnSend: m.Sent,
	})

	sess = session.New(session.Deps{
		Config:    cfg.Config,
		Endpoint:  endpoint,
		Sender:    adapter,
		Poster:    loop,
		Clock:     poll.RealClock(),
		Dashboard: dash,
		Metrics:   m,
	})
	if err := sess.Register(registry); err != nil {
		return errors.Wrap(err, "failed to register handlers")
	}
	log.Debug().Strs("events", eventNames(registry.Events())).Msg("registered handlers")

	remote := session.NewRemote(sess, loop)

	cfg.RegisterReloadListener(remote.ApplyConfig)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(ctx)
	})

	g.Go(func() error {
		err := adapter.Run(ctx)
		if err == nil || !interactive {
			return err
		}
		// keep the last known state on screen
		log.Error().Err(err).Msg("giving up on backend")
		loop.Post(func() { dash.Alerts.Add(err.Error(), store.SeverityAlert, 0) })
		return nil
	})

	if cfg.Config.MetricsEnabled {
		httpServer := api.NewServer(&api.Dependencies{
			Config:    cfg,
			Version:   buildinfo.Version,
			Metrics:   m,
			Status:    remote,
			Dashboard: dash,
		})

		g.Go(func() error {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "failed to start status server")
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("got error during graceful http shutdown")
			}
			return nil
		})
	}

	if app.pprofFlag {
		go func() {
			log.Info().Msg("Starting pprof server on :6060")
			if err := http.ListenAndServe(":6060", nil); err != nil {
				log.Error().Err(err).Msg("Profiling server failed")
			}
		}()
	}

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			log.Info().Msgf("got signal %v, shutting down", sig.String())
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if interactive {
		g.Go(func() error {
			defer cancel()
			program := tea.NewProgram(tui.New(dash, remote, endpoint), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return errors.Wrap(err, "dashboard failed")
			}
			return nil
		})
	}

	err = g.Wait()

	// the loop has stopped, timers fire into a closed queue and are dropped
	sess.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("stopped")
	return nil
}

func eventNames(events []protocol.Event) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = string(e)
	}
	return names
}
