// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/liftsync/internal/admin"
	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/discovery"
	"github.com/tomtom215/liftsync/internal/lifecycle"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/server"
	"github.com/tomtom215/liftsync/internal/store"
	"github.com/tomtom215/liftsync/internal/supervisor"
	"github.com/tomtom215/liftsync/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := config.FindConfigFile()
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("store_driver", cfg.Store.Driver).
		Int("default_port", cfg.Server.Port).
		Bool("discovery", cfg.Discovery.Enabled).
		Msg("Starting LiftSync with supervisor tree")

	if configPath != "" {
		watchLogLevel(configPath)
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	stateStore, err := lifecycle.OpenStateStore(cfg.Lifecycle.StatePath, cfg.Lifecycle.StatePath == "")
	if err != nil {
		logging.Error().Err(err).Msg("Failed to open lifecycle state")
		return
	}
	defer func() {
		if err := stateStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing lifecycle state")
		}
	}()

	tree, err := supervisor.NewSupervisorTree(logging.NewComponentSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: cfg.Lifecycle.FailureThreshold,
		FailureBackoff:   cfg.Lifecycle.FailureBackoff,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return
	}

	deps := lifecycle.Deps{
		Tree:            tree,
		Server:          server.New(cfg.Server, st, version),
		State:           stateStore,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if cfg.Discovery.Enabled {
		deps.Advertiser = discovery.NewAdvertiser(cfg.Discovery, version)
	}
	manager := lifecycle.New(cfg.Lifecycle, deps)

	if cfg.Admin.Enabled {
		handler := admin.NewHandler(manager, cfg.Server.Port)
		adminServer := admin.NewServer(cfg.Admin, cfg.Lifecycle, handler.Routes())
		tree.AddControlService(services.NewHTTPServerService("admin-http", adminServer, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", adminServer.Addr).Msg("Control plane added to supervisor tree")
	} else {
		logging.Warn().Msg("Control plane disabled; sync follows the persisted flag only")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	if err := manager.Start(ctx); err != nil {
		logging.Error().Err(err).Msg("Lifecycle restore failed; sync stays off until turned on")
	}

	<-ctx.Done()
	logging.Info().Msg("Context canceled, waiting for supervisor to finish...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		cfg.Server.ShutdownTimeout+cfg.Lifecycle.StopTimeout)
	defer shutdownCancel()
	if err := manager.Close(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Supervisor shutdown error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// watchLogLevel applies log level changes from the config file without a
// restart. Other settings need one.
func watchLogLevel(path string) {
	err := config.WatchConfigFile(path, func() {
		cfg, err := config.LoadFile(path)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config change")
			return
		}
		logging.SetLevelString(cfg.Logging.Level)
		logging.Info().Str("level", cfg.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
