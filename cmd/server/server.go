package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/martinsuchenak/labeld/internal/api"
	"github.com/martinsuchenak/labeld/internal/config"
	"github.com/martinsuchenak/labeld/internal/discovery"
	"github.com/martinsuchenak/labeld/internal/fleet"
	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/mcp"
	"github.com/martinsuchenak/labeld/internal/printing"
	"github.com/martinsuchenak/labeld/internal/scanner"
	"github.com/martinsuchenak/labeld/internal/session"
	"github.com/martinsuchenak/labeld/internal/storage"
	"github.com/paularlott/cli"
)

const shutdownTimeout = 10 * time.Second

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the labeld server",
		Description: "Discover label printers on the local network and serve the management and print API",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				log.Error("Failed to load configuration", "error", err)
				return err
			}
			log.Configure(cfg.LogLevel, cfg.LogFormat)

			log.Info("Configuration loaded", "data_dir", cfg.DataDir, "listen_addr", cfg.ListenAddr, "printer_config", cfg.PrinterConfig)

			return run(ctx, cfg)
		},
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize job history
	jobs, err := storage.NewStorage(cfg.DataDir)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		return err
	}
	log.Info("Storage initialized", "backend", "SQLite", "path", cfg.DataDir)
	pruned := startHistoryPruner(ctx, jobs, cfg.File.History.RetentionDays)
	// Close history only once the pruner has seen the cancellation
	defer func() {
		stop()
		<-pruned
		jobs.Close()
	}()

	// Discovery and fleet
	var browser discovery.Browser
	if !cfg.NoDiscovery {
		zc := discovery.NewZeroconfBrowser()
		if d := cfg.File.Discovery; d.Interval > 0 {
			zc.Interval = d.Interval
		}
		if d := cfg.File.Discovery; d.RoundTimeout > 0 {
			zc.RoundTimeout = d.RoundTimeout
		}
		zc.MissedRounds = cfg.File.Discovery.MissedRounds
		browser = zc
	}
	listener := discovery.NewListener(browser, cfg.File.Discovery.ServiceTypes)
	store := fleet.NewStore(cfg.PrinterConfig, cfg.DefaultLabelSize, listener, session.NewCache())

	hub := api.NewEventHub()
	store.SetNotifier(hub)

	dispatcher := printing.NewDispatcher(store,
		printing.NewExecRenderer(cfg.File.Renderer.Command, cfg.File.Renderer.TempDir),
		&printing.SchemeTransport{Timeout: cfg.File.Transport.Timeout})
	dispatcher.SetRecorder(jobs)
	dispatcher.SetNotifier(hub)
	if cfg.File.Renderer.Command == "" {
		log.Warn("No renderer command configured, print requests will fail")
	}

	listener.Start(ctx)

	// Create API handler
	apiHandler := api.NewHandler(store, dispatcher)
	apiHandler.SetJobStorage(jobs)
	apiHandler.SetEventHub(hub)
	apiHandler.SetProber(scanner.NewProber(proberConfig(cfg.File.Status)))

	// Setup HTTP routes
	mux := http.NewServeMux()
	apiHandler.RegisterRoutes(mux)

	mcpServer := mcp.NewServer(store, dispatcher, cfg.MCPAuthToken)
	mux.HandleFunc("/mcp", mcpServer.GetHTTPHandler())

	// Apply middleware
	var handler http.Handler = mux
	if cfg.IsAPIAuthEnabled() {
		handler = api.AuthMiddleware(cfg.APIAuthToken, handler)
	}
	handler = api.SecurityHeadersMiddleware(handler)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler,
	}

	// Handle shutdown gracefully
	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("Starting labeld server", "addr", cfg.ListenAddr)
	log.Info("API available", "url", "http://localhost"+cfg.ListenAddr+"/api/")
	if cfg.IsAPIAuthEnabled() {
		log.Info("API authentication enabled")
	}
	log.Info("MCP available", "url", "http://localhost"+cfg.ListenAddr+"/mcp")
	if cfg.IsMCPEnabled() {
		log.Info("MCP authentication enabled")
	}
	mcpServer.LogStartup()

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server error", "error", err)
	} else {
		err = nil
	}

	// Stop discovery before the final configuration write
	listener.Stop()
	store.Close()

	log.Info("Server stopped")
	return err
}

func proberConfig(status config.StatusConfig) scanner.Config {
	pc := scanner.Config{Timeout: status.Timeout}
	if !status.SNMP.Enabled {
		return pc
	}
	version, err := scanner.ParseSNMPVersion(status.SNMP.Version)
	if err != nil {
		log.Warn("Invalid SNMP version, using v2c", "version", status.SNMP.Version, "error", err)
	}
	pc.SNMP = &scanner.SNMPConfig{Community: status.SNMP.Community, Version: version}
	return pc
}

// startHistoryPruner runs pruneHistory in the background. The returned channel
// closes once it has returned.
func startHistoryPruner(ctx context.Context, jobs storage.JobStorage, retentionDays int) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		pruneHistory(ctx, jobs, retentionDays)
	}()
	return done
}

// pruneHistory deletes jobs older than the retention window at startup and daily
func pruneHistory(ctx context.Context, jobs storage.JobStorage, retentionDays int) {
	if retentionDays <= 0 {
		return
	}

	prune := func() {
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		n, err := jobs.DeleteJobsBefore(ctx, cutoff)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("Failed to prune print history", "error", err)
			}
			return
		}
		if n > 0 {
			log.Info("Pruned print history", "deleted", n, "before", cutoff.Format(time.RFC3339))
		}
	}

	prune()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
