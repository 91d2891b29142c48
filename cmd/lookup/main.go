/*
Package main runs the dictionary lookup service.

A dictionary is a delimited text file (word, tab, translation per line) or a
msgpack dataset. The service keeps the entries in memory together with an
ordered word index and answers queries with one of two strategies:

	linear   scans every entry and ranks word and translation matches
	indexed  walks the word index for entries starting with the query

# Modes

The default mode serves the HTTP API:

	lookup -config lookup.toml

Editors and other programs can talk msgpack over stdin/stdout instead:

	lookup -mode stdio -dataset words.tsv

and an interactive shell is available for testing:

	lookup -mode repl -dataset words.tsv

A text dataset can be converted to the binary format once:

	lookup -dataset words.tsv -convert words.msgpack

# Configuration

Settings come from a TOML file created with defaults when missing, and every
key can be overridden with a LOOKUP_* environment variable:

	[dataset]
	path = "words.tsv"
	cache_path = "words.snapshot"
	watch = true

	[search]
	default_strategy = "indexed"
	debounce_delay_ms = 300
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcbaptista/go-dictionary-lookup/api"
	"github.com/gcbaptista/go-dictionary-lookup/config"
	"github.com/gcbaptista/go-dictionary-lookup/internal/analytics"
	"github.com/gcbaptista/go-dictionary-lookup/internal/engine"
	"github.com/gcbaptista/go-dictionary-lookup/internal/ipc"
	"github.com/gcbaptista/go-dictionary-lookup/internal/jobs"
	"github.com/gcbaptista/go-dictionary-lookup/internal/logger"
	"github.com/gcbaptista/go-dictionary-lookup/internal/metrics"
	"github.com/gcbaptista/go-dictionary-lookup/internal/repl"
	"github.com/gcbaptista/go-dictionary-lookup/internal/source"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

const (
	Version = "1.0.0"
	AppName = "lookup"
)

const (
	modeHTTP  = "http"
	modeStdio = "stdio"
	modeREPL  = "repl"
)

func main() {
	var (
		configPath  = flag.String("config", "lookup.toml", "Path to the TOML config file (created with defaults if missing)")
		debugMode   = flag.Bool("d", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Show version information")
		mode        = flag.String("mode", modeHTTP, "Run mode: http, stdio or repl")
		datasetPath = flag.String("dataset", "", "Dataset file, overrides dataset.path")
		convertTo   = flag.String("convert", "", "Write the dataset as msgpack to this path and exit")
		history     = flag.String("history", "", "REPL history file")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	cfg, err := config.InitConfig(*configPath)
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format, *debugMode); err != nil {
		log.Fatal("invalid log settings", "err", err)
	}
	if *datasetPath != "" {
		cfg.Dataset.Path = *datasetPath
	}
	if cfg.Dataset.Path == "" {
		log.Fatal("no dataset configured: set dataset.path or pass -dataset")
	}

	file, err := source.Open(cfg.Dataset.Path, cfg.Dataset.Delimiter)
	if err != nil {
		log.Fatal("failed to open dataset", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *convertTo != "" {
		n, err := source.Convert(ctx, file, *convertTo)
		if err != nil {
			log.Fatal("conversion failed", "err", err)
		}
		log.Info("dataset converted", "from", file.Path(), "to", *convertTo, "entries", n)
		return
	}

	if err := run(ctx, cfg, file, *mode, *history); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config, file source.File, mode, historyFile string) error {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	strategy, err := model.ParseStrategy(cfg.Search.DefaultStrategy)
	if err != nil {
		return err
	}
	settings := engine.Settings{
		Dataset:         cfg.Dataset.Name,
		DefaultViewSize: cfg.Search.DefaultViewSize,
		MaxResults:      cfg.Search.MaxResults,
		DefaultStrategy: strategy,
		DebounceDelay:   cfg.DebounceDelay(),
		LookupCacheSize: cfg.Search.LookupCacheSize,
		Metrics:         metrics.Prometheus{},
	}

	jobManager := jobs.NewManager(cfg.Jobs.MaxWorkers)
	jobManager.SetRetention(cfg.JobRetention())
	jobManager.Start()
	defer jobManager.Stop()

	instance, err := engine.NewInstance(source.NewCached(file, cfg.Dataset.CachePath), settings, jobManager)
	if err != nil {
		return err
	}
	defer instance.Close()

	analyticsService := analytics.NewService(cfg.Dataset.AnalyticsPath)
	detach := analyticsService.Attach(instance)
	defer func() {
		detach()
		if err := analyticsService.Save(); err != nil {
			log.Warn("failed to save analytics", "err", err)
		}
	}()

	if cfg.Dataset.Watch {
		if err := instance.WatchDataset(ctx, file.Path(), cfg.WatchDelay()); err != nil {
			return err
		}
		log.Info("watching dataset", "path", file.Path())
	}

	switch mode {
	case modeHTTP:
		if _, err := instance.LoadAsync(); err != nil {
			return err
		}
		return serveHTTP(ctx, cfg, instance, analyticsService)

	case modeStdio:
		// Load before answering so the first request sees the dictionary.
		// A failure is reported in the state, not fatal.
		if err := instance.Load(ctx); err != nil {
			log.Warn("initial load failed", "err", err)
		}
		return ipc.NewServer(instance, analyticsService, os.Stdin, os.Stdout).Serve(ctx)

	case modeREPL:
		if err := instance.Load(ctx); err != nil {
			log.Warn("initial load failed", "err", err)
		}
		shell := repl.New(instance, historyFile)
		if err := shell.Open(); err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		defer shell.Close()
		return shell.Run(ctx)

	default:
		return fmt.Errorf("unknown mode %q (expected %s, %s or %s)", mode, modeHTTP, modeStdio, modeREPL)
	}
}

func serveHTTP(ctx context.Context, cfg *config.Config, instance *engine.Instance, analyticsService *analytics.Service) error {
	if log.GetLevel() > log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestIDMiddleware())
	router.Use(api.CORSMiddleware())
	router.Use(api.RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.RateBurst))
	api.SetupRoutes(router, instance, analyticsService)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		showStartupInfo(srv.Addr, cfg)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func showStartupInfo(addr string, cfg *config.Config) {
	log.Info("lookup server starting",
		"version", Version,
		"pid", os.Getpid(),
		"addr", addr,
		"dataset", cfg.Dataset.Path,
		"strategy", cfg.Search.DefaultStrategy)
}

func printVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["strategies"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ " + AppName + " ] dictionary lookup service")
	l.Print("", "version", Version)
	l.Print("", "strategies", "linear, indexed")
	l.Print("")
	l.Print("use -h to see available options")
}
