package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/velofit/engine/internal/api"
	"github.com/velofit/engine/internal/bridge"
	"github.com/velofit/engine/internal/cache"
	"github.com/velofit/engine/internal/config"
	"github.com/velofit/engine/internal/dispatcher"
	"github.com/velofit/engine/internal/influx"
	"github.com/velofit/engine/internal/logging"
	"github.com/velofit/engine/internal/monitor"
	intOtel "github.com/velofit/engine/internal/otel"
	"github.com/velofit/engine/internal/parser"
	"github.com/velofit/engine/internal/ranges"
	"github.com/velofit/engine/internal/report"
	"github.com/velofit/engine/internal/session"
	"github.com/velofit/engine/internal/storage"
	"github.com/velofit/engine/internal/worker"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"
)

// engine bundles every running service so startup and shutdown stay in
// one place.
type engine struct {
	logManager   *logging.SlogManager
	logger       *slog.Logger
	logFile      *os.File
	otelProvider *intOtel.Provider
	metrics      *influx.Manager

	backend    storage.Backend
	dispatcher *dispatcher.Dispatcher
	workers    *worker.Manager
	monitor    *monitor.Service
	bridge     *bridge.Server
	session    *session.Session

	startTime time.Time
}

func main() {
	configDir := flag.String("config", ".", "directory containing velofit.cfg.json")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 && strings.ToLower(args[0]) == "version" {
		fmt.Printf("velofit %s (built %s)\n", Version, BuildDate)
		return
	}

	eng, err := newEngine(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	if args := flag.Args(); len(args) > 0 {
		if err := eng.runCommand(args); err != nil {
			eng.logger.Error("Command failed", "command", args[0], "error", err)
			os.Exit(1)
		}
		eng.shutdown()
		return
	}

	eng.run()
}

func newEngine(configDir string) (*engine, error) {
	e := &engine{
		logManager: logging.NewSlogManager(),
		startTime:  time.Now(),
	}

	// Bootstrap logging to stdout until the log file exists.
	e.logManager.Setup(nil, "info", nil)
	e.logger = e.logManager.Logger()

	if err := config.Load(configDir); err != nil {
		e.logger.Warn("Failed to load config, using defaults", "error", err)
	} else {
		e.logger.Info("Loaded config", "dir", configDir)
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}

	logPath := logging.LogFilePath(logsDir, "velofit", e.startTime)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	e.logFile = logFile

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		e.otelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			e.logger.Error("Failed to initialize OTel provider", "error", err)
			e.otelProvider = nil
		}
	}

	logLevel := viper.GetString("logLevel")

	// Tag every record with the live session's rider once it exists.
	e.logManager.ContextProvider = func() []slog.Attr {
		if e.session == nil {
			return nil
		}
		info := e.session.Info()
		if info.Rider == "" {
			return nil
		}
		return []slog.Attr{slog.String("rider", info.Rider)}
	}

	var extraHandlers []slog.Handler
	if viper.GetBool("graylog.enabled") {
		gelfHandler, err := logging.NewGelfHandler(
			viper.GetString("graylog.address"), "velofit-engine", slogLevel(logLevel))
		if err != nil {
			e.logger.Error("Failed to connect GELF handler", "error", err)
		} else {
			extraHandlers = append(extraHandlers, gelfHandler)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if e.otelProvider != nil {
		otelLogProvider = e.otelProvider.LoggerProvider()
	}
	e.logManager.Setup(logFile, logLevel, otelLogProvider, extraHandlers...)
	e.logger = e.logManager.Logger()
	e.logger.Info("Logging to file", "path", logPath)

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	table, err := ranges.NewTable()
	if err != nil {
		return nil, fmt.Errorf("building range table: %w", err)
	}
	e.session = session.New(table, e.logger)

	storageCfg := config.GetStorageConfig()
	e.backend, err = storage.NewBackend(storageCfg, e.logManager)
	if err != nil {
		return nil, fmt.Errorf("creating storage backend: %w", err)
	}
	if err := e.backend.Init(); err != nil {
		return nil, fmt.Errorf("initializing storage backend: %w", err)
	}
	e.logger.Info("Storage backend initialized", "type", storageCfg.Type)

	if viper.GetBool("influx.enabled") {
		e.metrics = influx.NewManager(zlog, filepath.Join(logsDir, "influx_backup.gz"))
		if err := e.metrics.Connect(); err != nil {
			e.logger.Warn("InfluxDB unavailable, metrics disabled", "error", err)
			e.metrics = nil
		}
	}

	e.dispatcher, err = dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}

	exporter := report.NewExporter(viper.GetString("reportsDir"), e.logger)

	e.workers = worker.NewManager(worker.Dependencies{
		ImageCache:    cache.NewImageCache(),
		SnapshotCache: cache.NewSnapshotCache(),
		LogManager:    e.logManager,
		ParserService: parser.New(e.logger),
		DemoImagePath: viper.GetString("demoImagePath"),
		Metrics:       e.metrics,
	}, e.backend, e.session, exporter)
	e.workers.RegisterHandlers(e.dispatcher)

	e.bridge = bridge.New(
		viper.GetString("bridge.listenAddr"),
		viper.GetString("bridge.secret"),
		e.dispatcher, e.session, e.logger)

	e.monitor = monitor.NewService(monitor.Dependencies{
		LogManager:    e.logManager,
		WorkerManager: e.workers,
		Backend:       e.backend,
		StatusDir:     logsDir,
		Metrics:       e.metrics,
	})

	return e, nil
}

// run starts the bridge and monitor and blocks until a signal arrives.
func (e *engine) run() {
	e.logger.Info("Starting up", "version", Version, "build", BuildDate)

	go e.checkServerStatus()

	if err := e.bridge.Start(); err != nil {
		e.logger.Error("Failed to start bridge", "error", err)
		e.shutdown()
		os.Exit(1)
	}

	if err := e.monitor.Start(); err != nil {
		e.logger.Error("Failed to start monitor", "error", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	e.logger.Info("Shutting down", "signal", sig.String())

	if err := e.backend.EndSession(); err != nil {
		e.logger.Warn("Failed to finalize session on shutdown", "error", err)
	}
	e.maybeUpload()
	e.shutdown()
}

// checkServerStatus logs whether the companion web service is reachable.
func (e *engine) checkServerStatus() {
	_, err := http.Get(viper.GetString("api.serverUrl") + "/healthcheck")
	if err != nil {
		e.logger.Info("VeloFit web service is offline")
	} else {
		e.logger.Info("VeloFit web service is online")
	}
}

// maybeUpload sends the backend's exported session file to the web
// service when the backend produced one and an API key is configured.
func (e *engine) maybeUpload() {
	up, ok := e.backend.(storage.Uploadable)
	if !ok {
		return
	}
	apiKey := viper.GetString("api.apiKey")
	filePath := up.GetExportedFilePath()
	if apiKey == "" || filePath == "" {
		return
	}

	client := api.New(viper.GetString("api.serverUrl"), apiKey)
	if err := client.Healthcheck(); err != nil {
		e.logger.Warn("Skipping upload, web service unreachable", "error", err)
		return
	}

	meta := up.GetExportMetadata()
	if meta.Duration == 0 {
		meta.Duration = time.Since(e.startTime).Seconds()
	}
	if err := client.Upload(filePath, meta); err != nil {
		e.logger.Error("Failed to upload session export", "path", filePath, "error", err)
		return
	}
	e.logger.Info("Uploaded session export", "path", filePath)
}

func (e *engine) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e.monitor.Stop()
	if err := e.bridge.Stop(ctx); err != nil {
		e.logger.Warn("Bridge shutdown error", "error", err)
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Warn("Storage backend close error", "error", err)
	}
	if e.metrics != nil {
		e.metrics.Close()
	}
	if e.otelProvider != nil {
		if err := e.otelProvider.Flush(ctx); err != nil {
			e.logger.Warn("OTel flush error", "error", err)
		}
		if err := e.otelProvider.Shutdown(ctx); err != nil {
			e.logger.Warn("OTel shutdown error", "error", err)
		}
	}
	if e.logFile != nil {
		_ = e.logFile.Close()
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
