package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"zombie-siege/internal/config"
	"zombie-siege/internal/hub"
	servernet "zombie-siege/internal/net"
	"zombie-siege/internal/telemetry"
	"zombie-siege/internal/world"
	"zombie-siege/logging"
	loggingSinks "zombie-siege/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Logger telemetry.Logger
	Config config.Config
}

// buildSinks opens every sink named in cfg. Unknown names are reported and
// skipped.
func buildSinks(cfg config.Config, logConfig logging.Config, logger telemetry.Logger) ([]logging.NamedSink, error) {
	var sinks []logging.NamedSink
	for _, name := range cfg.LogSinks {
		switch name {
		case "console":
			sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewConsoleSink(os.Stdout)})
		case "json":
			if cfg.LogJSONPath == "" {
				logger.Printf("json log sink enabled without LOG_JSON_PATH; skipping")
				continue
			}
			file, err := os.OpenFile(cfg.LogJSONPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open json log %s: %w", cfg.LogJSONPath, err)
			}
			sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)})
		case "memory":
			sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewMemorySink()})
		default:
			logger.Printf("unknown log sink %q ignored", name)
		}
	}
	return sinks, nil
}

// Run serves until ctx is cancelled, then shuts the HTTP server and the
// simulation down.
func Run(ctx context.Context, opts Options) error {
	telemetryLogger := opts.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	cfg := opts.Config
	logConfig := logging.DefaultConfig()
	logConfig.EnabledSinks = cfg.LogSinks
	logConfig.MinimumSeverity = cfg.LogLevel
	logConfig.JSON.FilePath = cfg.LogJSONPath
	logConfig.Fields = map[string]any{"service": "zombie-siege"}

	sinks, err := buildSinks(cfg, logConfig, telemetryLogger)
	if err != nil {
		return fmt.Errorf("failed to construct logging sinks: %w", err)
	}
	router := logging.NewRouter(logging.SystemClock{}, logConfig, fallbackLogger, sinks)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	counters := telemetry.NewCounters()
	h := hub.New(hub.Config{
		Layout:          world.DefaultLayout(),
		ZombieBatchSize: cfg.ZombieBatchSize,
		RespawnDelay:    cfg.RespawnDelay,
		TickRate:        cfg.TickRate,
		Logger:          telemetryLogger,
		Publisher:       router,
		Metrics:         counters,
	})
	defer h.Close()

	simCtx, stopSim := context.WithCancel(ctx)
	defer stopSim()
	go h.RunSimulation(simCtx)

	handler := servernet.NewHTTPHandler(h, servernet.HTTPHandlerConfig{
		Logger:       telemetryLogger,
		QueueSize:    cfg.SendQueueSize,
		TickRate:     cfg.TickRate,
		LoggingStats: router.Stats,
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		telemetryLogger.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
