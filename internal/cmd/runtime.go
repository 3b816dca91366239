package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Iron-Ham/tun2proxyctl/internal/binary"
	"github.com/Iron-Ham/tun2proxyctl/internal/config"
	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/logbook"
	"github.com/Iron-Ham/tun2proxyctl/internal/logging"
	"github.com/Iron-Ham/tun2proxyctl/internal/privilege"
	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor"
)

// runtime is everything a command needs to drive tun2proxy, built from the
// loaded configuration.
type runtime struct {
	cfg      *config.Config
	logger   *logging.Logger
	elevator privilege.Elevator
	finder   *binary.Finder
	sup      *supervisor.Supervisor
	registry *prometheus.Registry
	metrics  *http.Server
}

// loadConfig reads the configuration prepared by initConfig.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLoggerWithRotation(config.StateDir(), cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   cfg.Logging.Compress,
		})
		if err != nil {
			return nil, err
		}
	}

	elevator, err := privilege.New(cfg.Supervisor.Elevation, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sup, err := supervisor.New(supervisor.Options{
		Logger:              logger,
		Elevator:            elevator,
		Registerer:          registry,
		DNSMode:             cfg.Supervisor.DNSMode,
		PermissionSignature: cfg.Supervisor.PermissionSignature,
		VerifyDaemon:        cfg.Supervisor.VerifyDaemon,
		VerifyDelay:         cfg.Supervisor.VerifyDelay(),
		ShutdownTimeout:     cfg.Supervisor.ShutdownTimeout(),
		DrainTimeout:        cfg.Supervisor.DrainTimeout(),
		StderrTailBytes:     cfg.Supervisor.StderrTailBytes(),
	})
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	r := &runtime{
		cfg:      cfg,
		logger:   logger,
		elevator: elevator,
		finder:   binary.NewFinder(binary.WithCandidates(cfg.Binary.Candidates...), binary.WithLogger(logger)),
		sup:      sup,
		registry: registry,
	}

	if cfg.Metrics.Listen != "" {
		srv, err := serveMetrics(cfg.Metrics.Listen, registry, logger)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.metrics = srv
	}
	return r, nil
}

// binaryPath returns the configured executable or, when auto-detection is
// enabled, the detected one. Detection progress goes to report.
func (r *runtime) binaryPath(ctx context.Context, report func(string)) (string, error) {
	if r.cfg.Binary.Path != "" {
		return r.cfg.Binary.Path, nil
	}
	if r.cfg.Binary.AutoDetect {
		if path, ok := r.finder.Detect(ctx, report); ok {
			return path, nil
		}
	}
	return "", errors.NewNotFoundError("binary", "tun2proxy").WithCause(errors.ErrBinaryNotFound)
}

// proxyURL builds the proxy URL from the configuration.
func (r *runtime) proxyURL() (string, error) {
	return r.cfg.Proxy.BuildURL()
}

// Close stops tun2proxy if it is still running and releases everything else.
func (r *runtime) Close() {
	r.sup.Close()
	if r.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = r.metrics.Shutdown(ctx)
		cancel()
	}
	_ = r.logger.Close()
}

// serveMetrics exposes reg on addr at /metrics.
func serveMetrics(addr string, reg *prometheus.Registry, logger *logging.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("metrics server listening", "addr", ln.Addr().String())
	return srv, nil
}

// printRecords writes records in the export format.
func printRecords(w io.Writer, records []logbook.Record) {
	for _, r := range records {
		fmt.Fprintln(w, r.String())
	}
}

// lineReporter returns a report function that writes each line to w.
func lineReporter(w io.Writer) func(string) {
	return func(line string) {
		fmt.Fprintln(w, line)
	}
}
