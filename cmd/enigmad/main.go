// Command enigmad serves the rotorcore.v1.Enigma gRPC service and exposes
// Prometheus metrics for it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"rotorcore/internal/catalog"
	"rotorcore/internal/observability"
	"rotorcore/internal/transport/rpc"
)

var (
	exitFunc    = os.Exit
	openCatalog = catalog.Open
	notifyCtx   = func(parent context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	}
)

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

type daemonConfig struct {
	addr        string
	metricsAddr string
	useCatalog  bool
	maxLines    int
	logLevel    string
	logFormat   string
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("enigmad", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cfg daemonConfig
	fs.StringVar(&cfg.addr, "addr", ":50051", "address for the gRPC server to listen on")
	fs.StringVar(&cfg.metricsAddr, "metrics-addr", ":9090", "address for the Prometheus metrics endpoint (empty to disable)")
	fs.BoolVar(&cfg.useCatalog, "catalog", true, "resolve catalog names from the store selected by ROTORCORE_CATALOG_DRIVER")
	fs.IntVar(&cfg.maxLines, "max-lines", rpc.DefaultMaxLines, "maximum lines accepted per Convert call")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.StringVar(&cfg.logFormat, "log-format", "json", "log format: text or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		_, _ = fmt.Fprintf(stderr, "Error: unexpected arguments %v\n", fs.Args())
		return 2
	}
	ctx, stop := notifyCtx(context.Background())
	defer stop()
	if err := run(ctx, cfg, stdout); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg daemonConfig, logOut io.Writer) (err error) {
	logger, err := observability.NewSlogLogger(cfg.logLevel, cfg.logFormat, logOut)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	recorder, err := observability.NewPrometheusRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	opts := []rpc.Option{rpc.WithLogger(logger), rpc.WithMetrics(recorder), rpc.WithMaxLines(cfg.maxLines)}
	if cfg.useCatalog {
		store, err := openCatalog(ctx)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close catalog: %w", cerr)
			}
		}()
		logger.Info("catalog ready", "driver", string(store.Driver()))
		opts = append(opts, rpc.WithCatalog(store))
	}

	if cfg.metricsAddr != "" {
		shutdown, err := startMetrics(cfg.metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	lis, err := net.Listen("tcp", cfg.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.addr, err)
	}
	logger.Info("serving", "address", lis.Addr().String())
	return serve(ctx, lis, rpc.NewServer(opts...))
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

func startMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: metricsHandler(reg), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("metrics ready", "address", lis.Addr().String())
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics shutdown", "error", err)
		}
	}, nil
}

// serve runs the gRPC server on lis until ctx is cancelled.
func serve(ctx context.Context, lis net.Listener, svc rpc.EnigmaServer) error {
	srv := grpc.NewServer()
	rpc.Register(srv, svc)

	go func() {
		<-ctx.Done()
		done := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			srv.Stop()
		}
	}()

	if err := srv.Serve(lis); err != nil {
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
	return nil
}
