package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ganot/logitrack/internal/config"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/portal"
	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/ganot/logitrack/internal/events"
	"github.com/ganot/logitrack/internal/mcp"
	"github.com/ganot/logitrack/internal/metrics"
	"github.com/ganot/logitrack/internal/sqlite"
	"github.com/ganot/logitrack/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("LOGITRACK_LOG_PATH"); logPath != "" {
		fileWriter, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer fileWriter.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := ensureDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return err
	}

	publisher, err := newPublisher(cfg.NATS.URL, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	orderRepo := sqlite.NewOrderRepository(db)
	orderSvc := order.NewService(orderRepo, sqlite.NewHistoryRepository(db), publisher, logger)
	userSvc := user.NewService(sqlite.NewUserRepository(db), sqlite.NewAPIKeyRepository(db), sqlite.NewChannelRepository(db), logger)
	portalSvc := portal.NewService(portal.NewFileStore(cfg.Portals.Path), logger)

	super, err := userSvc.EnsureSuper(context.Background(), cfg.Auth.SuperEmail, cfg.Auth.BootstrapToken)
	if err != nil {
		return fmt.Errorf("bootstrap super user: %w", err)
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Orders:        orderSvc,
		Resolver:      userSvc,
		DefaultUser:   *super,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(logger, mcpServer)
	}

	if cfg.Metrics.Enabled {
		collector := metrics.NewOrderCollector(orderRepo.CountByStatus, logger)
		if err := metrics.Register(prometheus.DefaultRegisterer, collector); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
	}

	auth := transport.Authenticator{Resolver: userSvc}
	if !cfg.Auth.Enabled {
		logger.Warn("authentication disabled, every request acts as the super user", "email", super.Email)
		auth.Fixed = super
	}

	router := transport.NewServer(transport.Config{
		Orders:  orderSvc,
		Users:   userSvc,
		Portals: portalSvc,
		RPC:     mcp.NewHandler(orderSvc),
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{
				Stateless:      false,
				SessionTimeout: 30 * time.Minute,
			},
		),
		Auth:       auth,
		SyncSource: cfg.Sync.Source,
		SyncSheet:  cfg.Sync.Sheet,
		Metrics:    cfg.Metrics.Enabled,
		Logger:     logger,
	})
	return runHTTPMode(logger, router, cfg.Server.Host, cfg.Server.Port)
}

func newPublisher(url string, logger *slog.Logger) (events.Publisher, error) {
	if url == "" {
		return events.Nop{}, nil
	}
	p, err := events.NewNATSPublisher(url)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logger.Info("publishing order events", "nats", url)
	return p, nil
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or the context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTPMode(logger *slog.Logger, handler http.Handler, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	return httpServer.Shutdown(ctx)
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
