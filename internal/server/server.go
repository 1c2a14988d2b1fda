package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/tinyfs/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/confirm"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/fsclient"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/ws"
)

// shutdownTimeout bounds how long in-flight requests may take to drain
const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	client   *fsclient.Client
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	registry *prometheus.Registry
}

// NewServer creates a new server instance. A nil logger is built from
// cfg.Logging.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		var err error
		logger, err = logging.New(logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development))
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	client, err := fsclient.New(fsclient.Config{
		Root:        cfg.Workspace.Root,
		AutoConfirm: cfg.Workspace.AutoConfirm,
		Approver:    Approver(cfg.Workspace.Approval, logger.Named("server")),
		HistorySize: cfg.Workspace.HistorySize,
		Logger:      logger.Named("fsclient"),
		Metrics:     metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Bool("global", cfg.RateLimit.Global),
		)
		limit := middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}
		if cfg.RateLimit.Global {
			router.Use(middleware.GlobalRateLimit(limit))
		} else {
			router.Use(middleware.RateLimit(limit))
		}
	}

	handlers := apihttp.NewHandlers(client, metrics, logger.Named("http"))
	handlers.Register(router)
	router.GET("/history/stream", ws.NewHandler(client, logger.Named("ws")).HandleConnection)

	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	}

	logger.Info("Server initialized",
		zap.String("workspace", client.Root()),
		zap.String("approval", cfg.Workspace.Approval),
		zap.Bool("auto_confirm", cfg.Workspace.AutoConfirm),
	)

	return &Server{
		router:   router,
		client:   client,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		registry: registry,
	}, nil
}

// Approver maps a configured approval mode onto an approver for requests
// that cannot be confirmed interactively. "prompt" has no terminal to ask
// on, so it denies.
func Approver(mode string, logger *zap.Logger) confirm.Approver {
	switch mode {
	case config.ApprovalAllow:
		return confirm.AllowAll
	case config.ApprovalPrompt:
		logger.Warn("Interactive approval is unavailable over HTTP; confirmation requests will be denied")
		return confirm.DenyAll
	default:
		return confirm.DenyAll
	}
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Client returns the filesystem client behind the API
func (s *Server) Client() *fsclient.Client {
	return s.client
}

// Run serves on the configured address until ctx is canceled, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return s.Close()
}

// Close flushes the logger
func (s *Server) Close() error {
	_ = s.logger.Sync()
	return nil
}
