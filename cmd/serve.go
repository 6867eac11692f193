package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sanos-dev/backend/internal/client"
	"github.com/sanos-dev/backend/internal/handler"
	"github.com/sanos-dev/backend/internal/queue"
	"github.com/sanos-dev/backend/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 종료 시 실행 중인 remediation / 요청 마무리 대기 시간
const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the remediation queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, store, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer store.Pool.Close()

	if err := ensureSchemas(ctx, cfg, store); err != nil {
		return err
	}

	authService, err := service.NewAuthService(cfg.Auth)
	if err != nil {
		return err
	}
	githubClient, err := client.NewGitHubClient(cfg.GitHub)
	if err != nil {
		return err
	}

	findings := newFindingService(ctx, cfg, store, logger)
	cache := service.NewTargetKeyCache(0)
	dedup := service.NewDedupFilter(store)

	remediation := service.NewRemediationService(
		store, dedup, client.NewAgentClient(cfg.Agent), findings, client.NewVercelClient(cfg.Vercel),
		cfg.Agent, cfg.Remediation, logger,
	)
	q := queue.New(remediation.Process, logger)

	targetService := service.NewTargetService(store, cache, logger)
	ingestService := service.NewIngestService(
		store, dedup, q, cache, cfg.Vercel.WebhookSecret, logger,
	)
	incidentService := service.NewIncidentService(store, targetService, q, githubClient, cfg.Remediation.CommitTag, logger)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.RouterDeps{
		Auth:      authService,
		Ingest:    handler.NewIngestHandler(ingestService),
		Targets:   handler.NewTargetHandler(targetService),
		Incidents: handler.NewIncidentHandler(incidentService),
		CORS:      cfg.CORS,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		cache.Start()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		cache.Stop()
		err := srv.Shutdown(shutdownCtx)
		if qerr := q.Shutdown(shutdownCtx); qerr != nil {
			logger.Warn("Remediation queue did not drain before timeout", zap.Error(qerr))
		}
		return err
	})

	return g.Wait()
}
