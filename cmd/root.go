package cmd

import (
	"context"
	"fmt"

	"github.com/sanos-dev/backend/internal/client"
	"github.com/sanos-dev/backend/internal/config"
	"github.com/sanos-dev/backend/internal/db"
	"github.com/sanos-dev/backend/internal/logging"
	"github.com/sanos-dev/backend/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "sanos",
	Short: "sanos backend: error intake and automated remediation",
	// 서브커맨드 없이 실행하면 serve
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

// bootstrap - 설정 / 로거 / DB 연결 공통 초기화
func bootstrap(ctx context.Context) (config.Config, *zap.Logger, *db.Postgres, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, logger, &db.Postgres{Pool: pool}, nil
}

// ensureSchemas - 기본 테이블 생성, AI_API_KEY가 있으면 임베딩 테이블까지
func ensureSchemas(ctx context.Context, cfg config.Config, store *db.Postgres) error {
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	if cfg.Embedding.APIKey == "" {
		return nil
	}
	if err := store.EnsureEmbeddingSchema(ctx, client.DefaultEmbeddingDimensions); err != nil {
		return fmt.Errorf("failed to ensure embedding schema: %w", err)
	}
	return nil
}

// newFindingService - 임베딩 클라이언트 초기화 실패 시 유사 분석 기능만 끈다
func newFindingService(ctx context.Context, cfg config.Config, store *db.Postgres, logger *zap.Logger) *service.FindingService {
	if cfg.Embedding.APIKey == "" {
		logger.Info("AI_API_KEY not set, similar findings disabled")
		return nil
	}
	embedder, err := client.NewEmbeddingClient(ctx, cfg.Embedding)
	if err != nil {
		logger.Warn("Failed to init embedding client, similar findings disabled", zap.Error(err))
		return nil
	}
	return service.NewFindingService(store, embedder, logger)
}
