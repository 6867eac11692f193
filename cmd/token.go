package cmd

import (
	"fmt"
	"time"

	"github.com/sanos-dev/backend/internal/db"
	"github.com/sanos-dev/backend/internal/service"
	"github.com/spf13/cobra"
)

var (
	tokenUserID int64
	tokenTTL    time.Duration
)

// 로컬 개발용 access token 발급 (운영 토큰은 외부 로그인 서비스가 발급)
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development access token for an existing user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger, store, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer store.Pool.Close()

		user, err := store.GetUserByID(ctx, tokenUserID)
		if err != nil {
			if db.IsNoRows(err) {
				return fmt.Errorf("user %d not found", tokenUserID)
			}
			return err
		}

		authService, err := service.NewAuthService(cfg.Auth)
		if err != nil {
			return err
		}
		token, err := authService.IssueAccessToken(user.ID, user.LoginID, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user", 0, "user id (sub claim)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}
