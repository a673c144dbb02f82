package main

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"llm-insurance/internal/config"
	"llm-insurance/internal/db"
	"llm-insurance/internal/email"
	"llm-insurance/internal/repository"
	"llm-insurance/internal/service"
)

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <userId>",
	Short: "Soft-delete an account so it can no longer log in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, _ := zap.NewProduction()
		defer logger.Sync()

		pool, err := db.NewPool(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer pool.Close()

		var repo repository.AccountRepository = repository.NewPgAccountRepository(pool)
		if cfg.RedisAddr != "" {
			// invalida la entrada que la API pudo haber cacheado
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer client.Close()
			repo = repository.NewCachedAccountRepository(repo, client, cfg.ProfileCacheTTL(), logger)
		}

		accounts := service.NewAccountService(
			logger,
			repo,
			service.NewBcryptHasher(cfg.BcryptCost),
			service.NewTokenService(cfg.JWTSecret, cfg.AccessTTL()),
			email.NewDisabledSender("not used by accountctl"),
		)

		userID := args[0]
		if err := accounts.Deactivate(cmd.Context(), userID); err != nil {
			if errors.Is(err, service.ErrAccountNotFound) {
				return fmt.Errorf("account %q not found or already deactivated", userID)
			}
			return fmt.Errorf("deactivate %q: %w", userID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "account %s deactivated\n", userID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deactivateCmd)
}
