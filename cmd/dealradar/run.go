package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/dealradar/backend/config"
	"github.com/dealradar/backend/internal/domain"
	"github.com/dealradar/backend/internal/infrastructure/notify"
	"github.com/dealradar/backend/internal/infrastructure/store"
	"github.com/dealradar/backend/internal/infrastructure/woot"
	"github.com/dealradar/backend/internal/usecase"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline run and print the outcome",
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "log matches instead of sending email")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if runDryRun {
		cfg.Mail.DryRun = true
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	seenStore, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize seen store: %w", err)
	}

	client := woot.NewClient(woot.Options{
		APIKey:         cfg.Woot.APIKey,
		BaseURL:        cfg.Woot.BaseURL,
		Category:       cfg.Woot.Category,
		BatchSize:      cfg.Fetch.BatchSize,
		MaxRetries:     cfg.Fetch.MaxRetries,
		InitialBackoff: cfg.Fetch.InitialBackoff,
		MaxBackoff:     cfg.Fetch.MaxBackoff,
		BatchDelay:     cfg.Fetch.BatchDelay,
		RequestsPerSec: cfg.Fetch.RequestsPerSec,
	})

	pipeline := usecase.NewPipeline(client, seenStore, buildNotifier(cfg), usecase.NewMatcher(cfg.Keywords))
	outcome := pipeline.Run(ctx)

	fmt.Println(outcome.Summary)
	if outcome.Failed {
		return fmt.Errorf("run failed: %s", outcome.Summary)
	}
	return nil
}

func buildStore(ctx context.Context, cfg *config.Config) (domain.SeenStore, error) {
	switch cfg.Store.Type {
	case "redis":
		return store.NewRedisStore(cfg.Store.RedisURL, cfg.Store.RedisKey)
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Store.PostgresDSN)
	default:
		return store.NewFileStore(cfg.Store.Path), nil
	}
}

func buildNotifier(cfg *config.Config) domain.Notifier {
	if cfg.Mail.DryRun {
		log.Printf("Mail dry run enabled; matches will be logged, not emailed")
		return notify.NewLogNotifier()
	}
	return notify.NewMailer(notify.MailerOptions{
		Host:      cfg.Mail.Host,
		Port:      cfg.Mail.Port,
		Username:  cfg.Mail.Username,
		Password:  cfg.Mail.Password,
		Recipient: cfg.Mail.Recipient,
	})
}
