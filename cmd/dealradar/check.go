package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dealradar/backend/config"
	httpDelivery "github.com/dealradar/backend/internal/delivery/http"
	"github.com/dealradar/backend/internal/infrastructure/notify"
	"github.com/dealradar/backend/internal/infrastructure/woot"
)

var checkCmd = &cobra.Command{
	Use:   "check [env|storage|api|email|structure|all]",
	Short: "Run a self-test against the configured collaborators",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	mode := "all"
	if len(args) == 1 {
		mode = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
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

	// Email checks go through the log notifier unless dry run is off, so a
	// casual "dealradar check" never sends a real message by surprise.
	notifier := buildNotifier(cfg)
	if mode != "email" && mode != "all" {
		notifier = notify.NewLogNotifier()
	}

	diag := httpDelivery.NewDiagnostics(cfg, seenStore, client, notifier)
	results, ok := diag.Run(ctx, mode)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-10s %s\n", name, results[name])
	}

	if !ok {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}
