package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/dealradar/backend/config"
	httpDelivery "github.com/dealradar/backend/internal/delivery/http"
	"github.com/dealradar/backend/internal/domain"
	"github.com/dealradar/backend/internal/infrastructure/notify"
	"github.com/dealradar/backend/internal/infrastructure/store"
	"github.com/dealradar/backend/internal/infrastructure/woot"
	"github.com/dealradar/backend/internal/usecase"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting DealRadar Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Store Type: %s", cfg.Store.Type)
	log.Printf("Keywords: %v", cfg.Keywords)

	// Initialize infrastructure dependencies
	seenStore, err := newSeenStore(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize seen store: %v", err)
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

	notifier := newNotifier(cfg)

	// Initialize usecase layer
	matcher := usecase.NewMatcher(cfg.Keywords)
	pipeline := usecase.NewPipeline(client, seenStore, notifier, matcher)

	// Create HTTP handler with dependencies
	diag := httpDelivery.NewDiagnostics(cfg, seenStore, client, notifier)
	handler := httpDelivery.NewHandler(pipeline, diag)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newSeenStore picks the persistence backend from config.
func newSeenStore(ctx context.Context, cfg *config.Config) (domain.SeenStore, error) {
	switch cfg.Store.Type {
	case "redis":
		return store.NewRedisStore(cfg.Store.RedisURL, cfg.Store.RedisKey)
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Store.PostgresDSN)
	default:
		return store.NewFileStore(cfg.Store.Path), nil
	}
}

// newNotifier returns the mailer, or the log notifier in dry-run mode.
func newNotifier(cfg *config.Config) domain.Notifier {
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

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
