package notify

import (
	"context"
	"log"

	"github.com/dealradar/backend/internal/domain"
)

// LogNotifier writes matches to the log instead of delivering them. Used in
// dry-run mode and diagnostics, where a real email would be noise.
type LogNotifier struct{}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs each matched offer and always succeeds.
func (n *LogNotifier) Notify(ctx context.Context, offers []domain.Offer) error {
	for _, o := range offers {
		log.Printf("[NOTIFY] (dry run) %s - %s", titleOrDefault(o), o.URL)
	}
	return nil
}
