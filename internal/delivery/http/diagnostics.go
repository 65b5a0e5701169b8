package http

import (
	"context"
	"fmt"

	"github.com/dealradar/backend/config"
	"github.com/dealradar/backend/internal/domain"
)

// Diagnostics implements the self-test modes behind ?test=. Each check
// exercises one external collaborator and reports a pass/fail line, so a
// freshly deployed instance can be verified without waiting for a real deal.
type Diagnostics struct {
	cfg      *config.Config
	store    domain.SeenStore
	feed     domain.FeedClient
	notifier domain.Notifier
}

// NewDiagnostics creates the diagnostic runner.
func NewDiagnostics(cfg *config.Config, store domain.SeenStore, feed domain.FeedClient, notifier domain.Notifier) *Diagnostics {
	return &Diagnostics{cfg: cfg, store: store, feed: feed, notifier: notifier}
}

// Run executes the named mode ("all" runs every check) and reports one
// result line per check plus overall success.
func (d *Diagnostics) Run(ctx context.Context, mode string) (map[string]string, bool) {
	checks := map[string]func(context.Context) error{
		"env":       d.checkEnv,
		"storage":   d.checkStorage,
		"api":       d.checkAPI,
		"email":     d.checkEmail,
		"structure": d.checkStructure,
	}

	results := make(map[string]string)
	ok := true

	runOne := func(name string, check func(context.Context) error) {
		if err := check(ctx); err != nil {
			results[name] = fmt.Sprintf("FAIL: %v", err)
			ok = false
			return
		}
		results[name] = "OK"
	}

	if mode == "all" {
		for _, name := range []string{"env", "storage", "api", "structure", "email"} {
			runOne(name, checks[name])
		}
		return results, ok
	}

	check, known := checks[mode]
	if !known {
		return map[string]string{mode: "FAIL: unknown test mode"}, false
	}
	runOne(mode, check)
	return results, ok
}

func (d *Diagnostics) checkEnv(ctx context.Context) error {
	if d.cfg.Woot.APIKey == "" {
		return fmt.Errorf("Woot API key not configured")
	}
	if len(d.cfg.Keywords) == 0 {
		return fmt.Errorf("no keywords configured")
	}
	if !d.cfg.Mail.DryRun && d.cfg.Mail.Recipient == "" {
		return fmt.Errorf("mail recipient not configured")
	}
	return nil
}

// checkStorage verifies a full load/save round trip with the current blob
// contents. Re-saving the loaded set is a no-op for membership, so the check
// is safe to run against live state.
func (d *Diagnostics) checkStorage(ctx context.Context) error {
	seen, err := d.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if err := d.store.Save(ctx, seen); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (d *Diagnostics) checkAPI(ctx context.Context) error {
	items, err := d.feed.FetchFeed(ctx)
	if err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("feed returned no items")
	}
	return nil
}

// checkStructure fetches one detail record end to end and verifies the
// normalized shape downstream code depends on.
func (d *Diagnostics) checkStructure(ctx context.Context) error {
	items, err := d.feed.FetchFeed(ctx)
	if err != nil || len(items) == 0 {
		return fmt.Errorf("no feed items to inspect")
	}

	details, err := d.feed.FetchDetails(ctx, []string{items[0].ID})
	if err != nil {
		return fmt.Errorf("getoffers: %w", err)
	}
	if len(details) == 0 {
		return fmt.Errorf("getoffers returned no records")
	}
	o := details[0]
	if o.ID == "" || o.OfferID == "" {
		return fmt.Errorf("identifier fields not mirrored (Id=%q OfferId=%q)", o.ID, o.OfferID)
	}
	return nil
}

func (d *Diagnostics) checkEmail(ctx context.Context) error {
	test := domain.Offer{
		ID:      "diagnostic-test",
		OfferID: "diagnostic-test",
		Title:   "Deal alert self-test",
		Snippet: "If you can read this, notification delivery works.",
	}
	if err := d.notifier.Notify(ctx, []domain.Offer{test}); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
