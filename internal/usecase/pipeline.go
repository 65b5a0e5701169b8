package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/dealradar/backend/internal/domain"
)

// Outcome summarizes one pipeline run. Every failure path resolves to an
// Outcome; nothing escapes Run as a panic or unhandled fault.
type Outcome struct {
	Summary    string
	Failed     bool
	FeedItems  int
	Candidates int
	Enriched   int
	Matches    int
	Notified   bool
	Committed  bool
	Err        error
}

// Pipeline sequences one deal-discovery run: load the seen set, fetch the
// feed, prefilter, enrich candidates, filter matches, notify, and commit the
// seen set only once notification has succeeded.
type Pipeline struct {
	feed     domain.FeedClient
	store    domain.SeenStore
	notifier domain.Notifier
	matcher  *Matcher
}

// NewPipeline creates a pipeline with its collaborators.
func NewPipeline(feed domain.FeedClient, store domain.SeenStore, notifier domain.Notifier, matcher *Matcher) *Pipeline {
	return &Pipeline{
		feed:     feed,
		store:    store,
		notifier: notifier,
		matcher:  matcher,
	}
}

// Run executes one pipeline pass. Runs must not overlap on the same store;
// the external scheduler is responsible for non-overlapping invocations.
func (p *Pipeline) Run(ctx context.Context) Outcome {
	seen, err := p.store.Load(ctx)
	if err != nil {
		// Proceeding with an empty set would re-notify every historical
		// match, so a load failure aborts the run before any side effect.
		log.Printf("[PIPELINE] Seen store load failed: %v", err)
		return Outcome{Failed: true, Summary: "seen store unavailable; run aborted", Err: err}
	}
	startSeen := seen.Len()

	feedItems, err := p.feed.FetchFeed(ctx)
	if err != nil {
		log.Printf("[PIPELINE] Feed fetch failed: %v", err)
		feedItems = nil
	}
	if len(feedItems) == 0 {
		return Outcome{Summary: "no feed items found"}
	}

	outcome := Outcome{FeedItems: len(feedItems)}

	inspected := make([]string, 0, len(feedItems))
	var candidates []string
	for _, item := range feedItems {
		inspected = append(inspected, item.ID)
		if seen.Contains(item.ID) {
			continue
		}
		if p.matcher.MatchesSummary(item) {
			candidates = append(candidates, item.ID)
		}
	}
	outcome.Candidates = len(candidates)
	log.Printf("[PIPELINE] %d feed items, %d candidates after prefilter", len(feedItems), len(candidates))

	if len(candidates) == 0 {
		// Nothing worth enriching: mark every inspected id so the next run
		// skips them entirely.
		seen.AddAll(inspected)
		return p.commit(ctx, seen, startSeen, outcome, "no matching deals found")
	}

	enriched, err := p.feed.FetchDetails(ctx, candidates)
	if err != nil {
		log.Printf("[PIPELINE] Detail fetch interrupted: %v", err)
		return Outcome{
			Failed:     true,
			Summary:    "detail fetch interrupted; run aborted",
			FeedItems:  outcome.FeedItems,
			Candidates: outcome.Candidates,
			Err:        err,
		}
	}
	outcome.Enriched = len(enriched)

	enrichedIDs := make([]string, 0, len(enriched))
	for _, o := range enriched {
		enrichedIDs = append(enrichedIDs, o.ID)
	}

	matches := p.matcher.FilterMatches(enriched, seen)
	outcome.Matches = len(matches)

	if len(matches) == 0 {
		// Every enriched id was verified non-matching; commit them
		// unconditionally. Abandoned-batch ids are absent from enrichedIDs
		// and will be re-fetched next run.
		seen.AddAll(enrichedIDs)
		return p.commit(ctx, seen, startSeen, outcome, "no new matching deals found")
	}

	// Notify first: the seen set is only committed once delivery succeeded,
	// so a failed (or crashed) notification re-surfaces the same matches on
	// the next scheduled run.
	if err := p.notifier.Notify(ctx, matches); err != nil {
		log.Printf("[PIPELINE] Notification failed, leaving seen state unchanged: %v", err)
		outcome.Failed = true
		outcome.Summary = "notification failed; seen state unchanged"
		outcome.Err = err
		return outcome
	}
	outcome.Notified = true

	seen.AddAll(enrichedIDs)
	return p.commit(ctx, seen, startSeen, outcome,
		fmt.Sprintf("found and notified %d new deal(s)", len(matches)))
}

// commit persists the seen set and finalizes the outcome. A persistence
// failure flips the run to failed so the caller knows state was not saved,
// but an already-sent notification is not misreported.
func (p *Pipeline) commit(ctx context.Context, seen *domain.SeenSet, startSeen int, outcome Outcome, summary string) Outcome {
	outcome.Summary = summary

	if seen.Len() == startSeen {
		// Nothing new to persist; skip the write entirely.
		outcome.Committed = true
		return outcome
	}

	if err := p.store.Save(ctx, seen); err != nil {
		log.Printf("[PIPELINE] Seen store save failed: %v", err)
		outcome.Failed = true
		outcome.Summary = summary + "; seen state not saved"
		outcome.Err = err
		return outcome
	}

	outcome.Committed = true
	log.Printf("[PIPELINE] Committed %d seen ids (%d new)", seen.Len(), seen.Len()-startSeen)
	return outcome
}
