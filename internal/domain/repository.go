package domain

import "context"

// FeedClient defines the interface for the upstream offer API.
type FeedClient interface {
	// FetchFeed retrieves every page of the current offer feed. A partial
	// result is returned when a later page fails; an empty slice means no
	// feed data this round.
	FetchFeed(ctx context.Context) ([]Offer, error)

	// FetchDetails retrieves full offer records for the given ids, in
	// upstream response order. Ids from abandoned batches are absent.
	FetchDetails(ctx context.Context, ids []string) ([]Offer, error)
}

// SeenStore persists the set of already-processed offer identifiers as a
// single durable blob. Load returns an empty set when the blob is absent;
// Save overwrites the blob in full.
type SeenStore interface {
	Load(ctx context.Context) (*SeenSet, error)
	Save(ctx context.Context, seen *SeenSet) error
}

// Notifier delivers a notification for a set of matched offers. A nil error
// means delivery succeeded; the pipeline commits seen state only after a
// successful delivery.
type Notifier interface {
	Notify(ctx context.Context, offers []Offer) error
}
