package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dealradar/backend/internal/domain"
)

type fakeFeed struct {
	feed       []domain.Offer
	feedErr    error
	details    map[string]domain.Offer
	detailErr  error
	detailReqs [][]string
}

func (f *fakeFeed) FetchFeed(ctx context.Context) ([]domain.Offer, error) {
	return f.feed, f.feedErr
}

func (f *fakeFeed) FetchDetails(ctx context.Context, ids []string) ([]domain.Offer, error) {
	f.detailReqs = append(f.detailReqs, ids)
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	var out []domain.Offer
	for _, id := range ids {
		if o, ok := f.details[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

// fakeStore persists across Load/Save like a real backend, so the same
// instance can back multiple pipeline runs.
type fakeStore struct {
	ids     []string
	loadErr error
	saveErr error
	saves   int
}

func (s *fakeStore) Load(ctx context.Context) (*domain.SeenSet, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return domain.NewSeenSet(s.ids...), nil
}

func (s *fakeStore) Save(ctx context.Context, seen *domain.SeenSet) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.ids = seen.IDs()
	return nil
}

type fakeNotifier struct {
	err   error
	sent  [][]domain.Offer
	calls int
}

func (n *fakeNotifier) Notify(ctx context.Context, offers []domain.Offer) error {
	n.calls++
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, offers)
	return nil
}

func kindleFeed() ([]domain.Offer, map[string]domain.Offer) {
	feed := []domain.Offer{
		{ID: "1", Title: "Kindle Paperwhite 8GB"},
		{ID: "2", Title: "Bluetooth Speaker"},
		{ID: "3", Title: "Kobo Clara 2E"},
	}
	details := map[string]domain.Offer{
		"1": {ID: "1", Title: "Kindle Paperwhite 8GB", WriteUpBody: "Read anywhere"},
		"3": {ID: "3", Title: "Kobo Clara 2E", WriteUpBody: "E-reader with warm light"},
	}
	return feed, details
}

func newTestPipeline(feed *fakeFeed, store *fakeStore, notifier *fakeNotifier) *Pipeline {
	matcher := NewMatcher([]string{"kindle", "kobo"})
	return NewPipeline(feed, store, notifier, matcher)
}

func TestRunNotifiesAndCommitsMatches(t *testing.T) {
	feedItems, details := kindleFeed()
	feed := &fakeFeed{feed: feedItems, details: details}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	outcome := newTestPipeline(feed, store, notifier).Run(context.Background())

	if outcome.Failed {
		t.Fatalf("Run() failed: %s (%v)", outcome.Summary, outcome.Err)
	}
	if outcome.FeedItems != 3 || outcome.Candidates != 2 || outcome.Matches != 2 {
		t.Errorf("counts = feed %d, candidates %d, matches %d; want 3, 2, 2",
			outcome.FeedItems, outcome.Candidates, outcome.Matches)
	}
	if !outcome.Notified || !outcome.Committed {
		t.Errorf("Notified = %v, Committed = %v; want both true", outcome.Notified, outcome.Committed)
	}
	if outcome.Summary != "found and notified 2 new deal(s)" {
		t.Errorf("Summary = %q", outcome.Summary)
	}
	if len(notifier.sent) != 1 || len(notifier.sent[0]) != 2 {
		t.Fatalf("notifier received %v, want one batch of 2 offers", notifier.sent)
	}
	// Only enriched ids are committed; unmatched feed item "2" stays unseen.
	want := map[string]bool{"1": true, "3": true}
	if len(store.ids) != 2 {
		t.Fatalf("store ids = %v, want 2 ids", store.ids)
	}
	for _, id := range store.ids {
		if !want[id] {
			t.Errorf("unexpected committed id %q", id)
		}
	}
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	feedItems, details := kindleFeed()
	feed := &fakeFeed{feed: feedItems, details: details}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	p := newTestPipeline(feed, store, notifier)

	first := p.Run(context.Background())
	if first.Matches != 2 {
		t.Fatalf("first run matches = %d, want 2", first.Matches)
	}

	second := p.Run(context.Background())
	if second.Failed {
		t.Fatalf("second run failed: %s", second.Summary)
	}
	if second.Matches != 0 {
		t.Errorf("second run matches = %d, want 0", second.Matches)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("notifier called with matches %d times, want 1", len(notifier.sent))
	}
	// Seen ids are excluded before enrichment, not after.
	if len(feed.detailReqs) != 1 {
		t.Errorf("detail requests = %d, want 1 (seen ids must not be re-enriched)", len(feed.detailReqs))
	}
}

func TestRunNotificationFailureLeavesStoreUntouched(t *testing.T) {
	feedItems, details := kindleFeed()
	feed := &fakeFeed{feed: feedItems, details: details}
	store := &fakeStore{}
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	p := newTestPipeline(feed, store, notifier)

	outcome := p.Run(context.Background())

	if !outcome.Failed {
		t.Fatal("Run() Failed = false, want true after notify error")
	}
	if outcome.Summary != "notification failed; seen state unchanged" {
		t.Errorf("Summary = %q", outcome.Summary)
	}
	if store.saves != 0 {
		t.Errorf("store.Save called %d times, want 0", store.saves)
	}

	// Once delivery works again the same matches are re-detected and sent.
	notifier.err = nil
	retry := p.Run(context.Background())
	if retry.Failed || retry.Matches != 2 || !retry.Notified {
		t.Errorf("retry outcome = %+v, want 2 matches notified", retry)
	}
}

func TestRunNoCandidatesCommitsInspectedIDs(t *testing.T) {
	feed := &fakeFeed{feed: []domain.Offer{
		{ID: "10", Title: "Garden Hose"},
		{ID: "11", Title: "Desk Lamp"},
	}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	outcome := newTestPipeline(feed, store, notifier).Run(context.Background())

	if outcome.Failed {
		t.Fatalf("Run() failed: %s", outcome.Summary)
	}
	if outcome.Summary != "no matching deals found" {
		t.Errorf("Summary = %q", outcome.Summary)
	}
	if len(feed.detailReqs) != 0 {
		t.Errorf("detail requests = %d, want 0", len(feed.detailReqs))
	}
	if len(store.ids) != 2 {
		t.Errorf("store ids = %v, want both inspected ids committed", store.ids)
	}
	if notifier.calls != 0 {
		t.Errorf("notifier called %d times, want 0", notifier.calls)
	}
}

func TestRunNoDetailMatchesCommitsEnrichedIDs(t *testing.T) {
	// Passes the prefilter on the summary but the enriched record no longer
	// matches any keyword.
	feed := &fakeFeed{
		feed: []domain.Offer{{ID: "20", Title: "Kindle-compatible case"}},
		details: map[string]domain.Offer{
			"20": {ID: "20", Title: "Tablet case, assorted colors"},
		},
	}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	outcome := newTestPipeline(feed, store, notifier).Run(context.Background())

	if outcome.Failed {
		t.Fatalf("Run() failed: %s", outcome.Summary)
	}
	if outcome.Summary != "no new matching deals found" {
		t.Errorf("Summary = %q", outcome.Summary)
	}
	if len(store.ids) != 1 || store.ids[0] != "20" {
		t.Errorf("store ids = %v, want [20]", store.ids)
	}
	if notifier.calls != 0 {
		t.Errorf("notifier called %d times, want 0", notifier.calls)
	}
}

func TestRunEmptyFeed(t *testing.T) {
	store := &fakeStore{ids: []string{"old"}}
	outcome := newTestPipeline(&fakeFeed{}, store, &fakeNotifier{}).Run(context.Background())

	if outcome.Failed {
		t.Fatalf("Run() failed: %s", outcome.Summary)
	}
	if outcome.Summary != "no feed items found" {
		t.Errorf("Summary = %q", outcome.Summary)
	}
	if store.saves != 0 {
		t.Errorf("store.Save called %d times, want 0", store.saves)
	}
}

func TestRunFeedErrorDegradesToEmpty(t *testing.T) {
	feed := &fakeFeed{feedErr: errors.New("upstream 503")}
	outcome := newTestPipeline(feed, &fakeStore{}, &fakeNotifier{}).Run(context.Background())

	if outcome.Failed {
		t.Errorf("Run() Failed = true, want graceful empty-feed outcome")
	}
	if outcome.Summary != "no feed items found" {
		t.Errorf("Summary = %q", outcome.Summary)
	}
}

func TestRunLoadFailureAborts(t *testing.T) {
	store := &fakeStore{loadErr: domain.ErrStoreUnavailable}
	feed := &fakeFeed{feed: []domain.Offer{{ID: "1", Title: "Kindle"}}}
	notifier := &fakeNotifier{}

	outcome := newTestPipeline(feed, store, notifier).Run(context.Background())

	if !outcome.Failed {
		t.Fatal("Run() Failed = false, want true when seen store cannot load")
	}
	if !errors.Is(outcome.Err, domain.ErrStoreUnavailable) {
		t.Errorf("Err = %v, want ErrStoreUnavailable", outcome.Err)
	}
	if notifier.calls != 0 {
		t.Errorf("notifier called %d times, want 0", notifier.calls)
	}
}

func TestRunDetailFetchErrorAborts(t *testing.T) {
	feed := &fakeFeed{
		feed:      []domain.Offer{{ID: "1", Title: "Kindle Paperwhite"}},
		detailErr: domain.ErrRateLimited,
	}
	store := &fakeStore{}

	outcome := newTestPipeline(feed, store, &fakeNotifier{}).Run(context.Background())

	if !outcome.Failed {
		t.Fatal("Run() Failed = false, want true after detail fetch error")
	}
	if store.saves != 0 {
		t.Errorf("store.Save called %d times, want 0", store.saves)
	}
}

func TestRunSaveFailureReportedAfterNotify(t *testing.T) {
	feedItems, details := kindleFeed()
	feed := &fakeFeed{feed: feedItems, details: details}
	store := &fakeStore{saveErr: errors.New("disk full")}
	notifier := &fakeNotifier{}

	outcome := newTestPipeline(feed, store, notifier).Run(context.Background())

	if !outcome.Failed {
		t.Fatal("Run() Failed = false, want true when commit fails")
	}
	// The notification already went out; the outcome must not hide that.
	if !outcome.Notified {
		t.Error("Notified = false, want true")
	}
	if outcome.Committed {
		t.Error("Committed = true, want false")
	}
	if outcome.Summary != "found and notified 2 new deal(s); seen state not saved" {
		t.Errorf("Summary = %q", outcome.Summary)
	}
}

func TestRunSeenSetGrowsMonotonically(t *testing.T) {
	feedItems, details := kindleFeed()
	feed := &fakeFeed{feed: feedItems, details: details}
	store := &fakeStore{ids: []string{"ancient-1", "ancient-2"}}
	notifier := &fakeNotifier{}

	outcome := newTestPipeline(feed, store, notifier).Run(context.Background())

	if outcome.Failed {
		t.Fatalf("Run() failed: %s", outcome.Summary)
	}
	saved := domain.NewSeenSet(store.ids...)
	for _, id := range []string{"ancient-1", "ancient-2", "1", "3"} {
		if !saved.Contains(id) {
			t.Errorf("committed set missing %q", id)
		}
	}
}
