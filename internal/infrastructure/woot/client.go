package woot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/dealradar/backend/internal/domain"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20 // getoffers responses can be large

// Client handles communication with the Woot affiliate API.
// The feed endpoint is paginated; the getoffers endpoint accepts batches of
// offer ids and enforces an undocumented rate limit, so detail fetches run
// strictly sequentially with spacing, backoff and jitter between requests.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	category    string
	rateLimiter *rate.Limiter

	batchSize      int
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	batchDelay     time.Duration

	// sleep and jitter are swapped out in tests to avoid real delays.
	sleep  func(time.Duration)
	jitter func(time.Duration) time.Duration
}

// Options configures a Client. Zero values fall back to defaults that stay
// under the upstream's 25-id request cap.
type Options struct {
	APIKey         string
	BaseURL        string
	Category       string
	BatchSize      int
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BatchDelay     time.Duration
	RequestsPerSec float64
}

// NewClient creates a new Woot API client
func NewClient(opts Options) *Client {
	batchSize := opts.BatchSize
	if batchSize <= 0 || batchSize > 25 {
		batchSize = 20
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	initial := opts.InitialBackoff
	if initial <= 0 {
		initial = time.Second
	}
	maxBackoff := opts.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	batchDelay := opts.BatchDelay
	if batchDelay <= 0 {
		batchDelay = 2 * time.Second
	}
	rps := opts.RequestsPerSec
	if rps <= 0 {
		rps = 1.0
	}
	category := opts.Category
	if category == "" {
		category = "Electronics"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:         opts.APIKey,
		baseURL:        opts.BaseURL,
		category:       category,
		rateLimiter:    rate.NewLimiter(rate.Limit(rps), 2),
		batchSize:      batchSize,
		maxRetries:     maxRetries,
		initialBackoff: initial,
		maxBackoff:     maxBackoff,
		batchDelay:     batchDelay,
		sleep:          time.Sleep,
		jitter:         addJitter,
	}
}

// addJitter adds up to 25% of random spread on top of d so synchronized
// invocations do not hit the limiter in lockstep.
func addJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

// FetchFeed retrieves every page of the offer feed for the configured
// category. Page count is discovered from each response's reported total.
// A page failure stops pagination and returns whatever has accumulated;
// feed errors degrade to "no data this round" rather than failing the run.
func (c *Client) FetchFeed(ctx context.Context) ([]domain.Offer, error) {
	var offers []domain.Offer

	page := 1
	totalPages := 1
	for page <= totalPages {
		items, reported, err := c.fetchFeedPage(ctx, page)
		if err != nil {
			log.Printf("[WOOT] Feed page %d failed: %v", page, err)
			break
		}
		if reported > totalPages {
			totalPages = reported
		}
		offers = append(offers, NormalizeFeedItems(items)...)
		page++
	}

	log.Printf("[WOOT] Fetched %d feed items across %d page(s)", len(offers), page-1)
	return offers, nil
}

// feedPage is the object form of a feed response. The API also returns a
// bare array for single-page categories.
type feedPage struct {
	Items      []domain.Offer `json:"Items"`
	TotalPages int            `json:"TotalPages"`
}

func (c *Client) fetchFeedPage(ctx context.Context, page int) ([]domain.Offer, int, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s/feed/%s?page=%d", c.baseURL, c.category, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%w: status %d", domain.ErrFeedUnavailable, resp.StatusCode)
	}

	return parseFeedBody(body)
}

// parseFeedBody accepts both response shapes: an Items/TotalPages object and
// a bare offer array.
func parseFeedBody(body []byte) ([]domain.Offer, int, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []domain.Offer
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, fmt.Errorf("failed to decode feed response: %w", err)
		}
		return items, 1, nil
	}

	var pageResp feedPage
	if err := json.Unmarshal(trimmed, &pageResp); err != nil {
		return nil, 0, fmt.Errorf("failed to decode feed response: %w", err)
	}
	total := pageResp.TotalPages
	if total < 1 {
		total = 1
	}
	return pageResp.Items, total, nil
}

// FetchDetails retrieves full offer records for the given ids. Ids are
// partitioned into fixed-size batches processed strictly sequentially, with
// a spacing delay between batches. A batch that exhausts its retries is
// abandoned for this run; its ids surface again on the next scheduled run.
func (c *Client) FetchDetails(ctx context.Context, ids []string) ([]domain.Offer, error) {
	var enriched []domain.Offer

	batches := partition(ids, c.batchSize)
	for i, batch := range batches {
		if i > 0 {
			c.sleep(c.jitter(c.batchDelay))
		}

		offers, err := c.fetchBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return enriched, ctx.Err()
			}
			log.Printf("[WOOT] Abandoning batch %d/%d (%d ids): %v", i+1, len(batches), len(batch), err)
			continue
		}
		enriched = append(enriched, offers...)
	}

	log.Printf("[WOOT] Enriched %d of %d candidate offers", len(enriched), len(ids))
	return enriched, nil
}

// fetchBatch runs the per-batch retry state machine: attempt, then on any
// non-success sleep the current backoff plus jitter, double the delay up to
// the cap, and retry until the ceiling is reached.
func (c *Client) fetchBatch(ctx context.Context, ids []string) ([]domain.Offer, error) {
	delay := c.initialBackoff

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		offers, err := c.postBatch(ctx, ids)
		if err == nil {
			return offers, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}

		if errors.Is(err, domain.ErrRateLimited) {
			log.Printf("[WOOT] Rate limited on attempt %d/%d, backing off %s", attempt, c.maxRetries, delay)
		} else {
			log.Printf("[WOOT] Batch attempt %d/%d failed: %v", attempt, c.maxRetries, err)
		}

		if attempt == c.maxRetries {
			break
		}
		c.sleep(c.jitter(delay))
		delay *= 2
		if delay > c.maxBackoff {
			delay = c.maxBackoff
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", domain.ErrBatchExhausted, c.maxRetries, lastErr)
}

func (c *Client) postBatch(ctx context.Context, ids []string) ([]domain.Offer, error) {
	payload, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	reqURL := fmt.Sprintf("%s/getoffers", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport faults retry the same way as non-success responses.
		return nil, fmt.Errorf("getoffers request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read getoffers response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %d", domain.ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getoffers returned status %d", resp.StatusCode)
	}

	var offers []domain.Offer
	if err := json.Unmarshal(body, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode getoffers response: %w", err)
	}

	return NormalizeFeedItems(offers), nil
}

// partition splits ids into ordered slices of at most size elements.
func partition(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
