package domain

import "errors"

var (
	// ErrFeedUnavailable is returned when the feed endpoint cannot be reached
	// or returns an unparseable payload.
	ErrFeedUnavailable = errors.New("feed request failed")

	// ErrRateLimited is returned when the upstream replies 429.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrBatchExhausted is returned when a detail batch is abandoned after
	// the configured number of retries.
	ErrBatchExhausted = errors.New("detail batch abandoned after retries")

	// ErrStoreUnavailable is returned when the seen-set store cannot be
	// read or written.
	ErrStoreUnavailable = errors.New("seen store unavailable")

	// ErrNotifyFailed is returned when notification delivery fails.
	ErrNotifyFailed = errors.New("notification delivery failed")
)
