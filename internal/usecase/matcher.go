package usecase

import (
	"strings"

	"github.com/dealradar/backend/internal/domain"
)

// Matcher decides whether an offer's text mentions any configured keyword.
// Matching is case-insensitive substring search, not whole-word: "eink"
// should hit "E-Ink" and "einkorn" alike — false positives are cheap, missed
// deals are not.
//
// The summary-stage field list is a superset of the detail-stage list, so the
// prefilter can never reject an offer the authoritative filter would accept.
type Matcher struct {
	keywords []string
}

// NewMatcher creates a matcher. Keywords are lowercased once; blank entries
// are dropped.
func NewMatcher(keywords []string) *Matcher {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	return &Matcher{keywords: cleaned}
}

// MatchesSummary is the cheap prefilter over feed summary fields. It runs
// before any enrichment call, so it must stay pure and allocation-light.
func (m *Matcher) MatchesSummary(o domain.Offer) bool {
	return m.matchesAny(summaryFields(o))
}

// MatchesDetail is the authoritative keyword check over the enriched record.
func (m *Matcher) MatchesDetail(o domain.Offer) bool {
	return m.matchesAny(detailFields(o))
}

// FilterMatches returns the offers that are new (id set, not seen) and pass
// the detail-stage keyword match, preserving input order.
func (m *Matcher) FilterMatches(offers []domain.Offer, seen *domain.SeenSet) []domain.Offer {
	var matches []domain.Offer
	for _, o := range offers {
		if o.ID == "" {
			continue
		}
		if seen.Contains(o.ID) {
			continue
		}
		if m.MatchesDetail(o) {
			matches = append(matches, o)
		}
	}
	return matches
}

func (m *Matcher) matchesAny(fields []string) bool {
	for _, field := range fields {
		if field == "" {
			continue
		}
		lowered := strings.ToLower(field)
		for _, kw := range m.keywords {
			if strings.Contains(lowered, kw) {
				return true
			}
		}
	}
	return false
}

// summaryFields is the broad, recall-biased list scanned by the prefilter.
func summaryFields(o domain.Offer) []string {
	return []string{
		o.Title,
		o.Description,
		o.Subtitle,
		o.Snippet,
		o.Summary,
		o.Name,
		o.ProductName,
		o.WriteUpBody,
		o.Features,
	}
}

// detailFields is the subset the enriched record actually populates.
func detailFields(o domain.Offer) []string {
	return []string{
		o.Title,
		o.WriteUpBody,
		o.Features,
		o.Description,
		o.Snippet,
	}
}
