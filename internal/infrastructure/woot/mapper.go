package woot

import (
	"strings"

	"github.com/dealradar/backend/internal/domain"
)

// Normalize canonicalizes one upstream offer: ids are trimmed and whichever
// of the two identifier fields is present is mirrored into both, so every
// downstream consumer can read a single field. Returns false for offers with
// no resolvable identifier; those never enter the pipeline.
func Normalize(o domain.Offer) (domain.Offer, bool) {
	o.ID = strings.TrimSpace(o.ID)
	o.OfferID = strings.TrimSpace(o.OfferID)

	switch {
	case o.OfferID == "" && o.ID != "":
		o.OfferID = o.ID
	case o.ID == "" && o.OfferID != "":
		o.ID = o.OfferID
	case o.ID == "" && o.OfferID == "":
		return domain.Offer{}, false
	}

	o.Title = strings.TrimSpace(o.Title)
	o.URL = strings.TrimSpace(o.URL)
	return o, true
}

// NormalizeFeedItems normalizes a slice of upstream offers, dropping any
// without a resolvable id and preserving input order.
func NormalizeFeedItems(items []domain.Offer) []domain.Offer {
	out := make([]domain.Offer, 0, len(items))
	for _, item := range items {
		normalized, ok := Normalize(item)
		if !ok {
			continue
		}
		out = append(out, normalized)
	}
	return out
}
