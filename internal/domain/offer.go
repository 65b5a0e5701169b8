package domain

import (
	"bytes"
	"encoding/json"
)

// Offer represents a single listing from the Woot affiliate API.
// The feed endpoint returns a sparse version of this record; the getoffers
// endpoint fills in the write-up and item fields.
type Offer struct {
	ID           string      `json:"Id"`
	OfferID      string      `json:"OfferId"`
	Title        string      `json:"Title"`
	Subtitle     string      `json:"Subtitle,omitempty"`
	Snippet      string      `json:"Snippet,omitempty"`
	Summary      string      `json:"Summary,omitempty"`
	Name         string      `json:"Name,omitempty"`
	ProductName  string      `json:"ProductName,omitempty"`
	Description  string      `json:"Description,omitempty"`
	WriteUpBody  string      `json:"WriteUpBody,omitempty"`
	WriteUpIntro string      `json:"WriteUpIntro,omitempty"`
	Features     string      `json:"Features,omitempty"`
	URL          string      `json:"Url,omitempty"`
	Items        []OfferItem `json:"Items,omitempty"`
}

// OfferItem is one purchasable variant of an offer.
type OfferItem struct {
	SalePrice Price `json:"SalePrice,omitempty"`
	ListPrice Price `json:"ListPrice,omitempty"`
}

// SalePrice returns the representative sale price across all items.
// Multi-item offers are represented by their cheapest variant.
func (o *Offer) SalePrice() (float64, bool) {
	return minItemPrice(o.Items, func(it OfferItem) Price { return it.SalePrice })
}

// ListPrice returns the representative list price across all items.
func (o *Offer) ListPrice() (float64, bool) {
	return minItemPrice(o.Items, func(it OfferItem) Price { return it.ListPrice })
}

// Savings returns list minus sale when both are present and sale < list.
func (o *Offer) Savings() (float64, bool) {
	sale, okSale := o.SalePrice()
	list, okList := o.ListPrice()
	if !okSale || !okList || sale >= list {
		return 0, false
	}
	return list - sale, true
}

func minItemPrice(items []OfferItem, pick func(OfferItem) Price) (float64, bool) {
	best := 0.0
	found := false
	for _, it := range items {
		v, ok := pick(it).Value()
		if !ok {
			continue
		}
		if !found || v < best {
			best = v
			found = true
		}
	}
	return best, found
}

// Price is an upstream price value that may arrive as a bare number or as a
// list of tiered amounts. The representative value of a tiered price is the
// minimum tier.
type Price struct {
	amounts []float64
}

// NewPrice builds a price from one or more amounts.
func NewPrice(amounts ...float64) Price {
	return Price{amounts: amounts}
}

// Value returns the representative amount, or false for an absent price.
func (p Price) Value() (float64, bool) {
	if len(p.amounts) == 0 {
		return 0, false
	}
	min := p.amounts[0]
	for _, a := range p.amounts[1:] {
		if a < min {
			min = a
		}
	}
	return min, true
}

// Tiered reports whether the upstream sent more than one amount.
func (p Price) Tiered() bool {
	return len(p.amounts) > 1
}

// UnmarshalJSON accepts a scalar, a list of scalars, or null.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		p.amounts = nil
		return nil
	}
	if data[0] == '[' {
		var tiers []float64
		if err := json.Unmarshal(data, &tiers); err != nil {
			return err
		}
		p.amounts = tiers
		return nil
	}
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err != nil {
		return err
	}
	p.amounts = []float64{scalar}
	return nil
}

// MarshalJSON writes the scalar form for single-amount prices and the list
// form for tiered ones.
func (p Price) MarshalJSON() ([]byte, error) {
	switch len(p.amounts) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(p.amounts[0])
	default:
		return json.Marshal(p.amounts)
	}
}
