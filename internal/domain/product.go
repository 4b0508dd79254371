package domain

import "errors"

var ErrNoPricing = errors.New("product has no pricings")

// Pricing is one price option of a product, in cents.
type Pricing struct {
	ID    int64 `json:"id" bson:"id"`
	Price int64 `json:"price" bson:"price"`
}

type Product struct {
	ID       int64     `json:"id" bson:"id"`
	Name     string    `json:"name" bson:"name"`
	Tags     []string  `json:"tags" bson:"tags"`
	Pricings []Pricing `json:"pricings" bson:"pricings"`
}

// HasPricing reports whether pr is one of the product's declared pricings.
func (p Product) HasPricing(pr Pricing) bool {
	for _, candidate := range p.Pricings {
		if candidate == pr {
			return true
		}
	}
	return false
}

// FirstPricing returns the first declared pricing.
// TODO: price-tier selection (member vs guest pricing) instead of first-wins.
func (p Product) FirstPricing() (Pricing, error) {
	if len(p.Pricings) == 0 {
		return Pricing{}, ErrNoPricing
	}
	return p.Pricings[0], nil
}
