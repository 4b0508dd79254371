package domain

import (
	"errors"
	"time"
)

// ErrForeignPricing is a programming error: a line item must carry one of its
// product's own pricings.
var ErrForeignPricing = errors.New("pricing does not belong to product")

// LineItem is one product+pricing entry in a cart.
type LineItem struct {
	Product Product `json:"product" bson:"product"`
	Pricing Pricing `json:"pricing" bson:"pricing"`
}

// Cart holds the running state of a checkout session: line items in insertion
// order (duplicates allowed, re-scanning adds a second line) and at most one
// associated user. It has no identity until first persisted.
type Cart struct {
	ID        string     `json:"id,omitempty" bson:"_id,omitempty"`
	Items     []LineItem `json:"items" bson:"items"`
	User      *User      `json:"user,omitempty" bson:"user,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

func NewCart() *Cart {
	return &Cart{}
}

// AddToCart appends a new line item. The pricing must be one of the product's
// declared pricings; anything else is rejected as ErrForeignPricing.
func (c *Cart) AddToCart(p Product, pricing Pricing) error {
	if !p.HasPricing(pricing) {
		return ErrForeignPricing
	}
	c.Items = append(c.Items, LineItem{Product: p, Pricing: pricing})
	return nil
}

// SetUser associates the user with the cart, replacing any previous one.
func (c *Cart) SetUser(u User) {
	c.User = &u
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// Snapshot returns a value copy of the cart with its own items slice, safe to
// hand to an in-flight payment while the live cart keeps changing.
func (c *Cart) Snapshot() Cart {
	snapshot := *c
	snapshot.Items = make([]LineItem, len(c.Items))
	copy(snapshot.Items, c.Items)
	if c.User != nil {
		u := *c.User
		snapshot.User = &u
	}
	return snapshot
}
