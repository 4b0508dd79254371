package domain

import "time"

// PaymentTransaction is the result of a successful checkout.
type PaymentTransaction struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cart_id"`
	UserID    int64     `json:"user_id,omitempty"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}
