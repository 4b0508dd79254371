// Package payment charges carts and records the resulting transactions.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/LoctusTM/oskiosk-client/internal/cartstore"
	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

var (
	ErrEmptyCart     = errors.New("cart is empty, nothing to pay")
	ErrChargeRefused = errors.New("charge refused")
)

type Service struct {
	carts    cartstore.CartRepository
	store    TransactionStore
	approver Approver
	currency string
}

func NewService(carts cartstore.CartRepository, store TransactionStore, approver Approver, currency string) *Service {
	return &Service{
		carts:    carts,
		store:    store,
		approver: approver,
		currency: currency,
	}
}

// Pay charges the cart: approve, record the transaction plus its outbox event,
// then drop the paid cart. The cart survives any failure before the commit.
func (s *Service) Pay(ctx context.Context, cartID string) (*domain.PaymentTransaction, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		return nil, ErrEmptyCart
	}

	var total int64
	for _, item := range cart.Items {
		total += item.Pricing.Price
	}

	ok, reason := s.approver.Approve(*cart, total)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChargeRefused, reason)
	}

	tx := &domain.PaymentTransaction{
		ID:        fmt.Sprintf("TXN-%s", uuid.NewString()),
		CartID:    cart.ID,
		Amount:    total,
		Currency:  s.currency,
		CreatedAt: time.Now(),
	}
	if cart.User != nil {
		tx.UserID = cart.User.ID
	}

	payload := map[string]interface{}{
		"transaction_id": tx.ID,
		"cart_id":        tx.CartID,
		"user_id":        tx.UserID,
		"amount":         tx.Amount,
		"currency":       tx.Currency,
		"completed_at":   tx.CreatedAt,
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment payload: %w", err)
	}

	if err := s.store.CreateTransaction(ctx, tx, payloadJSON); err != nil {
		return nil, err
	}

	// The cart is spent; losing this delete only leaves a dangling doc.
	if err := s.carts.DeleteCart(ctx, cartID); err != nil && !errors.Is(err, cartstore.ErrCartNotFound) {
		log.Printf("failed to delete paid cart %s: %v", cartID, err)
	}

	return tx, nil
}
