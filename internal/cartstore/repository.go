package cartstore

import (
	"context"
	"errors"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, id string) (*domain.Cart, error)
	CreateCart(ctx context.Context, cart *domain.Cart) error
	UpdateCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, id string) error
}
