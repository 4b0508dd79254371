package cartstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return mongoRepository{collection: db.Collection("carts")}
}

func (m mongoRepository) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"_id": id}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// CreateCart assigns the cart its identity and inserts it.
func (m mongoRepository) CreateCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	cart.ID = uuid.NewString()
	cart.CreatedAt = now
	cart.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, cart); err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (m mongoRepository) UpdateCart(ctx context.Context, cart *domain.Cart) error {
	cart.UpdatedAt = time.Now()

	filter := bson.M{"_id": cart.ID}
	update := bson.M{"$set": bson.M{
		"items":      cart.Items,
		"user":       cart.User,
		"updated_at": cart.UpdatedAt,
	}}

	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m mongoRepository) DeleteCart(ctx context.Context, id string) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}
