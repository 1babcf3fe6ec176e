package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/printhaus/printhaus-backend/pkg/redis"
)

const defaultTTL = 14 * 24 * time.Hour

// Item is one line of the server-side cart.
type Item struct {
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	DesignID       *uuid.UUID `json:"design_id,omitempty"`
	Name           string     `json:"name"`
	Qty            int        `json:"qty"`
	UnitPriceCents int        `json:"unit_price_cents"`
}

// Cart is the customer's server-side cart snapshot.
type Cart struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Items      []Item    `json:"items"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(customerID string) string
}

// Repository stores carts in Redis keyed by customer.
type Repository struct {
	store store
	ttl   time.Duration
}

// NewRepository builds a cart repository over the shared Redis client.
func NewRepository(client *redis.Client) (*Repository, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &Repository{store: client, ttl: defaultTTL}, nil
}

// Get loads the customer's cart; a missing key yields an empty cart.
func (r *Repository) Get(ctx context.Context, customerID uuid.UUID) (*Cart, error) {
	raw, err := r.store.Get(ctx, r.store.CartKey(customerID.String()))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return &Cart{CustomerID: customerID}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}

// Set replaces the customer's cart.
func (r *Repository) Set(ctx context.Context, cart *Cart) error {
	if cart == nil {
		return errors.New("cart required")
	}
	cart.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return r.store.Set(ctx, r.store.CartKey(cart.CustomerID.String()), string(raw), r.ttl)
}

// Clear drops the customer's cart. Called post-commit after a successful
// checkout; failures are the caller's to log, not to surface.
func (r *Repository) Clear(ctx context.Context, customerID uuid.UUID) error {
	return r.store.Del(ctx, r.store.CartKey(customerID.String()))
}
