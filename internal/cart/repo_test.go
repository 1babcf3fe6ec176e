package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values  map[string]string
	lastTTL time.Duration
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	raw, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return raw, nil
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	f.lastTTL = ttl
	return nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeStore) CartKey(customerID string) string {
	return "cart:" + customerID
}

func newCartRepo(store *fakeStore) *Repository {
	return &Repository{store: store, ttl: defaultTTL}
}

func TestGetMissingCartIsEmpty(t *testing.T) {
	repo := newCartRepo(newFakeStore())
	customerID := uuid.New()

	cart, err := repo.Get(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, customerID, cart.CustomerID)
	assert.Empty(t, cart.Items)
}

func TestSetThenGetRoundTrips(t *testing.T) {
	store := newFakeStore()
	repo := newCartRepo(store)
	customerID := uuid.New()

	cart := &Cart{
		CustomerID: customerID,
		Items: []Item{
			{ProductID: uuid.New(), Name: "Panther Tee", Qty: 2, UnitPriceCents: 1500},
		},
	}
	require.NoError(t, repo.Set(context.Background(), cart))
	assert.Equal(t, defaultTTL, store.lastTTL)

	loaded, err := repo.Get(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Panther Tee", loaded.Items[0].Name)
	assert.Equal(t, 2, loaded.Items[0].Qty)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestClearDropsCustomerKey(t *testing.T) {
	store := newFakeStore()
	repo := newCartRepo(store)
	customerID := uuid.New()

	require.NoError(t, repo.Set(context.Background(), &Cart{CustomerID: customerID}))
	require.NoError(t, repo.Clear(context.Background(), customerID))

	assert.Equal(t, []string{"cart:" + customerID.String()}, store.deleted)
	cart, err := repo.Get(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestGetRejectsCorruptPayload(t *testing.T) {
	store := newFakeStore()
	repo := newCartRepo(store)
	customerID := uuid.New()
	store.values["cart:"+customerID.String()] = "{not json"

	_, err := repo.Get(context.Background(), customerID)
	require.Error(t, err)
}

func TestSetRequiresCart(t *testing.T) {
	repo := newCartRepo(newFakeStore())
	require.Error(t, repo.Set(context.Background(), nil))
}
