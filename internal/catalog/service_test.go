package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

type mockRepository struct {
	m           sync.RWMutex
	entries     map[string]domain.Identifiable
	users       map[int64]*domain.User
	identifiers map[string][]string // "kind/id" -> identifiers
	err         error
	lookups     int
}

func (m *mockRepository) LookupIdentifier(_ context.Context, identifier string) (domain.Identifiable, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.entries[identifier]
	if !ok {
		return nil, ErrIdentifierNotFound
	}
	return item, nil
}

func (m *mockRepository) GetProduct(context.Context, int64) (*domain.Product, error) {
	return nil, ErrProductNotFound
}

func (m *mockRepository) ListProducts(context.Context) ([]domain.Product, error) {
	return nil, nil
}

func (m *mockRepository) UpdateProduct(context.Context, *domain.Product) error {
	return m.err
}

func (m *mockRepository) GetUser(_ context.Context, id int64) (*domain.User, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *mockRepository) ListUsers(context.Context) ([]domain.User, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var users []domain.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, m.err
}

func (m *mockRepository) CreateUser(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	u.ID = int64(len(m.users) + 1)
	if m.users == nil {
		m.users = map[int64]*domain.User{}
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockRepository) UpdateUser(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockRepository) EntityIdentifiers(_ context.Context, kind domain.Kind, id int64) ([]string, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.identifiers[fmt.Sprintf("%s/%d", kind, id)], nil
}

func (m *mockRepository) lookupCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.lookups
}

type mockCache struct {
	m       sync.RWMutex
	items   map[string]domain.Identifiable
	err     error
	deleted []string
}

func (m *mockCache) Get(_ context.Context, identifier string) (domain.Identifiable, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[identifier]
	if !ok {
		return nil, ErrCacheMiss
	}
	return item, nil
}

func (m *mockCache) Set(_ context.Context, identifier string, item domain.Identifiable) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.items == nil {
		m.items = map[string]domain.Identifiable{}
	}
	m.items[identifier] = item
	return nil
}

func (m *mockCache) Delete(_ context.Context, identifier string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.items, identifier)
	m.deleted = append(m.deleted, identifier)
	return nil
}

func (m *mockCache) get(identifier string) domain.Identifiable {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.items[identifier]
}

func testProduct() domain.Product {
	return domain.Product{ID: 1, Name: "Club-Mate", Pricings: []domain.Pricing{{ID: 10, Price: 150}}}
}

func TestLookup_CacheMissFallsBackToRepo(t *testing.T) {
	mockRepo := &mockRepository{entries: map[string]domain.Identifiable{"A1": testProduct()}}
	mockC := &mockCache{}

	sut := NewService(mockRepo, mockC)
	item, err := sut.Lookup(context.Background(), "A1")
	require.NoError(t, err)

	product, ok := item.(domain.Product)
	require.True(t, ok)
	assert.Equal(t, "Club-Mate", product.Name)

	require.Eventually(t, func() bool {
		return mockC.get("A1") != nil
	}, 100*time.Millisecond, 10*time.Millisecond, "entry was not set in cache")
}

func TestLookup_CacheHitSkipsRepo(t *testing.T) {
	mockRepo := &mockRepository{} // repo should NOT be called
	mockC := &mockCache{items: map[string]domain.Identifiable{"A1": testProduct()}}

	sut := NewService(mockRepo, mockC)
	item, err := sut.Lookup(context.Background(), "A1")
	require.NoError(t, err)

	assert.Equal(t, domain.KindProduct, item.EntityKind())
	assert.Equal(t, 0, mockRepo.lookupCount())
}

func TestLookup_CacheErrorStillResolves(t *testing.T) {
	mockRepo := &mockRepository{entries: map[string]domain.Identifiable{"U9": domain.User{ID: 9, Name: "alice"}}}
	mockC := &mockCache{err: errors.New("redis down")}

	sut := NewService(mockRepo, mockC)
	item, err := sut.Lookup(context.Background(), "U9")
	require.NoError(t, err)
	assert.Equal(t, domain.KindUser, item.EntityKind())
}

func TestLookup_UnknownIdentifier(t *testing.T) {
	mockRepo := &mockRepository{entries: map[string]domain.Identifiable{}}
	sut := NewService(mockRepo, &mockCache{})

	_, err := sut.Lookup(context.Background(), "ZZZ")

	require.ErrorIs(t, err, ErrIdentifierNotFound)
}

func TestUpdateUser_InvalidatesCachedIdentifiers(t *testing.T) {
	user := &domain.User{ID: 9, Name: "alice", Identifiers: []string{"U9", "CARD-9"}}
	mockRepo := &mockRepository{
		users:       map[int64]*domain.User{9: user},
		identifiers: map[string][]string{"user/9": {"U9", "CARD-9"}},
	}
	mockC := &mockCache{items: map[string]domain.Identifiable{"U9": *user, "CARD-9": *user}}

	sut := NewService(mockRepo, mockC)
	renamed := *user
	renamed.Name = "alicia"
	require.NoError(t, sut.UpdateUser(context.Background(), &renamed))

	assert.ElementsMatch(t, []string{"U9", "CARD-9"}, mockC.deleted)
}

func TestListUsers_AppliesFilter(t *testing.T) {
	mockRepo := &mockRepository{users: map[int64]*domain.User{
		1: {ID: 1, Name: "Alice", Identifiers: []string{"U1"}},
		2: {ID: 2, Name: "Bob", Identifiers: []string{"U2"}},
	}}
	sut := NewService(mockRepo, &mockCache{})

	users, err := sut.ListUsers(context.Background(), "ali")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)
}
