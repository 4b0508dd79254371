package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
	"github.com/LoctusTM/oskiosk-client/internal/keymap"
)

type mockResolver struct {
	m       sync.Mutex
	entries map[string]domain.Identifiable
	err     error
	calls   []string
}

func (r *mockResolver) ResolveIdentifier(_ context.Context, identifier string) (domain.Identifiable, error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.calls = append(r.calls, identifier)
	if r.err != nil {
		return nil, r.err
	}
	item, ok := r.entries[identifier]
	if !ok {
		return nil, fmt.Errorf("no catalog entry for identifier")
	}
	return item, nil
}

type mockGateway struct {
	m     sync.Mutex
	tx    *domain.PaymentTransaction
	err   error
	carts []domain.Cart
}

func (g *mockGateway) PayCart(_ context.Context, cart domain.Cart) (*domain.PaymentTransaction, error) {
	g.m.Lock()
	defer g.m.Unlock()
	g.carts = append(g.carts, cart)
	if g.err != nil {
		return nil, g.err
	}
	return g.tx, nil
}

func (g *mockGateway) submitted() []domain.Cart {
	g.m.Lock()
	defer g.m.Unlock()
	return g.carts
}

var testLogger = log.New(io.Discard, "", 0)

func testCatalog() map[string]domain.Identifiable {
	return map[string]domain.Identifiable{
		"A1": domain.Product{
			ID:       1,
			Name:     "Club-Mate",
			Pricings: []domain.Pricing{{ID: 10, Price: 150}, {ID: 11, Price: 100}},
		},
		"U9": domain.User{ID: 9, Name: "alice", Active: true, Identifiers: []string{"U9"}},
	}
}

func newTestSession(resolver *mockResolver, gateway *mockGateway) *Session {
	return New(keymap.Default(), resolver, gateway, testLogger)
}

// typeAndSubmit scans an identifier and returns the pending resolve command.
func typeAndSubmit(t *testing.T, sut *Session, identifier string) Command {
	t.Helper()
	for _, r := range identifier {
		require.Nil(t, sut.HandleKey(keymap.FromRune(r)))
	}
	cmd := sut.HandleKey(keymap.Enter)
	require.NotNil(t, cmd)
	return cmd
}

// run executes the command synchronously and applies its completion.
func run(t *testing.T, sut *Session, cmd Command) {
	t.Helper()
	require.NoError(t, sut.Apply(cmd(context.Background())))
}

func TestScanProduct_AddsLineItemWithFirstPricing(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	sut := newTestSession(resolver, &mockGateway{})

	cmd := typeAndSubmit(t, sut, "A1")
	assert.True(t, sut.WaitIdentifier())
	assert.Equal(t, "", sut.Buffer())
	run(t, sut, cmd)

	assert.False(t, sut.WaitIdentifier())
	require.Len(t, sut.Cart().Items, 1)
	assert.Equal(t, int64(1), sut.Cart().Items[0].Product.ID)
	assert.Equal(t, int64(150), sut.Cart().Items[0].Pricing.Price)
}

func TestScanUser_AssociatesUserWithCart(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	sut := newTestSession(resolver, &mockGateway{})

	run(t, sut, typeAndSubmit(t, sut, "U9"))

	require.NotNil(t, sut.Cart().User)
	assert.Equal(t, int64(9), sut.Cart().User.ID)
}

func TestScanUser_ReplacesPreviousUser(t *testing.T) {
	catalog := testCatalog()
	catalog["U8"] = domain.User{ID: 8, Name: "bob", Identifiers: []string{"U8"}}
	resolver := &mockResolver{entries: catalog}
	sut := newTestSession(resolver, &mockGateway{})

	run(t, sut, typeAndSubmit(t, sut, "U9"))
	run(t, sut, typeAndSubmit(t, sut, "U8"))

	require.NotNil(t, sut.Cart().User)
	assert.Equal(t, int64(8), sut.Cart().User.ID)
	assert.Equal(t, []string{"U8"}, sut.Cart().User.Identifiers)
}

func TestScanUnknownIdentifier_SetsNotFoundAlert(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	sut := newTestSession(resolver, &mockGateway{})
	run(t, sut, typeAndSubmit(t, sut, "A1"))

	run(t, sut, typeAndSubmit(t, sut, "ZZZ"))

	assert.True(t, sut.AlertNotFound())
	// cart unchanged
	require.Len(t, sut.Cart().Items, 1)
}

func TestTransportError_ShowsSameAlertAsNotFound(t *testing.T) {
	resolver := &mockResolver{err: errors.New("connection refused")}
	sut := newTestSession(resolver, &mockGateway{})

	run(t, sut, typeAndSubmit(t, sut, "A1"))

	assert.True(t, sut.AlertNotFound())
	assert.True(t, sut.Cart().Empty())
}

func TestTyping_ClearsNotFoundAlert(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	sut := newTestSession(resolver, &mockGateway{})
	run(t, sut, typeAndSubmit(t, sut, "ZZZ"))
	require.True(t, sut.AlertNotFound())

	sut.HandleKey(keymap.FromRune('A'))

	assert.False(t, sut.AlertNotFound())
}

func TestCheckoutSuccess_ResetsCart(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	gateway := &mockGateway{tx: &domain.PaymentTransaction{ID: "TXN-1"}}
	sut := newTestSession(resolver, gateway)
	run(t, sut, typeAndSubmit(t, sut, "U9"))
	run(t, sut, typeAndSubmit(t, sut, "A1"))

	cmd := sut.HandleKey(keymap.Enter) // empty buffer submit
	require.NotNil(t, cmd)
	assert.True(t, sut.WaitCheckout())
	run(t, sut, cmd)

	assert.False(t, sut.WaitCheckout())
	assert.Equal(t, "", sut.Cart().ID)
	assert.True(t, sut.Cart().Empty())
	assert.Nil(t, sut.Cart().User)

	submitted := gateway.submitted()
	require.Len(t, submitted, 1)
	assert.Len(t, submitted[0].Items, 1)
	require.NotNil(t, submitted[0].User)
	assert.Equal(t, int64(9), submitted[0].User.ID)
}

func TestCheckoutFailure_PreservesCart(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	gateway := &mockGateway{err: errors.New("payment backend down")}
	sut := newTestSession(resolver, gateway)
	run(t, sut, typeAndSubmit(t, sut, "U9"))
	run(t, sut, typeAndSubmit(t, sut, "A1"))

	cmd := sut.HandleKey(keymap.Enter)
	require.NotNil(t, cmd)
	run(t, sut, cmd)

	assert.False(t, sut.WaitCheckout())
	assert.Contains(t, sut.CheckoutError(), "payment backend down")
	require.Len(t, sut.Cart().Items, 1)
	require.NotNil(t, sut.Cart().User)
	assert.Equal(t, int64(9), sut.Cart().User.ID)
}

func TestCheckout_SecondSubmitWhileInFlightIsIgnored(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	gateway := &mockGateway{tx: &domain.PaymentTransaction{ID: "TXN-1"}}
	sut := newTestSession(resolver, gateway)
	run(t, sut, typeAndSubmit(t, sut, "A1"))

	first := sut.HandleKey(keymap.Enter)
	require.NotNil(t, first)
	second := sut.HandleKey(keymap.Enter)
	assert.Nil(t, second)

	run(t, sut, first)
	assert.Len(t, gateway.submitted(), 1)
}

func TestResolve_NoDedupWhileInFlight(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	sut := newTestSession(resolver, &mockGateway{})

	first := typeAndSubmit(t, sut, "A1")
	// second scan goes out even though the first has not come back
	second := typeAndSubmit(t, sut, "A1")

	run(t, sut, first)
	run(t, sut, second)

	assert.Equal(t, []string{"A1", "A1"}, resolver.calls)
	assert.Len(t, sut.Cart().Items, 2)
}

func TestStaleResolve_AppliesToCurrentCart(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	gateway := &mockGateway{tx: &domain.PaymentTransaction{ID: "TXN-1"}}
	sut := newTestSession(resolver, gateway)

	// resolve is issued but its completion is held back
	stale := typeAndSubmit(t, sut, "A1")
	staleEvent := stale(context.Background())

	// checkout completes first and replaces the cart
	payCmd := sut.HandleKey(keymap.Enter)
	require.NotNil(t, payCmd)
	run(t, sut, payCmd)
	require.True(t, sut.Cart().Empty())

	// the stale completion lands on the new cart
	require.NoError(t, sut.Apply(staleEvent))

	assert.Len(t, sut.Cart().Items, 1)
}

func TestStaleResolve_DuringPaymentDoesNotCorruptSnapshot(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	gateway := &mockGateway{tx: &domain.PaymentTransaction{ID: "TXN-1"}}
	sut := newTestSession(resolver, gateway)
	run(t, sut, typeAndSubmit(t, sut, "A1"))

	stale := typeAndSubmit(t, sut, "A1")
	staleEvent := stale(context.Background())

	payCmd := sut.HandleKey(keymap.Enter)
	require.NotNil(t, payCmd)
	payEvent := payCmd(context.Background())

	// stale resolve arrives while the payment is still in flight
	require.NoError(t, sut.Apply(staleEvent))
	assert.Len(t, sut.Cart().Items, 2)

	require.NoError(t, sut.Apply(payEvent))

	// only the snapshot taken at submit time was paid
	submitted := gateway.submitted()
	require.Len(t, submitted, 1)
	assert.Len(t, submitted[0].Items, 1)
	assert.True(t, sut.Cart().Empty())
}

func TestAbort_DiscardsCart(t *testing.T) {
	resolver := &mockResolver{entries: testCatalog()}
	sut := newTestSession(resolver, &mockGateway{})
	run(t, sut, typeAndSubmit(t, sut, "U9"))
	run(t, sut, typeAndSubmit(t, sut, "A1"))

	sut.Abort()

	assert.True(t, sut.Cart().Empty())
	assert.Nil(t, sut.Cart().User)
	assert.Equal(t, "", sut.Cart().ID)
}

func TestProductWithoutPricings_ShowsAlertInsteadOfCrashing(t *testing.T) {
	resolver := &mockResolver{entries: map[string]domain.Identifiable{
		"B2": domain.Product{ID: 2, Name: "misconfigured"},
	}}
	sut := newTestSession(resolver, &mockGateway{})

	run(t, sut, typeAndSubmit(t, sut, "B2"))

	assert.True(t, sut.AlertNotFound())
	assert.True(t, sut.Cart().Empty())
}

func TestApply_UnknownEntityKindIsFatal(t *testing.T) {
	sut := newTestSession(&mockResolver{}, &mockGateway{})

	err := sut.Apply(ResolveDone{Identifier: "X", Item: nil})

	require.Error(t, err)
}
