// Package session drives one cashdesk checkout session: key events feed the
// input buffer, submitted identifiers are resolved against the catalog, and an
// empty-buffer submit sends the cart to payment.
//
// The session is single-threaded by construction: all mutation happens through
// HandleKey, Apply and Abort, which the caller invokes from one event loop.
// The only asynchronous work is the two backend calls, returned as Commands;
// their completions re-enter the loop as Events in completion order, which may
// interleave with new key events.
package session

import (
	"context"
	"fmt"
	"log"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
	"github.com/LoctusTM/oskiosk-client/internal/input"
	"github.com/LoctusTM/oskiosk-client/internal/keymap"
)

// Resolver looks up a scanned identifier in the catalog. A missing entry and a
// transport failure both come back as an error; the session shows the same
// not-found alert for either and logs the cause.
type Resolver interface {
	ResolveIdentifier(ctx context.Context, identifier string) (domain.Identifiable, error)
}

// PaymentGateway submits a cart snapshot for payment.
type PaymentGateway interface {
	PayCart(ctx context.Context, cart domain.Cart) (*domain.PaymentTransaction, error)
}

// Event is an async completion fed back into the session loop.
type Event interface {
	sessionEvent()
}

type ResolveDone struct {
	Identifier string
	Item       domain.Identifiable
	Err        error
}

type PaymentDone struct {
	Tx  *domain.PaymentTransaction
	Err error
}

func (ResolveDone) sessionEvent() {}
func (PaymentDone) sessionEvent() {}

// Command is asynchronous work started by a transition. The caller runs it off
// the event loop and feeds the resulting Event back through Apply.
type Command func(ctx context.Context) Event

type Session struct {
	buffer   *input.Buffer
	cart     *domain.Cart
	resolver Resolver
	payments PaymentGateway
	logger   *log.Logger

	waitIdentifier bool
	waitCheckout   bool
	alertNotFound  bool
	checkoutErr    string
}

func New(keys *keymap.Table, resolver Resolver, payments PaymentGateway, logger *log.Logger) *Session {
	return &Session{
		buffer:   input.NewBuffer(keys),
		cart:     domain.NewCart(),
		resolver: resolver,
		payments: payments,
		logger:   logger,
	}
}

// HandleKey feeds one key event through the buffer and starts async work when
// a submit happens. A nil Command means nothing asynchronous was started.
func (s *Session) HandleKey(code keymap.Code) Command {
	action := s.buffer.OnKey(code)

	switch action.Kind {
	case input.ActionTyped:
		s.alertNotFound = false
		return nil

	case input.ActionResolve:
		// No dedup: a second scan while one is in flight is still issued.
		// The wait flag is how the UI decides whether to allow it.
		s.waitIdentifier = true
		identifier := action.Identifier
		return func(ctx context.Context) Event {
			item, err := s.resolver.ResolveIdentifier(ctx, identifier)
			return ResolveDone{Identifier: identifier, Item: item, Err: err}
		}

	case input.ActionCheckout:
		if s.waitCheckout {
			// At most one payment submission in flight per cart.
			return nil
		}
		s.waitCheckout = true
		s.checkoutErr = ""
		snapshot := s.cart.Snapshot()
		return func(ctx context.Context) Event {
			tx, err := s.payments.PayCart(ctx, snapshot)
			return PaymentDone{Tx: tx, Err: err}
		}
	}

	return nil
}

// Apply processes an async completion. A returned error is a programming-error
// class failure (broken invariant) and should end the session.
func (s *Session) Apply(ev Event) error {
	switch ev := ev.(type) {
	case ResolveDone:
		return s.applyResolve(ev)
	case PaymentDone:
		s.applyPayment(ev)
		return nil
	default:
		return fmt.Errorf("unknown session event %T", ev)
	}
}

func (s *Session) applyResolve(ev ResolveDone) error {
	s.waitIdentifier = false

	if ev.Err != nil {
		// Not-found and transport failures show the same alert; the
		// cause is only kept in the log.
		s.logger.Printf("resolve failed for identifier %q: %v", ev.Identifier, ev.Err)
		s.alertNotFound = true
		return nil
	}

	// A stale result lands on whatever cart is current at arrival time.
	switch item := ev.Item.(type) {
	case domain.Product:
		pricing, err := item.FirstPricing()
		if err != nil {
			s.logger.Printf("product %d resolved without pricings: %v", item.ID, err)
			s.alertNotFound = true
			return nil
		}
		if err := s.cart.AddToCart(item, pricing); err != nil {
			return fmt.Errorf("adding product %d to cart: %w", item.ID, err)
		}
	case domain.User:
		s.cart.SetUser(item)
	default:
		return fmt.Errorf("identifier %q resolved to unknown entity kind %T", ev.Identifier, ev.Item)
	}
	return nil
}

func (s *Session) applyPayment(ev PaymentDone) {
	s.waitCheckout = false

	if ev.Err != nil {
		// The cart is only reset on confirmed success.
		s.logger.Printf("payment failed: %v", ev.Err)
		s.checkoutErr = ev.Err.Error()
		return
	}

	s.logger.Printf("payment completed, transaction %s", ev.Tx.ID)
	s.cart = domain.NewCart()
}

// Abort discards the cart and starts over.
func (s *Session) Abort() {
	s.cart = domain.NewCart()
	s.checkoutErr = ""
}

func (s *Session) Cart() *domain.Cart   { return s.cart }
func (s *Session) Buffer() string       { return s.buffer.Value() }
func (s *Session) WaitIdentifier() bool { return s.waitIdentifier }
func (s *Session) WaitCheckout() bool   { return s.waitCheckout }
func (s *Session) AlertNotFound() bool  { return s.alertNotFound }
func (s *Session) CheckoutError() string { return s.checkoutErr }
