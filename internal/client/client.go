// Package client is the JSON-over-HTTP client for the kiosk backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

var (
	// ErrNotFound: the identifier has no catalog match.
	ErrNotFound = errors.New("no catalog entry for identifier")
	// ErrPaymentRejected: the backend refused the charge.
	ErrPaymentRejected = errors.New("payment rejected")
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.PaymentTransaction]
}

func New(baseURL, token string) *Client {
	breaker := gobreaker.NewCircuitBreaker[*domain.PaymentTransaction](gobreaker.Settings{
		Name:    "payment",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &Client{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

// ResolveIdentifier looks up a scanned identifier. The response carries an
// explicit type discriminator; the payload is decoded accordingly.
func (c *Client) ResolveIdentifier(ctx context.Context, identifier string) (domain.Identifiable, error) {
	body, err := c.get(ctx, "/identifiers/"+url.PathEscape(identifier)+".json")
	if err != nil {
		return nil, err
	}

	var envelope identifierEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode identifier response: %w", err)
	}

	switch envelope.Type {
	case domain.KindProduct:
		var p domain.Product
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to decode product payload: %w", err)
		}
		return p, nil
	case domain.KindUser:
		var u domain.User
		if err := json.Unmarshal(envelope.Payload, &u); err != nil {
			return nil, fmt.Errorf("failed to decode user payload: %w", err)
		}
		return u, nil
	default:
		return nil, fmt.Errorf("identifier response carries unknown type %q", envelope.Type)
	}
}

// PayCart persists the cart (giving it an identity on first contact) and then
// submits it for payment. Payment calls go through a circuit breaker so a dead
// payment backend fails fast instead of hanging every checkout.
func (c *Client) PayCart(ctx context.Context, cart domain.Cart) (*domain.PaymentTransaction, error) {
	persisted, err := c.CreateOrUpdateCart(ctx, cart)
	if err != nil {
		return nil, fmt.Errorf("failed to persist cart: %w", err)
	}

	tx, err := c.breaker.Execute(func() (*domain.PaymentTransaction, error) {
		body, err := c.post(ctx, "/carts/"+url.PathEscape(persisted.ID)+"/pay.json", payRequest{CartID: persisted.ID})
		if err != nil {
			return nil, err
		}
		var tx domain.PaymentTransaction
		if err := json.Unmarshal(body, &tx); err != nil {
			return nil, fmt.Errorf("failed to decode payment transaction: %w", err)
		}
		return &tx, nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateOrUpdateCart POSTs a fresh cart or PATCHes one that already has an
// identity, returning the persisted cart.
func (c *Client) CreateOrUpdateCart(ctx context.Context, cart domain.Cart) (*domain.Cart, error) {
	var (
		body []byte
		err  error
	)
	if cart.ID == "" {
		body, err = c.post(ctx, "/carts.json", cart)
	} else {
		body, err = c.patch(ctx, "/carts/"+url.PathEscape(cart.ID)+".json", cart)
	}
	if err != nil {
		return nil, err
	}

	var persisted domain.Cart
	if err := json.Unmarshal(body, &persisted); err != nil {
		return nil, fmt.Errorf("failed to decode cart response: %w", err)
	}
	return &persisted, nil
}

func (c *Client) GetProducts(ctx context.Context) ([]domain.Product, error) {
	body, err := c.get(ctx, "/products.json")
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	body, err := c.get(ctx, fmt.Sprintf("/products/%d.json", id))
	if err != nil {
		return nil, err
	}
	var p domain.Product
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &p, nil
}

func (c *Client) SaveProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	body, err := c.patch(ctx, fmt.Sprintf("/products/%d.json", p.ID), p)
	if err != nil {
		return nil, err
	}
	var saved domain.Product
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &saved, nil
}

// GetUsers lists users; a non-empty filter matches name or identifier
// substrings server-side.
func (c *Client) GetUsers(ctx context.Context, filter string) ([]domain.User, error) {
	path := "/users.json"
	if filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// SaveUser creates the user when it has no identity yet, otherwise updates it.
func (c *Client) SaveUser(ctx context.Context, u domain.User) (*domain.User, error) {
	var (
		body []byte
		err  error
	)
	if u.ID == 0 {
		body, err = c.post(ctx, "/users.json", u)
	} else {
		body, err = c.patch(ctx, fmt.Sprintf("/users/%d.json", u.ID), u)
	}
	if err != nil {
		return nil, err
	}
	var saved domain.User
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &saved, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, payload)
}

func (c *Client) patch(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, payload)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, fmt.Errorf("%w: %s", ErrPaymentRejected, errorMessage(body))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, errorMessage(body))
	}
	return body, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return string(body)
}
