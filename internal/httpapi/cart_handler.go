package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LoctusTM/oskiosk-client/internal/cartstore"
	"github.com/LoctusTM/oskiosk-client/internal/domain"
	"github.com/LoctusTM/oskiosk-client/internal/payment"
)

// PaymentService charges a persisted cart.
type PaymentService interface {
	Pay(ctx context.Context, cartID string) (*domain.PaymentTransaction, error)
}

type CartHandler struct {
	carts    cartstore.CartRepository
	payments PaymentService
}

func NewCartHandler(carts cartstore.CartRepository, payments PaymentService) *CartHandler {
	return &CartHandler{
		carts:    carts,
		payments: payments,
	}
}

func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cart domain.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	cart.ID = "" // identity is assigned here, never by the terminal

	if err := h.carts.CreateCart(r.Context(), &cart); err != nil {
		log.Printf("failed to create cart: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create cart")
		return
	}
	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")

	var cart domain.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	cart.ID = cartID

	if err := h.carts.UpdateCart(r.Context(), &cart); err != nil {
		if errors.Is(err, cartstore.ErrCartNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "cart not found")
			return
		}
		log.Printf("failed to update cart %s: %v", cartID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update cart")
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")

	cart, err := h.carts.GetCart(r.Context(), cartID)
	if err != nil {
		if errors.Is(err, cartstore.ErrCartNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "cart not found")
			return
		}
		log.Printf("failed to get cart %s: %v", cartID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get cart")
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) Pay(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")

	tx, err := h.payments.Pay(r.Context(), cartID)
	if err != nil {
		switch {
		case errors.Is(err, cartstore.ErrCartNotFound):
			respondError(w, http.StatusNotFound, "not_found", "cart not found")
		case errors.Is(err, payment.ErrEmptyCart):
			respondError(w, http.StatusPaymentRequired, "empty_cart", err.Error())
		case errors.Is(err, payment.ErrChargeRefused):
			respondError(w, http.StatusPaymentRequired, "charge_refused", err.Error())
		default:
			log.Printf("failed to pay cart %s: %v", cartID, err)
			respondError(w, http.StatusInternalServerError, "internal_error", "payment failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, tx)
}
