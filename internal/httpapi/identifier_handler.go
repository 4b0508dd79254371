package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LoctusTM/oskiosk-client/internal/catalog"
	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

// CatalogService is what the handlers need from the catalog.
type CatalogService interface {
	Lookup(ctx context.Context, identifier string) (domain.Identifiable, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, filter string) ([]domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
}

// IdentifierEnvelope tags the resolved entity with its kind so clients branch
// on the discriminator instead of probing the payload.
type IdentifierEnvelope struct {
	Type    domain.Kind         `json:"type"`
	Payload domain.Identifiable `json:"payload"`
}

type IdentifierHandler struct {
	catalog CatalogService
}

func NewIdentifierHandler(c CatalogService) *IdentifierHandler {
	return &IdentifierHandler{catalog: c}
}

func (h *IdentifierHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		respondError(w, http.StatusBadRequest, "invalid_identifier", "identifier must not be empty")
		return
	}

	item, err := h.catalog.Lookup(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, catalog.ErrIdentifierNotFound) ||
			errors.Is(err, catalog.ErrProductNotFound) ||
			errors.Is(err, catalog.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no catalog entry for identifier")
			return
		}
		log.Printf("identifier lookup failed for %q: %v", identifier, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "identifier lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, IdentifierEnvelope{
		Type:    item.EntityKind(),
		Payload: item,
	})
}
