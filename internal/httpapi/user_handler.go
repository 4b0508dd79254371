package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/LoctusTM/oskiosk-client/internal/catalog"
	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

type UserHandler struct {
	catalog CatalogService
}

func NewUserHandler(c CatalogService) *UserHandler {
	return &UserHandler{catalog: c}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	users, err := h.catalog.ListUsers(r.Context(), filter)
	if err != nil {
		log.Printf("failed to list users: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list users")
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.catalog.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		log.Printf("failed to get user %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(user.Identifiers) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_user", "user needs at least one identifier")
		return
	}

	if err := h.catalog.CreateUser(r.Context(), &user); err != nil {
		log.Printf("failed to create user: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create user")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	user.ID = id
	if len(user.Identifiers) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_user", "user needs at least one identifier")
		return
	}

	if err := h.catalog.UpdateUser(r.Context(), &user); err != nil {
		if errors.Is(err, catalog.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		log.Printf("failed to update user %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
