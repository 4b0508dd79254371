package catalog

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

// CatalogRepository is what the service needs from the store.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	LookupIdentifier(ctx context.Context, identifier string) (domain.Identifiable, error)
	EntityIdentifiers(ctx context.Context, kind domain.Kind, entityID int64) ([]string, error)
}

type Service struct {
	repo  CatalogRepository
	cache LookupCache
	sfg   singleflight.Group // Prevents lookup stampede on hot barcodes
}

func NewService(repo CatalogRepository, cache LookupCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// Lookup resolves an identifier, going through the cache first. Concurrent
// lookups of the same identifier share one database query.
func (s *Service) Lookup(ctx context.Context, identifier string) (domain.Identifiable, error) {
	v, err, _ := s.sfg.Do(identifier, func() (interface{}, error) {

		item, err := s.cache.Get(ctx, identifier)
		if err == nil {
			return item, nil
		}

		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		item, errGet := s.repo.LookupIdentifier(ctx, identifier)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), identifier, item); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return item, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(domain.Identifiable), nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

// UpdateProduct saves the product and drops any cached lookups that point at
// it, so edits are visible on the next scan.
func (s *Service) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return err
	}
	s.invalidateEntity(ctx, domain.KindProduct, p.ID)
	return nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetUser(ctx, id)
}

// ListUsers lists users, optionally filtered by a name/identifier substring.
func (s *Service) ListUsers(ctx context.Context, filter string) ([]domain.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterUsers(users, filter), nil
}

func (s *Service) CreateUser(ctx context.Context, u *domain.User) error {
	return s.repo.CreateUser(ctx, u)
}

func (s *Service) UpdateUser(ctx context.Context, u *domain.User) error {
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.invalidateEntity(ctx, domain.KindUser, u.ID)
	return nil
}

func (s *Service) invalidateEntity(ctx context.Context, kind domain.Kind, entityID int64) {
	identifiers, err := s.repo.EntityIdentifiers(ctx, kind, entityID)
	if err != nil {
		log.Printf("failed to list identifiers for cache invalidation: %v", err)
		return
	}
	for _, identifier := range identifiers {
		if err := s.cache.Delete(ctx, identifier); err != nil {
			log.Printf("cache invalidate error: %v", err)
		}
	}
}
