package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrIdentifierNotFound = errors.New("identifier not found")
)

// Repository is the postgres-backed catalog store. Identifiers live in their
// own table so one entity can own several barcodes.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	var tags pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, tags FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	p.Tags = tags

	pricings, err := r.productPricings(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Pricings = pricings
	return &p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, tags FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var tags pq.StringArray
		if err := rows.Scan(&p.ID, &p.Name, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Tags = tags
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	for i := range products {
		pricings, err := r.productPricings(ctx, products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].Pricings = pricings
	}
	return products, nil
}

func (r *Repository) productPricings(ctx context.Context, productID int64) ([]domain.Pricing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, price FROM product_pricings WHERE product_id = $1 ORDER BY position`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pricings: %w", err)
	}
	defer rows.Close()

	var pricings []domain.Pricing
	for rows.Next() {
		var p domain.Pricing
		if err := rows.Scan(&p.ID, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan pricing: %w", err)
		}
		pricings = append(pricings, p)
	}
	return pricings, rows.Err()
}

// UpdateProduct replaces name, tags and the ordered pricing list.
func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE products SET name = $1, tags = $2 WHERE id = $3`,
		p.Name, pq.Array(p.Tags), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM product_pricings WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("failed to clear pricings: %w", err)
	}
	for i, pricing := range p.Pricings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_pricings (product_id, price, position) VALUES ($1, $2, $3)`,
			p.ID, pricing.Price, i); err != nil {
			return fmt.Errorf("failed to insert pricing: %w", err)
		}
	}

	return tx.Commit()
}

func (r *Repository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	var tags pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, balance, active, tags FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Balance, &u.Active, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Tags = tags

	identifiers, err := r.EntityIdentifiers(ctx, domain.KindUser, u.ID)
	if err != nil {
		return nil, err
	}
	u.Identifiers = identifiers
	return &u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, balance, active, tags FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var tags pq.StringArray
		if err := rows.Scan(&u.ID, &u.Name, &u.Balance, &u.Active, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Tags = tags
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	for i := range users {
		identifiers, err := r.EntityIdentifiers(ctx, domain.KindUser, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Identifiers = identifiers
	}
	return users, nil
}

// CreateUser inserts the user and its identifiers, filling in the assigned id.
func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (name, balance, active, tags) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.Name, u.Balance, u.Active, pq.Array(u.Tags)).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	for _, identifier := range u.Identifiers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO identifiers (identifier, kind, entity_id) VALUES ($1, $2, $3)`,
			identifier, domain.KindUser, u.ID); err != nil {
			return fmt.Errorf("failed to insert identifier %q: %w", identifier, err)
		}
	}

	return tx.Commit()
}

// UpdateUser replaces the user row and its identifier set.
func (r *Repository) UpdateUser(ctx context.Context, u *domain.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET name = $1, balance = $2, active = $3, tags = $4 WHERE id = $5`,
		u.Name, u.Balance, u.Active, pq.Array(u.Tags), u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM identifiers WHERE kind = $1 AND entity_id = $2`,
		domain.KindUser, u.ID); err != nil {
		return fmt.Errorf("failed to clear identifiers: %w", err)
	}
	for _, identifier := range u.Identifiers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO identifiers (identifier, kind, entity_id) VALUES ($1, $2, $3)`,
			identifier, domain.KindUser, u.ID); err != nil {
			return fmt.Errorf("failed to insert identifier %q: %w", identifier, err)
		}
	}

	return tx.Commit()
}

// LookupIdentifier resolves an identifier to the entity that owns it.
func (r *Repository) LookupIdentifier(ctx context.Context, identifier string) (domain.Identifiable, error) {
	var kind domain.Kind
	var entityID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT kind, entity_id FROM identifiers WHERE identifier = $1`, identifier,
	).Scan(&kind, &entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdentifierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up identifier: %w", err)
	}

	switch kind {
	case domain.KindProduct:
		p, err := r.GetProduct(ctx, entityID)
		if err != nil {
			return nil, err
		}
		return *p, nil
	case domain.KindUser:
		u, err := r.GetUser(ctx, entityID)
		if err != nil {
			return nil, err
		}
		return *u, nil
	default:
		return nil, fmt.Errorf("identifier %q has unknown kind %q", identifier, kind)
	}
}

// EntityIdentifiers returns all identifiers owned by one entity.
func (r *Repository) EntityIdentifiers(ctx context.Context, kind domain.Kind, entityID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT identifier FROM identifiers WHERE kind = $1 AND entity_id = $2 ORDER BY identifier`,
		kind, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get identifiers: %w", err)
	}
	defer rows.Close()

	var identifiers []string
	for rows.Next() {
		var identifier string
		if err := rows.Scan(&identifier); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		identifiers = append(identifiers, identifier)
	}
	return identifiers, rows.Err()
}
