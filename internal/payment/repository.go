package payment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

// OutboxEvent is one unpublished row of the transactional outbox.
type OutboxEvent struct {
	ID          int
	AggregateId string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// TransactionStore persists payment transactions together with their outbox
// events.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *domain.PaymentTransaction, eventPayload []byte) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateTransaction writes the transaction and its outbox event atomically, so
// a recorded payment always eventually reaches the event stream.
func (r *Repository) CreateTransaction(ctx context.Context, tx *domain.PaymentTransaction, eventPayload []byte) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx,
		`INSERT INTO payment_transactions (id, cart_id, user_id, amount, currency, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tx.ID, tx.CartID, tx.UserID, tx.Amount, tx.Currency, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	_, err = sqlTx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		tx.CartID, "payment.completed", eventPayload)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return sqlTx.Commit()
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM outbox_events WHERE processed = false ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.AggregateId, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed = true, processed_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return nil
}
