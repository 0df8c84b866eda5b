package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
)

// Retry policy for failed publishes.
const (
	maxOutboxRetries = 5
	outboxRetryDelay = 30 * time.Second
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) FetchPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	var events []*model.OutboxEvent
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT id, event_type, payload, status, error_message,
				retry_count, retry_at, processed_at, created_at, updated_at
			FROM outbox_events
			WHERE status IN ('pending', 'retry')
			AND (retry_at IS NULL OR retry_at <= NOW())
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $1
		`
		if err := tx.SelectContext(ctx, &events, query, limit); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, mapError("outbox events", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, id)
	return mapError("outbox event", err)
}

// MarkFailed schedules a retry, or dead-letters the event once the
// retry budget is spent.
func (r *outboxRepository) MarkFailed(ctx context.Context, event *model.OutboxEvent, errMsg string) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if event.RetryCount+1 >= maxOutboxRetries {
			deadLetter := `
				INSERT INTO outbox_events_deadletter (event_id, event_type, payload, error_message, retry_count, created_at)
				VALUES ($1, $2, $3, $4, $5, NOW())
			`
			if _, err := tx.ExecContext(ctx, deadLetter, event.ID, event.EventType, event.Payload, errMsg, event.RetryCount+1); err != nil {
				return err
			}
			update := `
				UPDATE outbox_events
				SET status = $1, error_message = $2, retry_count = retry_count + 1, updated_at = NOW()
				WHERE id = $3
			`
			_, err := tx.ExecContext(ctx, update, model.OutboxStatusFailed, errMsg, event.ID)
			return err
		}

		retryAt := time.Now().Add(outboxRetryDelay << event.RetryCount)
		update := `
			UPDATE outbox_events
			SET status = $1, error_message = $2, retry_count = retry_count + 1,
				retry_at = $3, updated_at = NOW()
			WHERE id = $4
		`
		_, err := tx.ExecContext(ctx, update, model.OutboxStatusRetry, errMsg, retryAt, event.ID)
		return err
	})
	return mapError("outbox event", err)
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = 'processed' AND processed_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, mapError("outbox events", err)
	}
	return result.RowsAffected()
}
