package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
)

const deliveryColumns = "id, delivery_id, channel_id, message_id, status, status_code, last_error, payload, created_at, updated_at"

// DeliveryRepository persists the delivery log.
type DeliveryRepository struct {
	db *sqlx.DB
}

func NewDeliveryRepository(db *sqlx.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) Create(ctx context.Context, d *domain.Delivery) (*domain.Delivery, error) {
	query := `
		INSERT INTO deliveries (delivery_id, channel_id, message_id, status, status_code, last_error, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`

	result, err := r.db.ExecContext(ctx, query,
		d.DeliveryID, d.ChannelID, d.MessageID, d.Status, d.StatusCode, d.LastError, d.Payload,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns nil, nil when no row matches.
func (r *DeliveryRepository) GetByID(ctx context.Context, id int64) (*domain.Delivery, error) {
	query := "SELECT " + deliveryColumns + " FROM deliveries WHERE id = ?"

	var delivery domain.Delivery
	if err := r.db.GetContext(ctx, &delivery, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}

	return &delivery, nil
}

func (r *DeliveryRepository) GetAll(
	ctx context.Context,
	status *domain.DeliveryStatus,
	page, pageSize int,
) ([]domain.Delivery, int64, error) {
	offset := (page - 1) * pageSize

	where := ""
	var args []any
	if status != nil {
		where = " WHERE status = ?"
		args = append(args, *status)
	}

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM deliveries"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count deliveries: %w", err)
	}

	query := "SELECT " + deliveryColumns + " FROM deliveries" + where + " ORDER BY id DESC LIMIT ? OFFSET ?"

	deliveries := []domain.Delivery{}
	if err := r.db.SelectContext(ctx, &deliveries, query, append(args, pageSize, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to get deliveries: %w", err)
	}

	return deliveries, totalCount, nil
}

func (r *DeliveryRepository) GetStats(ctx context.Context) (domain.DeliveryStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0) AS delivered,
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0)  AS rejected,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)    AS failed
		FROM deliveries
	`

	var stats domain.DeliveryStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return domain.DeliveryStats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats, nil
}

// UpdateOutcome records the result of a replayed delivery.
func (r *DeliveryRepository) UpdateOutcome(
	ctx context.Context,
	id int64,
	status domain.DeliveryStatus,
	statusCode int,
	lastError *string,
) error {
	query := `
		UPDATE deliveries
		SET status = ?, status_code = ?, last_error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, statusCode, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("no delivery found with id %d", id)
	}

	return nil
}
