package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"checkpay/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment domain.Payment) error
	// ListByUser devuelve los pagos del usuario, el mas reciente primero.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Payment, error)
}

type PgPaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPgPaymentRepository(pool *pgxpool.Pool) *PgPaymentRepository {
	return &PgPaymentRepository{pool: pool}
}

func (r *PgPaymentRepository) Create(ctx context.Context, payment domain.Payment) error {
	const query = `
		INSERT INTO check_payments (id, user_id, business_name, quantity_sold, check_image_base64, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		payment.ID,
		payment.UserID,
		payment.BusinessName,
		payment.QuantitySold,
		payment.CheckImageBase64,
		payment.CreatedAt,
	)
	return err
}

func (r *PgPaymentRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Payment, error) {
	const query = `
		SELECT id, user_id, business_name, quantity_sold, created_at
		FROM check_payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0, limit)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.BusinessName,
			&p.QuantitySold,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
