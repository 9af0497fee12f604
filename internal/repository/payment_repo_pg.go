package repository

import (
	"context"
	"fmt"

	"github.com/hyeonu91/schoolreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	// Complete inserts the payment and moves the reservation from PENDING to
	// COMPLETED in one transaction. The unique index on imp_uid and the
	// status guard on the update make the operation exactly-once: a losing
	// racer gets ErrAlreadyProcessed and leaves no orphan payment behind.
	Complete(ctx context.Context, payment *domain.Payment) error
	ExistsByReserveID(ctx context.Context, reserveID int64) (bool, error)
	ExistsByImpUID(ctx context.Context, impUID string) (bool, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) Complete(ctx context.Context, payment *domain.Payment) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO payments (reserve_id, imp_uid, merchant_uid, payment_type, status, price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`,
			payment.ReserveID, payment.ImpUID, payment.MerchantUID, payment.PaymentType, payment.Status, payment.Price).
			Scan(&payment.ID, &payment.CreatedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("imp_uid %s: %w", payment.ImpUID, domain.ErrAlreadyProcessed)
		}
		if err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, `
			UPDATE reserves SET status=$1, updated_at=now()
			WHERE id=$2 AND status=$3`,
			domain.ReserveStatusCompleted, payment.ReserveID, domain.ReserveStatusPending)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			// Reservation left PENDING concurrently; roll the insert back too.
			return fmt.Errorf("reservation %d not payable: %w", payment.ReserveID, domain.ErrAlreadyProcessed)
		}
		return nil
	})
}

func (r *PGPaymentRepository) ExistsByReserveID(ctx context.Context, reserveID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payments WHERE reserve_id=$1)`, reserveID).Scan(&exists)
	return exists, err
}

func (r *PGPaymentRepository) ExistsByImpUID(ctx context.Context, impUID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payments WHERE imp_uid=$1)`, impUID).Scan(&exists)
	return exists, err
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
